package nfe

import (
	"fmt"
	"unicode"
)

// AccessKeyLength es el largo de la chave de acesso (43 dígitos + DV).
const AccessKeyLength = 44

// CheckDigit calcula el dígito verificador (módulo 11) de los 43 primeros dígitos de la chave.
// Pesos de 2 a 9 aplicados de derecha a izquierda, reiniciando en 2; resto 0 o 1 → DV 0.
func CheckDigit(prefix string) (int, error) {
	if len(prefix) != AccessKeyLength-1 {
		return 0, fmt.Errorf("nfe: la base de la chave debe tener %d dígitos, se recibieron %d", AccessKeyLength-1, len(prefix))
	}
	sum := 0
	weight := 2
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("nfe: carácter no numérico %q en la posición %d", c, i)
		}
		sum += int(c-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder == 0 || remainder == 1 {
		return 0, nil
	}
	return 11 - remainder, nil
}

// ValidateAccessKey verifica largo, dígitos y DV de una chave completa.
func ValidateAccessKey(key string) error {
	if len(key) != AccessKeyLength {
		return fmt.Errorf("nfe: la chave debe tener %d dígitos, se recibieron %d", AccessKeyLength, len(key))
	}
	expected, err := CheckDigit(key[:AccessKeyLength-1])
	if err != nil {
		return err
	}
	got := key[AccessKeyLength-1]
	if got < '0' || got > '9' {
		return fmt.Errorf("nfe: DV no numérico %q", got)
	}
	if int(got-'0') != expected {
		return fmt.Errorf("nfe: DV inválido: esperado %d, recibido %c", expected, got)
	}
	return nil
}

// OnlyDigits deja solo dígitos (CNPJ, CPF, CEP).
func OnlyDigits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}
