// Package nfe contiene las reglas de dominio de la NF-e: chave de acesso, normalización de
// endereços y validación de los datos de entrada antes de construir el XML.
package nfe

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// AccessKey chave de acesso de 44 dígitos con DV válido.
type AccessKey string

// String implementa fmt.Stringer.
func (k AccessKey) String() string { return string(k) }

// CheckDigit devuelve el DV (último dígito).
func (k AccessKey) CheckDigit() int {
	if len(k) != pkgnfe.AccessKeyLength {
		return -1
	}
	return int(k[pkgnfe.AccessKeyLength-1] - '0')
}

// RandomCode devuelve cNF (posiciones 36..43).
func (k AccessKey) RandomCode() string { return k.part(35, 43) }

// part devuelve k[from:to]; vacío si la chave no tiene 44 dígitos.
func (k AccessKey) part(from, to int) string {
	if len(k) != pkgnfe.AccessKeyLength {
		return ""
	}
	return string(k[from:to])
}

// StateCode cUF.
func (k AccessKey) StateCode() string { return k.part(0, 2) }

// YearMonth AAMM.
func (k AccessKey) YearMonth() string { return k.part(2, 6) }

// CNPJ del emisor.
func (k AccessKey) CNPJ() string { return k.part(6, 20) }

// Model mod (55 o 65).
func (k AccessKey) Model() string { return k.part(20, 22) }

// Series serie sin ceros a la izquierda.
func (k AccessKey) Series() int {
	n, _ := strconv.Atoi(k.part(22, 25))
	return n
}

// Number nNF.
func (k AccessKey) Number() int64 {
	n, _ := strconv.ParseInt(k.part(25, 34), 10, 64)
	return n
}

// EmissionType tpEmis.
func (k AccessKey) EmissionType() string { return k.part(34, 35) }

// AccessKeyFields campos de la chave en el orden del layout.
type AccessKeyFields struct {
	StateCode    string // cUF, 2 dígitos
	Year         int    // AA
	Month        int    // MM
	CNPJ         string // 14 dígitos
	Model        string // mod, 2 dígitos
	Series       int    // 3 dígitos
	Number       int64  // nNF, 9 dígitos
	EmissionType string // tpEmis, 1 dígito
	RandomCode   int    // cNF, 8 dígitos
}

// AccessKeyGenerator arma la chave y su DV.
type AccessKeyGenerator struct{}

// NewAccessKeyGenerator crea el generador.
func NewAccessKeyGenerator() *AccessKeyGenerator {
	return &AccessKeyGenerator{}
}

// Generate devuelve la chave de 44 dígitos. Mismos campos → misma chave.
func (g *AccessKeyGenerator) Generate(f AccessKeyFields) (AccessKey, error) {
	uf := pkgnfe.OnlyDigits(f.StateCode)
	if len(uf) != 2 {
		return "", NewBuildError("cUF", "debe tener 2 dígitos")
	}
	if f.Year < 0 || f.Year > 99 {
		return "", NewBuildError("AAMM", "año fuera de rango")
	}
	if f.Month < 1 || f.Month > 12 {
		return "", NewBuildError("AAMM", "mes fuera de rango")
	}
	cnpj := pkgnfe.OnlyDigits(f.CNPJ)
	if len(cnpj) != 14 {
		return "", NewBuildError("CNPJ", "el emisor debe tener CNPJ de 14 dígitos")
	}
	model := pkgnfe.OnlyDigits(f.Model)
	if len(model) != 2 {
		return "", NewBuildError("mod", "debe tener 2 dígitos")
	}
	if f.Series < 0 || f.Series > 999 {
		return "", NewBuildError("serie", "fuera de rango (0-999)")
	}
	if f.Number < 1 || f.Number > 999999999 {
		return "", NewBuildError("nNF", "fuera de rango (1-999999999)")
	}
	if len(f.EmissionType) != 1 || f.EmissionType[0] < '0' || f.EmissionType[0] > '9' {
		return "", NewBuildError("tpEmis", "debe ser un dígito")
	}
	if f.RandomCode < 0 || f.RandomCode > 99999999 {
		return "", NewBuildError("cNF", "fuera de rango (8 dígitos)")
	}

	prefix := fmt.Sprintf("%s%02d%02d%s%s%03d%09d%s%08d",
		uf, f.Year, f.Month, cnpj, model, f.Series, f.Number, f.EmissionType, f.RandomCode)
	dv, err := pkgnfe.CheckDigit(prefix)
	if err != nil {
		return "", fmt.Errorf("nfe: calcular DV: %w", err)
	}
	return AccessKey(prefix + strconv.Itoa(dv)), nil
}

// NewRandomCode genera cNF aleatorio de 8 dígitos. La SEFAZ rechaza cNF igual a nNF.
func NewRandomCode(number int64) (int, error) {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(100000000))
		if err != nil {
			return 0, fmt.Errorf("nfe: generar cNF: %w", err)
		}
		if n.Int64() != number {
			return int(n.Int64()), nil
		}
	}
}

// SimulatedAccessKey chave del modo simulación: cUF, AAMM, CNPJ y serie del emisor, mod 55 y
// tpEmis normal; solo nNF y cNF son aleatorios. Sin emisor se usa SP y CNPJ en ceros.
func SimulatedAccessKey(issuer *entity.IssuerProfile, issuedAt time.Time) (AccessKey, error) {
	stateCode, cnpj, series := pkgnfe.StateCodeSP, "00000000000000", 0
	if issuer != nil {
		stateCode, cnpj, series = issuer.StateCode, issuer.CNPJ, issuer.Series
	}
	n, err := rand.Int(rand.Reader, big.NewInt(999999999))
	if err != nil {
		return "", fmt.Errorf("nfe: generar nNF simulado: %w", err)
	}
	number := n.Int64() + 1
	code, err := NewRandomCode(number)
	if err != nil {
		return "", err
	}
	return NewAccessKeyGenerator().Generate(AccessKeyFields{
		StateCode:    stateCode,
		Year:         issuedAt.Year() % 100,
		Month:        int(issuedAt.Month()),
		CNPJ:         cnpj,
		Model:        pkgnfe.ModelNFe,
		Series:       series,
		Number:       number,
		EmissionType: pkgnfe.EmissionNormal,
		RandomCode:   code,
	})
}
