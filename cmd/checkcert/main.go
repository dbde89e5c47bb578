// checkcert diagnostica el certificado A1 configurado antes de pasar a producción:
// abre el .p12, valida la contraseña, muestra titular y vigencia y compara el CNPJ del
// certificado con el del emisor.
//
// Uso: go run ./cmd/checkcert [-cnpj 56421395000150]
// Lee NFE_CERT_PATH y NFE_CERT_PASSWORD de la configuración (.env o entorno).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jhoicas/NFe-api/internal/infrastructure/nfe/signer"
	"github.com/jhoicas/NFe-api/pkg/config"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

func main() {
	cnpj := flag.String("cnpj", "", "CNPJ del emisor a comparar con el certificado")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	if cfg.NFe.Simulation() {
		fmt.Fprintln(os.Stderr, "NFE_CERT_PASSWORD vacío: el servicio corre en modo simulación")
		os.Exit(1)
	}

	fmt.Printf("Leyendo %s\n", cfg.NFe.CertPath)
	creds, err := signer.LoadFromP12(cfg.NFe.CertPath, cfg.NFe.CertPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Certificado: %v\n", err)
		os.Exit(1)
	}

	cert := creds.Certificate
	fmt.Printf("Titular:  %s\n", creds.CommonName)
	fmt.Printf("Emisor:   %s\n", cert.Issuer.CommonName)
	fmt.Printf("Vigencia: %s → %s\n", cert.NotBefore.Format(time.DateOnly), cert.NotAfter.Format(time.DateOnly))

	status := 0
	if remaining := time.Until(cert.NotAfter); remaining <= 0 {
		fmt.Println("Certificado VENCIDO")
		status = 1
	} else if remaining < 30*24*time.Hour {
		fmt.Printf("Atención: vence en %d días\n", int(remaining.Hours()/24))
	}

	if *cnpj != "" {
		want := pkgnfe.OnlyDigits(*cnpj)
		if strings.Contains(pkgnfe.OnlyDigits(creds.CommonName), want) {
			fmt.Printf("CNPJ %s coincide con el certificado\n", want)
		} else {
			fmt.Printf("CNPJ %s NO aparece en el titular del certificado\n", want)
			status = 1
		}
	}
	os.Exit(status)
}
