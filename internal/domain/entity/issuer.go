package entity

import "time"

// IssuerProfile perfil del emisor (emit). Existe un único perfil activo por despliegue;
// solo cambia por configuración o cuando el orquestador avanza NextNumber tras una autorización.
type IssuerProfile struct {
	ID                string
	CNPJ              string // 14 dígitos
	LegalName         string // xNome
	TradeName         string // xFant
	StateRegistration string // IE
	TaxRegime         string // CRT
	Address           Address
	StateCode         string // cUF (IBGE, ej: "35")
	Series            int
	NextNumber        int64
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
