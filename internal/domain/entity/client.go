package entity

import "time"

// Client cliente registrado por el sistema de ventas. AddressJSON llega pre-serializado
// y se convierte a Address antes de construir el documento.
type Client struct {
	ID                string
	Name              string
	TaxID             string // CNPJ o CPF
	StateRegistration string
	Email             string
	AddressJSON       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
