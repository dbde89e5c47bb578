package entity

// Recipient destinatario (dest). CNPJ y CPF son excluyentes.
// Inmutable durante la vida de un documento.
type Recipient struct {
	Name              string
	CNPJ              string
	CPF               string
	Address           Address
	StateRegistration string
	Email             string
	IEIndicator       string // indIEDest: 1, 2 o 9
}
