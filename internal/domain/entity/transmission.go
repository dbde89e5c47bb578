package entity

// TransmissionResult resultado de un intento de autorización. Los errores de transporte
// llegan como Status = StatusError, nunca como error de Go.
type TransmissionResult struct {
	Status        string
	Protocol      string // nProt
	StatusCode    string // cStat
	Message       string // xMotivo o descripción del error
	ReceiptNumber string // nRec (procesamiento asíncrono)
}
