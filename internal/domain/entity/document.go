package entity

import "time"

// Estados del documento fiscal (persistidos tal cual).
const (
	StatusAuthorized = "autorizada" // Autorizada por la SEFAZ
	StatusRejected   = "rejeitada"  // Rechazada o denegada
	StatusSimulated  = "simulada"   // Modo simulación: sin firma ni envío
	StatusPending    = "pendente"   // Lote recibido, procesamiento asíncrono
	StatusError      = "erro"       // Falla de transporte o respuesta ilegible
)

// Document registro persistido de una emisión. Se crea una sola vez por documento construido
// y no se modifica fuera de un flujo explícito de cancelación/corrección.
type Document struct {
	ID        string
	SaleRef   string
	AccessKey string // 44 dígitos
	Number    int64
	SignedXML string
	Status    string
	Protocol  string // nProt devuelto por la SEFAZ
	Message   string
	IssuedAt  time.Time
}
