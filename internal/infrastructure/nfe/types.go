// Package nfe implementa la construcción del XML de la NF-e 4.00, su transmisión al web service
// de autorização de la SEFAZ y (en signer/) la firma XMLDSig.
package nfe

import (
	"time"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
)

// BuildContext todo lo necesario para construir el documento sin firma.
// nNF, serie, tpEmis, cNF y cDV se toman de la chave para que no puedan divergir.
type BuildContext struct {
	AccessKey  domainnfe.AccessKey
	Issuer     *entity.IssuerProfile
	Recipient  entity.Recipient
	Items      []entity.LineItem
	IssuedAt   time.Time // dhEmi, ya en horario de Brasília
	Production bool

	// Opcionales
	NatureOfOperation string // natOp (default VENDA DE MERCADORIA)
	PaymentType       string // tPag (default 01 = dinheiro)
	AdditionalInfo    string // infAdic/infCpl
	AppVersion        string // verProc
}
