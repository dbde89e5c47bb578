package emission

import (
	"context"

	"github.com/shopspring/decimal"

	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	"github.com/jhoicas/NFe-api/internal/domain/repository"
	infranfe "github.com/jhoicas/NFe-api/internal/infrastructure/nfe"
)

// IssuanceTxRunner ejecuta fn dentro de una transacción con los repos de emisión atados a ella.
// Si fn devuelve error se hace rollback: ni el documento ni el avance del contador quedan persistidos.
type IssuanceTxRunner interface {
	RunIssuance(ctx context.Context, fn func(
		issuerRepo repository.IssuerRepository,
		documentRepo repository.DocumentRepository,
	) error) error
}

// DocumentBuilder produce el XML canónico sin firma (y el documento simulado).
type DocumentBuilder interface {
	Build(ctx *infranfe.BuildContext) ([]byte, error)
	BuildPlaceholder(key domainnfe.AccessKey, total decimal.Decimal) ([]byte, error)
}

var _ DocumentBuilder = (*infranfe.XMLBuilderService)(nil)
