package emission

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// GetByAccessKey devuelve un documento registrado.
func (o *NFeOrchestrator) GetByAccessKey(ctx context.Context, accessKey string) (*entity.Document, error) {
	if err := pkgnfe.ValidateAccessKey(accessKey); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	doc, err := o.deps.Documents.GetByAccessKey(ctx, accessKey)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// ListBySaleRef devuelve los intentos de emisión de una venta.
func (o *NFeOrchestrator) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.Document, error) {
	if strings.TrimSpace(saleRef) == "" {
		return nil, fmt.Errorf("%w: sale_ref obligatorio", domain.ErrInvalidInput)
	}
	docs, err := o.deps.Documents.ListBySaleRef(ctx, saleRef)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*entity.Document{}
	}
	return docs, nil
}
