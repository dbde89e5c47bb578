package repository

import (
	"context"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
)

// DocumentRepository puerto de persistencia de los documentos emitidos.
// Los registros no se actualizan: cada emisión produce una fila.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByAccessKey(ctx context.Context, accessKey string) (*entity.Document, error)
	ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.Document, error)
}
