package repository

import (
	"context"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
)

// ClientRepository lectura de clientes registrados por el sistema de ventas.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Client, error)
}
