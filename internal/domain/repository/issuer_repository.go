package repository

import (
	"context"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
)

// IssuerRepository puerto de persistencia del perfil del emisor y su contador de numeración.
type IssuerRepository interface {
	// GetActive devuelve el perfil activo (nil, nil si no existe).
	GetActive(ctx context.Context) (*entity.IssuerProfile, error)
	// LockActive igual que GetActive pero bloquea la fila hasta el fin de la transacción.
	LockActive(ctx context.Context) (*entity.IssuerProfile, error)
	// AdvanceSequence incrementa next_number solo si sigue valiendo expected.
	// Devuelve domain.ErrConflict si otro proceso lo avanzó antes.
	AdvanceSequence(ctx context.Context, issuerID string, expected int64) error
}
