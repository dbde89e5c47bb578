package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	"github.com/jhoicas/NFe-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID obtiene un cliente. El endereço se devuelve tal como está guardado (texto JSON).
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	query := `
		SELECT id, name, tax_id, state_registration, email, address::text, created_at, updated_at
		FROM clients WHERE id = $1`
	var c entity.Client
	var ie, email, addr *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TaxID, &ie, &email, &addr, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.StateRegistration = derefStr(ie)
	c.Email = derefStr(email)
	c.AddressJSON = derefStr(addr)
	return &c, nil
}
