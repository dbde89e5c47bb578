package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	"github.com/jhoicas/NFe-api/internal/domain/repository"
)

var _ repository.IssuerRepository = (*IssuerRepo)(nil)

// IssuerRepo implementación de IssuerRepository (usable con pool o tx).
type IssuerRepo struct {
	q Querier
}

// NewIssuerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIssuerRepository(q Querier) *IssuerRepo {
	return &IssuerRepo{q: q}
}

const issuerColumns = `id, cnpj, legal_name, COALESCE(trade_name, ''), state_registration, tax_regime,
	       address, state_code, series, next_number, is_active, created_at, updated_at`

// GetActive devuelve el perfil activo o nil si no hay ninguno.
func (r *IssuerRepo) GetActive(ctx context.Context) (*entity.IssuerProfile, error) {
	query := `SELECT ` + issuerColumns + ` FROM issuer_profiles WHERE is_active = TRUE LIMIT 1`
	return r.scanOne(ctx, query)
}

// LockActive lee el perfil activo con SELECT ... FOR UPDATE. Solo tiene sentido dentro de una tx.
func (r *IssuerRepo) LockActive(ctx context.Context) (*entity.IssuerProfile, error) {
	query := `SELECT ` + issuerColumns + ` FROM issuer_profiles WHERE is_active = TRUE LIMIT 1 FOR UPDATE`
	return r.scanOne(ctx, query)
}

// AdvanceSequence avanza next_number en uno con control optimista sobre el valor esperado.
func (r *IssuerRepo) AdvanceSequence(ctx context.Context, issuerID string, expected int64) error {
	query := `
		UPDATE issuer_profiles
		SET next_number = next_number + 1, updated_at = NOW()
		WHERE id = $1 AND next_number = $2`
	tag, err := r.q.Exec(ctx, query, issuerID, expected)
	if err != nil {
		return fmt.Errorf("advance sequence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("advance sequence (esperado %d): %w", expected, domain.ErrConflict)
	}
	return nil
}

func (r *IssuerRepo) scanOne(ctx context.Context, query string) (*entity.IssuerProfile, error) {
	var p entity.IssuerProfile
	var addr []byte
	err := r.q.QueryRow(ctx, query).Scan(
		&p.ID, &p.CNPJ, &p.LegalName, &p.TradeName, &p.StateRegistration, &p.TaxRegime,
		&addr, &p.StateCode, &p.Series, &p.NextNumber, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get issuer profile: %w", err)
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &p.Address); err != nil {
			return nil, fmt.Errorf("issuer address: %w", err)
		}
	}
	return &p, nil
}
