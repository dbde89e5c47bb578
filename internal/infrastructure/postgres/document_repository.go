package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	"github.com/jhoicas/NFe-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create persiste el documento. Una chave repetida es ErrDuplicate.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	query := `
		INSERT INTO nfe_documents (id, sale_ref, access_key, number, signed_xml, status, protocol, message, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.SaleRef, doc.AccessKey, doc.Number, doc.SignedXML, doc.Status,
		nullIfEmpty(doc.Protocol), nullIfEmpty(doc.Message), doc.IssuedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("nfe document %s: %w", doc.AccessKey, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert nfe document: %w", err)
	}
	return nil
}

const documentColumns = `id, sale_ref, access_key, number, signed_xml, status, protocol, message, issued_at`

// GetByAccessKey devuelve el documento o nil si no existe.
func (r *DocumentRepo) GetByAccessKey(ctx context.Context, accessKey string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM nfe_documents WHERE access_key = $1`
	doc, err := scanDocument(r.q.QueryRow(ctx, query, accessKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nfe document: %w", err)
	}
	return doc, nil
}

// ListBySaleRef lista los intentos de emisión de una venta, el más reciente primero.
func (r *DocumentRepo) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM nfe_documents WHERE sale_ref = $1 ORDER BY issued_at DESC`
	rows, err := r.q.Query(ctx, query, saleRef)
	if err != nil {
		return nil, fmt.Errorf("list nfe documents: %w", err)
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nfe document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	var protocol, message *string
	if err := row.Scan(
		&d.ID, &d.SaleRef, &d.AccessKey, &d.Number, &d.SignedXML, &d.Status,
		&protocol, &message, &d.IssuedAt,
	); err != nil {
		return nil, err
	}
	d.Protocol = derefStr(protocol)
	d.Message = derefStr(message)
	return &d, nil
}
