package emission

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
)

// simulate registra un documento simulada: chave con los datos del emisor y nNF/cNF aleatorios,
// XML mínimo, sin firma ni envío. El contador no se toca.
func (o *NFeOrchestrator) simulate(ctx context.Context, req IssueRequest, log zerolog.Logger) (*IssueResult, error) {
	var issuer *entity.IssuerProfile
	if o.deps.Issuers != nil {
		var err error
		issuer, err = o.deps.Issuers.GetActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("emission: leer emisor: %w", err)
		}
	}
	issuedAt := domainnfe.IssueTime(o.now())
	key, err := domainnfe.SimulatedAccessKey(issuer, issuedAt)
	if err != nil {
		return nil, err
	}
	xmlBytes, err := o.deps.Builder.BuildPlaceholder(key, domainnfe.SumTotals(req.Items))
	if err != nil {
		return nil, err
	}

	const msg = "modo simulación: documento sin firma ni transmisión"
	doc := &entity.Document{
		SaleRef:   req.SaleRef,
		AccessKey: key.String(),
		Number:    key.Number(),
		SignedXML: string(xmlBytes),
		Status:    entity.StatusSimulated,
		Message:   msg,
		IssuedAt:  issuedAt,
	}
	if o.deps.Documents != nil {
		if err := o.deps.Documents.Create(context.WithoutCancel(ctx), doc); err != nil {
			return nil, fmt.Errorf("emission: registrar documento simulado: %w", err)
		}
	}
	o.deps.Metrics.IncDocument(entity.StatusSimulated)
	log.Info().Str("access_key", doc.AccessKey).Str("status", doc.Status).Msg("nfe: documento simulado")

	return &IssueResult{
		AccessKey: doc.AccessKey,
		SignedXML: doc.SignedXML,
		Status:    doc.Status,
		Message:   msg,
		Number:    doc.Number,
		Document:  doc,
	}, nil
}
