package emission

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItemResult resultado de una emisión dentro del lote. Err solo se llena con errores
// previos a la persistencia (BuildError, SigningError, configuración).
type BatchItemResult struct {
	Index   int
	SaleRef string
	Result  *IssueResult
	Err     error
}

// IssueBatch emite cada documento de forma independiente con concurrencia acotada.
// Un fallo nunca aborta a los demás; el orden de salida es el de entrada.
func (o *NFeOrchestrator) IssueBatch(ctx context.Context, reqs []IssueRequest) []BatchItemResult {
	results := make([]BatchItemResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(o.cfg.BatchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := o.Issue(ctx, req)
			results[i] = BatchItemResult{Index: i, SaleRef: req.SaleRef, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
