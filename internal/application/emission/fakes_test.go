package emission_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	"github.com/jhoicas/NFe-api/internal/domain/repository"
	infranfe "github.com/jhoicas/NFe-api/internal/infrastructure/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// memStore base en memoria. txMu serializa las transacciones como lo haría el FOR UPDATE.
type memStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	issuer  *entity.IssuerProfile
	docs    []*entity.Document
	clients map[string]*entity.Client
}

func newMemStore(issuer *entity.IssuerProfile) *memStore {
	return &memStore{issuer: issuer, clients: map[string]*entity.Client{}}
}

func (s *memStore) RunIssuance(ctx context.Context, fn func(repository.IssuerRepository, repository.DocumentRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	var snapshot *entity.IssuerProfile
	if s.issuer != nil {
		cp := *s.issuer
		snapshot = &cp
	}
	docCount := len(s.docs)
	s.mu.Unlock()

	if err := fn(&memIssuers{s}, &memDocuments{s}); err != nil {
		s.mu.Lock()
		s.issuer = snapshot
		s.docs = s.docs[:docCount]
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) nextNumber() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issuer.NextNumber
}

func (s *memStore) documents() []*entity.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Document(nil), s.docs...)
}

type memIssuers struct{ s *memStore }

func (r *memIssuers) GetActive(ctx context.Context) (*entity.IssuerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.issuer == nil {
		return nil, nil
	}
	cp := *r.s.issuer
	return &cp, nil
}

func (r *memIssuers) LockActive(ctx context.Context) (*entity.IssuerProfile, error) {
	return r.GetActive(ctx)
}

func (r *memIssuers) AdvanceSequence(ctx context.Context, issuerID string, expected int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.issuer == nil || r.s.issuer.ID != issuerID || r.s.issuer.NextNumber != expected {
		return domain.ErrConflict
	}
	r.s.issuer.NextNumber++
	return nil
}

type memDocuments struct{ s *memStore }

func (r *memDocuments) Create(ctx context.Context, doc *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.docs {
		if d.AccessKey == doc.AccessKey {
			return domain.ErrDuplicate
		}
	}
	doc.ID = fmt.Sprintf("doc-%d", len(r.s.docs)+1)
	cp := *doc
	r.s.docs = append(r.s.docs, &cp)
	return nil
}

func (r *memDocuments) GetByAccessKey(ctx context.Context, key string) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.docs {
		if d.AccessKey == key {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memDocuments) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.s.docs {
		if d.SaleRef == saleRef {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memClients struct{ s *memStore }

func (r *memClients) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.clients[id], nil
}

// fakeBuilder produce un XML mínimo con la chave; err fuerza un fallo de construcción.
type fakeBuilder struct {
	err          error
	calls        atomic.Int32
	placeholders atomic.Int32
	last         atomic.Pointer[infranfe.BuildContext]
}

func (b *fakeBuilder) Build(ctx *infranfe.BuildContext) ([]byte, error) {
	b.calls.Add(1)
	b.last.Store(ctx)
	if b.err != nil {
		return nil, b.err
	}
	return []byte(`<NFe xmlns="` + pkgnfe.Namespace + `"><infNFe Id="NFe` + ctx.AccessKey.String() + `"></infNFe></NFe>`), nil
}

func (b *fakeBuilder) BuildPlaceholder(key domainnfe.AccessKey, total decimal.Decimal) ([]byte, error) {
	b.placeholders.Add(1)
	return []byte(`<NFe><infNFe Id="NFe` + key.String() + `"><vNF>` + total.StringFixed(2) + `</vNF></infNFe></NFe>`), nil
}

type fakeSigner struct {
	err   error
	calls atomic.Int32
}

func (s *fakeSigner) Sign(xmlBytes []byte, creds *pkgnfe.Credentials) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := string(xmlBytes)
	return []byte(out[:len(out)-len("</NFe>")] + "<Signature></Signature></NFe>"), nil
}

type fakeAuthorizer struct {
	result entity.TransmissionResult
	err    error
	calls  atomic.Int32
}

func (a *fakeAuthorizer) Authorize(ctx context.Context, signedXML []byte, stateCode string, production bool) (entity.TransmissionResult, error) {
	a.calls.Add(1)
	if a.err != nil {
		return entity.TransmissionResult{}, a.err
	}
	return a.result, nil
}
