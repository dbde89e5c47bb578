package emission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	"github.com/jhoicas/NFe-api/internal/domain/repository"
	"github.com/jhoicas/NFe-api/internal/infrastructure/metrics"
	infranfe "github.com/jhoicas/NFe-api/internal/infrastructure/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// Config parámetros de emisión leídos de la configuración (NFE_*).
type Config struct {
	Production       bool
	Simulation       bool          // sin contraseña de certificado: no firma ni transmite
	Timeout          time.Duration // timeout de la transmisión
	BatchConcurrency int
	AppVersion       string
}

// Deps dependencias del orquestador.
type Deps struct {
	TxRunner    IssuanceTxRunner
	Issuers     repository.IssuerRepository // lectura fuera de transacción (modo simulación)
	Clients     repository.ClientRepository
	Documents   repository.DocumentRepository
	Builder     DocumentBuilder
	Signer      pkgnfe.Signer
	Authorizer  infranfe.Authorizer
	Credentials *pkgnfe.Credentials // nil en simulación
	Metrics     *metrics.Metrics    // opcional
	Logger      zerolog.Logger
}

// IssueRequest una venta a documentar. El destinatario viene del cadastro (ClientID) o inline.
type IssueRequest struct {
	SaleRef           string
	ClientID          string
	Recipient         *domainnfe.RecipientInput
	Items             []entity.LineItem
	PaymentType       string
	AdditionalInfo    string
	NatureOfOperation string
}

// IssueResult lo que ve el caller: {accessKey, signedXML, status, message} más el registro persistido.
type IssueResult struct {
	AccessKey    string
	SignedXML    string
	Status       string
	Message      string
	Protocol     string
	Number       int64
	Document     *entity.Document
	Transmission entity.TransmissionResult
}

// NFeOrchestrator orquesta el ciclo de emisión:
//
//	chave → XML → firma → autorização SEFAZ → registro (+ avance del contador)
//
// En producción toda la secuencia corre dentro de una transacción que bloquea la fila del emisor,
// así dos emisiones concurrentes nunca toman el mismo nNF.
type NFeOrchestrator struct {
	deps       Deps
	cfg        Config
	keys       *domainnfe.AccessKeyGenerator
	now        func() time.Time
	randomCode func(number int64) (int, error)
}

// NewNFeOrchestrator valida la configuración: fuera de simulación las credenciales son obligatorias.
func NewNFeOrchestrator(deps Deps, cfg Config) (*NFeOrchestrator, error) {
	if !cfg.Simulation && deps.Credentials == nil {
		return nil, &domainnfe.CredentialError{Reason: "credenciales no cargadas fuera de simulación"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	return &NFeOrchestrator{
		deps:       deps,
		cfg:        cfg,
		keys:       domainnfe.NewAccessKeyGenerator(),
		now:        time.Now,
		randomCode: domainnfe.NewRandomCode,
	}, nil
}

// SetClock reemplaza el reloj (tests).
func (o *NFeOrchestrator) SetClock(now func() time.Time) { o.now = now }

// Issue emite un documento. Los BuildError/SigningError vuelven antes de persistir; erro y rejeitada
// se persisten y vuelven como resultado sin error.
func (o *NFeOrchestrator) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	log := o.deps.Logger.With().Str("sale_ref", req.SaleRef).Logger()

	recipient, err := o.prepare(ctx, req)
	if err != nil {
		if domainnfe.IsBuildError(err) {
			o.deps.Metrics.IncBuildFailure()
		}
		log.Warn().Err(err).Str("step", "building").Msg("nfe: datos inválidos")
		return nil, err
	}

	if o.cfg.Simulation {
		return o.simulate(ctx, req, log)
	}

	// Una vez firmado y transmitido, el documento se registra aunque el caller se haya ido.
	txCtx := context.WithoutCancel(ctx)
	var result *IssueResult
	err = o.deps.TxRunner.RunIssuance(txCtx, func(issuers repository.IssuerRepository, docs repository.DocumentRepository) error {
		r, err := o.issueLocked(txCtx, issuers, docs, req, recipient, log)
		result = r
		return err
	})
	if err != nil {
		if result != nil && result.Status != "" {
			// Transmitido pero no registrado: queda solo en el log.
			log.Error().Err(err).
				Str("access_key", result.AccessKey).
				Str("status", result.Status).
				Str("protocol", result.Protocol).
				Msg("nfe: documento transmitido sin registrar")
		}
		if domainnfe.IsBuildError(err) || isSigningError(err) {
			o.deps.Metrics.IncBuildFailure()
		}
		return nil, err
	}

	o.deps.Metrics.IncDocument(result.Status)
	log.Info().
		Str("access_key", result.AccessKey).
		Int64("number", result.Number).
		Str("status", result.Status).
		Str("step", "recorded").
		Msg("nfe: documento registrado")
	return result, nil
}

// prepare valida la entrada y resuelve el destinatario.
func (o *NFeOrchestrator) prepare(ctx context.Context, req IssueRequest) (entity.Recipient, error) {
	if strings.TrimSpace(req.SaleRef) == "" {
		return entity.Recipient{}, domainnfe.NewBuildError("sale_ref", "obligatorio")
	}
	recipient, err := o.resolveRecipient(ctx, req)
	if err != nil {
		return entity.Recipient{}, err
	}
	if err := domainnfe.ValidateLineItems(req.Items); err != nil {
		return entity.Recipient{}, err
	}
	return recipient, nil
}

func (o *NFeOrchestrator) resolveRecipient(ctx context.Context, req IssueRequest) (entity.Recipient, error) {
	if req.ClientID != "" {
		if o.deps.Clients == nil {
			return entity.Recipient{}, fmt.Errorf("emission: cadastro de clientes no configurado")
		}
		c, err := o.deps.Clients.GetByID(ctx, req.ClientID)
		if err != nil {
			return entity.Recipient{}, fmt.Errorf("emission: obtener cliente: %w", err)
		}
		if c == nil {
			return entity.Recipient{}, fmt.Errorf("cliente %s: %w", req.ClientID, domain.ErrNotFound)
		}
		addr, err := domainnfe.ParseAddress("enderDest", c.AddressJSON)
		if err != nil {
			return entity.Recipient{}, err
		}
		return domainnfe.BuildRecipient(domainnfe.RecipientInput{
			Name:              c.Name,
			TaxID:             c.TaxID,
			StateRegistration: c.StateRegistration,
			Email:             c.Email,
			Address:           addr,
		})
	}
	if req.Recipient == nil {
		return entity.Recipient{}, domainnfe.NewBuildError("dest", "informar client_id o los datos del destinatario")
	}
	return domainnfe.BuildRecipient(*req.Recipient)
}

// issueLocked corre dentro de la transacción: building → signing → transmitting → recorded.
func (o *NFeOrchestrator) issueLocked(
	ctx context.Context,
	issuers repository.IssuerRepository,
	docs repository.DocumentRepository,
	req IssueRequest,
	recipient entity.Recipient,
	log zerolog.Logger,
) (*IssueResult, error) {
	issuer, err := issuers.LockActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("emission: bloquear emisor: %w", err)
	}
	if issuer == nil {
		return nil, domain.ErrNoIssuer
	}
	number := issuer.NextNumber

	// building
	issuedAt := domainnfe.IssueTime(o.now())
	code, err := o.randomCode(number)
	if err != nil {
		return nil, err
	}
	key, err := o.keys.Generate(domainnfe.AccessKeyFields{
		StateCode:    issuer.StateCode,
		Year:         issuedAt.Year() % 100,
		Month:        int(issuedAt.Month()),
		CNPJ:         issuer.CNPJ,
		Model:        pkgnfe.ModelNFe,
		Series:       issuer.Series,
		Number:       number,
		EmissionType: pkgnfe.EmissionNormal,
		RandomCode:   code,
	})
	if err != nil {
		return nil, err
	}
	log = log.With().Str("access_key", key.String()).Int64("number", number).Logger()

	unsigned, err := o.deps.Builder.Build(&infranfe.BuildContext{
		AccessKey:         key,
		Issuer:            issuer,
		Recipient:         recipient,
		Items:             req.Items,
		IssuedAt:          issuedAt,
		Production:        o.cfg.Production,
		NatureOfOperation: req.NatureOfOperation,
		PaymentType:       req.PaymentType,
		AdditionalInfo:    req.AdditionalInfo,
		AppVersion:        o.cfg.AppVersion,
	})
	if err != nil {
		log.Warn().Err(err).Str("step", "building").Msg("nfe: construcción rechazada")
		return nil, err
	}

	// signing
	signed, err := o.deps.Signer.Sign(unsigned, o.deps.Credentials)
	if err != nil {
		log.Error().Err(err).Str("step", "signing").Msg("nfe: firma fallida")
		return nil, err
	}

	// transmitting
	tctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	start := time.Now()
	tr, err := o.deps.Authorizer.Authorize(tctx, signed, issuer.StateCode, o.cfg.Production)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("step", "transmitting").Msg("nfe: sin endpoint de autorização")
		return nil, err
	}
	o.deps.Metrics.ObserveTransmission(tr.Status, start)

	result := &IssueResult{
		AccessKey:    key.String(),
		SignedXML:    string(signed),
		Status:       tr.Status,
		Message:      tr.Message,
		Protocol:     tr.Protocol,
		Number:       number,
		Transmission: tr,
	}

	// recorded
	doc := &entity.Document{
		SaleRef:   req.SaleRef,
		AccessKey: key.String(),
		Number:    number,
		SignedXML: string(signed),
		Status:    tr.Status,
		Protocol:  tr.Protocol,
		Message:   tr.Message,
		IssuedAt:  issuedAt,
	}
	if err := docs.Create(ctx, doc); err != nil {
		return result, fmt.Errorf("emission: registrar documento: %w", err)
	}
	result.Document = doc

	if o.consumesNumber(tr.Status) {
		if err := issuers.AdvanceSequence(ctx, issuer.ID, number); err != nil {
			return result, fmt.Errorf("emission: avanzar numeración: %w", err)
		}
	}
	return result, nil
}

// consumesNumber solo en producción. pendente también reserva el número: el lote todavía puede autorizarse.
func (o *NFeOrchestrator) consumesNumber(status string) bool {
	if !o.cfg.Production {
		return false
	}
	return status == entity.StatusAuthorized || status == entity.StatusPending
}

func isSigningError(err error) bool {
	var se *domainnfe.SigningError
	return errors.As(err, &se)
}
