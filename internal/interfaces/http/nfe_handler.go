package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/NFe-api/internal/application/dto"
	"github.com/jhoicas/NFe-api/internal/application/emission"
	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
)

// MaxBatchDocuments tope de documentos por POST /api/nfe/batch.
const MaxBatchDocuments = 100

// nfeService contrato que usa el handler; lo implementa *emission.NFeOrchestrator.
type nfeService interface {
	Issue(ctx context.Context, req emission.IssueRequest) (*emission.IssueResult, error)
	IssueBatch(ctx context.Context, reqs []emission.IssueRequest) []emission.BatchItemResult
	GetByAccessKey(ctx context.Context, accessKey string) (*entity.Document, error)
	ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.Document, error)
}

// NFeHandler maneja la emisión y consulta de NF-e (protegido).
type NFeHandler struct {
	svc nfeService
}

// NewNFeHandler construye el handler.
func NewNFeHandler(svc nfeService) *NFeHandler {
	return &NFeHandler{svc: svc}
}

// Issue emite un documento para una venta.
// @Summary      Emitir NF-e
// @Description  Construye, firma y transmite la NF-e de una venta. Sin certificado devuelve un documento simulado.
// @Tags         nfe
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IssueNFeRequest  true  "Venta a facturar"
// @Success      201   {object}  dto.NFeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/nfe [post]
func (h *NFeHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueNFeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	req, err := in.ToIssueRequest()
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.Issue(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	requestLogger(c).Info().
		Str("client_id", GetClientID(c)).
		Str("access_key", res.AccessKey).
		Str("status", res.Status).
		Msg("nfe emitida")
	return c.Status(fiber.StatusCreated).JSON(dto.NewNFeResponse(res))
}

// IssueBatch emite varios documentos; cada uno se informa por separado.
// @Summary      Emitir NF-e en lote
// @Tags         nfe
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IssueNFeBatchRequest  true  "Entre 1 y 100 documentos"
// @Success      200   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/nfe/batch [post]
func (h *NFeHandler) IssueBatch(c *fiber.Ctx) error {
	var in dto.IssueNFeBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Documents) == 0 || len(in.Documents) > MaxBatchDocuments {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el lote debe tener entre 1 y 100 documentos"})
	}

	out := dto.BatchResponse{Results: make([]dto.BatchItemResponse, len(in.Documents))}
	reqs := make([]emission.IssueRequest, 0, len(in.Documents))
	positions := make([]int, 0, len(in.Documents))
	for i, d := range in.Documents {
		out.Results[i] = dto.BatchItemResponse{Index: i, SaleRef: d.SaleRef}
		req, err := d.ToIssueRequest()
		if err != nil {
			_, resp := errorResponse(err)
			out.Results[i].Error = &resp
			continue
		}
		reqs = append(reqs, req)
		positions = append(positions, i)
	}

	for j, r := range h.svc.IssueBatch(c.Context(), reqs) {
		item := &out.Results[positions[j]]
		if r.Err != nil {
			_, resp := errorResponse(r.Err)
			item.Error = &resp
			continue
		}
		res := dto.NewNFeResponse(r.Result)
		item.Result = &res
	}
	return c.JSON(out)
}

// GetByAccessKey devuelve un documento registrado. Con ?format=xml devuelve el XML firmado.
// @Summary      Consultar NF-e por chave de acesso
// @Tags         nfe
// @Security     Bearer
// @Produce      json
// @Produce      xml
// @Param        accessKey  path      string  true   "Chave de 44 dígitos"
// @Param        format     query     string  false  "xml para el documento firmado"
// @Success      200        {object}  dto.NFeResponse
// @Failure      401        {object}  dto.ErrorResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/nfe/{accessKey} [get]
func (h *NFeHandler) GetByAccessKey(c *fiber.Ctx) error {
	doc, err := h.svc.GetByAccessKey(c.Context(), c.Params("accessKey"))
	if err != nil {
		return writeError(c, err)
	}
	if c.Query("format") == "xml" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
		return c.SendString(doc.SignedXML)
	}
	return c.JSON(dto.NewDocumentResponse(doc))
}

// ListBySaleRef lista los intentos de emisión de una venta.
// @Summary      Listar NF-e de una venta
// @Tags         nfe
// @Security     Bearer
// @Produce      json
// @Param        sale_ref  query     string  true  "Referencia de la venta"
// @Success      200       {array}   dto.NFeResponse
// @Failure      401       {object}  dto.ErrorResponse
// @Router       /api/nfe [get]
func (h *NFeHandler) ListBySaleRef(c *fiber.Ctx) error {
	docs, err := h.svc.ListBySaleRef(c.Context(), c.Query("sale_ref"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.NFeResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.NewDocumentResponse(d))
	}
	return c.JSON(out)
}

func writeError(c *fiber.Ctx, err error) error {
	status, resp := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		requestLogger(c).Error().Err(err).Msg("nfe: error interno")
	}
	return c.Status(status).JSON(resp)
}

// errorResponse traduce la taxonomía de errores de emisión a HTTP.
func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		buildErr  *domainnfe.BuildError
		regionErr *domainnfe.UnsupportedRegionError
		signErr   *domainnfe.SigningError
		credErr   *domainnfe.CredentialError
	)
	switch {
	case errors.As(err, &buildErr):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error(), Field: buildErr.Field}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &regionErr):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "UNSUPPORTED_REGION", Message: err.Error()}
	case errors.Is(err, domain.ErrNoIssuer):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "NO_ISSUER", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.As(err, &signErr):
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "SIGNING_FAILED", Message: err.Error()}
	case errors.As(err, &credErr):
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "CREDENTIALS", Message: "credenciales del emisor no disponibles"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}
