package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/NFe-api/internal/application/dto"
	"github.com/jhoicas/NFe-api/internal/application/emission"
	"github.com/jhoicas/NFe-api/internal/domain"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	"github.com/jhoicas/NFe-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/NFe-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/NFe-api/pkg/jwt"
)

const testKey = "35250156421395000150550010000000011123456787"

// fakeNFeService registra la última petición y devuelve lo configurado.
type fakeNFeService struct {
	lastReq  emission.IssueRequest
	batchLen int
	issueErr error
	docs     map[string]*entity.Document
}

func (f *fakeNFeService) Issue(ctx context.Context, req emission.IssueRequest) (*emission.IssueResult, error) {
	f.lastReq = req
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &emission.IssueResult{
		AccessKey: testKey,
		SignedXML: "<NFe/>",
		Status:    entity.StatusAuthorized,
		Protocol:  "135250000000001",
		Number:    1,
		Document:  &entity.Document{SaleRef: req.SaleRef},
	}, nil
}

func (f *fakeNFeService) IssueBatch(ctx context.Context, reqs []emission.IssueRequest) []emission.BatchItemResult {
	f.batchLen = len(reqs)
	out := make([]emission.BatchItemResult, len(reqs))
	for i, r := range reqs {
		out[i] = emission.BatchItemResult{Index: i, SaleRef: r.SaleRef}
		if r.SaleRef == "falla" {
			out[i].Err = domainnfe.NewBuildError("det.prod.NCM", "debe tener 8 dígitos")
			continue
		}
		out[i].Result = &emission.IssueResult{AccessKey: testKey, Status: entity.StatusError, Message: "timeout"}
	}
	return out
}

func (f *fakeNFeService) GetByAccessKey(ctx context.Context, key string) (*entity.Document, error) {
	if d, ok := f.docs[key]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNFeService) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range f.docs {
		if d.SaleRef == saleRef {
			out = append(out, d)
		}
	}
	return out, nil
}

func newAPI(svc *fakeNFeService) *fiber.App {
	return newAPIWithLogger(svc, zerolog.Nop())
}

func newAPIWithLogger(svc *fakeNFeService, log zerolog.Logger) *fiber.App {
	app := fiber.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncDocument(entity.StatusAuthorized)
	apphttp.Router(app, apphttp.RouterDeps{
		NFe:       svc,
		Gatherer:  reg,
		Logger:    log,
		JWTSecret: testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

const issueBody = `{
	"sale_ref": "venta-1",
	"recipient": {
		"name": "Cliente Teste",
		"tax_id": "123.456.789-09",
		"address": "{\"logradouro\":\"Rua B\",\"numero\":\"20\",\"bairro\":\"Jardins\",\"codigo_municipio\":\"3550308\",\"municipio\":\"São Paulo\",\"uf\":\"SP\",\"cep\":\"01402000\"}"
	},
	"items": [{"product_code":"P001","description":"Caneta","ncm":"96081000","cfop":"5102","unit":"UN","quantity":"2","unit_value":1.5,"icms_code":"102","pis_code":"07","cofins_code":"07"}]
}`

func TestIssue_Creado(t *testing.T) {
	svc := &fakeNFeService{}
	app := newAPI(svc)

	resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleIssuer, issueBody)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))

	var out dto.NFeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, testKey, out.AccessKey)
	assert.Equal(t, entity.StatusAuthorized, out.Status)
	assert.Equal(t, "venta-1", out.SaleRef)

	require.NotNil(t, svc.lastReq.Recipient)
	assert.Equal(t, "Rua B", svc.lastReq.Recipient.Address.Street, "endereço en string JSON")
	require.Len(t, svc.lastReq.Items, 1)
	assert.Equal(t, "1.5", svc.lastReq.Items[0].UnitValue.String())
}

func TestIssue_EnderecoComoObjeto(t *testing.T) {
	svc := &fakeNFeService{}
	app := newAPI(svc)
	body := `{"sale_ref":"v","recipient":{"name":"X","tax_id":"12345678909","address":{"street":"Rua Z","number":"1","district":"Centro","municipality_code":"3550308","municipality_name":"São Paulo","state":"SP"}},"items":[]}`

	resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleIssuer, body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Rua Z", svc.lastReq.Recipient.Address.Street)
}

func TestIssue_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"construcción", domainnfe.NewBuildError("dest.CNPJ/CPF", "obligatorio"), http.StatusBadRequest, "VALIDATION"},
		{"región", &domainnfe.UnsupportedRegionError{StateCode: "99"}, http.StatusUnprocessableEntity, "UNSUPPORTED_REGION"},
		{"firma", &domainnfe.SigningError{Reason: "x"}, http.StatusInternalServerError, "SIGNING_FAILED"},
		{"cliente", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"sin emisor", domain.ErrNoIssuer, http.StatusConflict, "NO_ISSUER"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newAPI(&fakeNFeService{issueErr: tc.err})
			resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleIssuer, issueBody)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			var out dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tc.code, out.Code)
		})
	}
}

func TestIssue_EnderecoMalformado(t *testing.T) {
	app := newAPI(&fakeNFeService{})
	body := `{"sale_ref":"v","recipient":{"name":"X","tax_id":"12345678909","address":"no es json"},"items":[]}`

	resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleIssuer, body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "enderDest", out.Field)
}

func TestIssue_RolConsultaNoEmite(t *testing.T) {
	app := newAPI(&fakeNFeService{})
	resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleReader, issueBody)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIssueBatch_ResultadosPorDocumento(t *testing.T) {
	svc := &fakeNFeService{}
	app := newAPI(svc)
	body := `{"documents":[
		{"sale_ref":"ok","client_id":"c1","items":[]},
		{"sale_ref":"mal","recipient":{"name":"X","tax_id":"1","address":"{"},"items":[]},
		{"sale_ref":"falla","client_id":"c1","items":[]}
	]}`

	resp := call(t, app, http.MethodPost, "/api/nfe/batch", pkgjwt.RoleIssuer, body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 3)
	assert.Equal(t, 2, svc.batchLen, "el documento con endereço ilegible no llega al orquestador")

	require.NotNil(t, out.Results[0].Result)
	assert.Equal(t, entity.StatusError, out.Results[0].Result.Status)
	require.NotNil(t, out.Results[1].Error)
	assert.Equal(t, "mal", out.Results[1].SaleRef)
	require.NotNil(t, out.Results[2].Error)
	assert.Equal(t, "det.prod.NCM", out.Results[2].Error.Field)
}

func TestIssueBatch_Vacio(t *testing.T) {
	app := newAPI(&fakeNFeService{})
	resp := call(t, app, http.MethodPost, "/api/nfe/batch", pkgjwt.RoleIssuer, `{"documents":[]}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetByAccessKey(t *testing.T) {
	svc := &fakeNFeService{docs: map[string]*entity.Document{
		testKey: {AccessKey: testKey, SaleRef: "venta-1", Status: entity.StatusAuthorized, SignedXML: "<NFe>firmado</NFe>"},
	}}
	app := newAPI(svc)

	resp := call(t, app, http.MethodGet, "/api/nfe/"+testKey, pkgjwt.RoleReader, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.NFeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "venta-1", out.SaleRef)

	xmlResp := call(t, app, http.MethodGet, "/api/nfe/"+testKey+"?format=xml", pkgjwt.RoleReader, "")
	defer xmlResp.Body.Close()
	raw, _ := io.ReadAll(xmlResp.Body)
	assert.Equal(t, "<NFe>firmado</NFe>", string(raw))
	assert.Contains(t, xmlResp.Header.Get("Content-Type"), "application/xml")

	missing := call(t, app, http.MethodGet, "/api/nfe/35250156421395000150550010000000021123456780", pkgjwt.RoleReader, "")
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestListBySaleRef(t *testing.T) {
	svc := &fakeNFeService{docs: map[string]*entity.Document{
		testKey: {AccessKey: testKey, SaleRef: "venta-1", Status: entity.StatusAuthorized},
	}}
	app := newAPI(svc)

	resp := call(t, app, http.MethodGet, "/api/nfe?sale_ref=venta-1", pkgjwt.RoleReader, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []dto.NFeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, testKey, out[0].AccessKey)
}

func TestHealthYMetricsSinToken(t *testing.T) {
	app := newAPI(&fakeNFeService{})

	health := call(t, app, http.MethodGet, "/health", "", "")
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	m := call(t, app, http.MethodGet, "/metrics", "", "")
	defer m.Body.Close()
	assert.Equal(t, http.StatusOK, m.StatusCode)
	raw, _ := io.ReadAll(m.Body)
	assert.Contains(t, string(raw), `nfe_documents_issued_total{status="autorizada"} 1`)

	api := call(t, app, http.MethodGet, "/api/nfe?sale_ref=x", "", "")
	defer api.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode)
}

func TestIssue_LogConRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := newAPIWithLogger(&fakeNFeService{}, zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodPost, "/api/nfe", strings.NewReader(issueBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleIssuer))
	req.Header.Set(apphttp.HeaderRequestID, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(apphttp.HeaderRequestID))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"access_key":"`+testKey+`"`)
}

func TestIssue_ErrorInternoSeRegistra(t *testing.T) {
	var buf bytes.Buffer
	app := newAPIWithLogger(&fakeNFeService{issueErr: &domainnfe.SigningError{Reason: "clave"}}, zerolog.New(&buf))

	resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleIssuer, issueBody)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, buf.String(), "nfe: error interno")
}

func TestIssue_LineaSinCantidad(t *testing.T) {
	svc := &fakeNFeService{}
	app := newAPI(svc)
	body := `{"sale_ref":"v","client_id":"c1","items":[{"product_code":"P1","description":"Caneta","ncm":"96081000","cfop":"5102","unit":"UN","unit_value":"1.50"}]}`

	resp := call(t, app, http.MethodPost, "/api/nfe", pkgjwt.RoleIssuer, body)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "det[1].qCom", out.Field)
	assert.Empty(t, svc.lastReq.SaleRef, "no llega al orquestador")
}
