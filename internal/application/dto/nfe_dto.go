package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/NFe-api/internal/application/emission"
	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
)

// IssueNFeRequest body para POST /api/nfe.
type IssueNFeRequest struct {
	SaleRef           string            `json:"sale_ref"`
	ClientID          string            `json:"client_id,omitempty"`
	Recipient         *RecipientRequest `json:"recipient,omitempty"`
	Items             []LineItemRequest `json:"items"`
	PaymentType       string            `json:"payment_type,omitempty"`
	AdditionalInfo    string            `json:"additional_info,omitempty"`
	NatureOfOperation string            `json:"nature_of_operation,omitempty"`
}

// RecipientRequest destinatario inline. Address acepta un objeto o un string con el JSON
// pre-serializado (formato del cadastro de clientes).
type RecipientRequest struct {
	Name              string          `json:"name"`
	TaxID             string          `json:"tax_id"`
	StateRegistration string          `json:"state_registration,omitempty"`
	Email             string          `json:"email,omitempty"`
	Address           json.RawMessage `json:"address"`
}

// LineItemRequest línea de la venta.
type LineItemRequest struct {
	ProductCode string           `json:"product_code"`
	GTIN        string           `json:"gtin,omitempty"`
	Description string           `json:"description"`
	NCM         string           `json:"ncm"`
	CFOP        string           `json:"cfop"`
	Unit        string           `json:"unit"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitValue   *decimal.Decimal `json:"unit_value"`
	Origin      string           `json:"origin,omitempty"`
	ICMSCode    string           `json:"icms_code"`
	PISCode     string           `json:"pis_code"`
	COFINSCode  string           `json:"cofins_code"`
}

// IssueNFeBatchRequest body para POST /api/nfe/batch.
type IssueNFeBatchRequest struct {
	Documents []IssueNFeRequest `json:"documents"`
}

// NFeResponse resultado de una emisión: {access_key, signed_xml, status, message}.
type NFeResponse struct {
	AccessKey string    `json:"access_key"`
	Number    int64     `json:"number"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Protocol  string    `json:"protocol,omitempty"`
	SaleRef   string    `json:"sale_ref,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	SignedXML string    `json:"signed_xml"`
}

// BatchItemResponse resultado por documento del lote.
type BatchItemResponse struct {
	Index   int            `json:"index"`
	SaleRef string         `json:"sale_ref"`
	Result  *NFeResponse   `json:"result,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse respuesta de POST /api/nfe/batch.
type BatchResponse struct {
	Results []BatchItemResponse `json:"results"`
}

// ToIssueRequest convierte el body a la entrada del orquestador. Falla si falta la cantidad o
// el valor unitario de una línea o si el endereço no se puede interpretar; el resto de
// validaciones las hace el dominio.
func (r IssueNFeRequest) ToIssueRequest() (emission.IssueRequest, error) {
	out := emission.IssueRequest{
		SaleRef:           r.SaleRef,
		ClientID:          r.ClientID,
		PaymentType:       r.PaymentType,
		AdditionalInfo:    r.AdditionalInfo,
		NatureOfOperation: r.NatureOfOperation,
		Items:             make([]entity.LineItem, 0, len(r.Items)),
	}
	var missing []error
	for i, it := range r.Items {
		// Ausente no es cero: un decimal omitido se decodificaría como 0.
		if it.Quantity == nil {
			missing = append(missing, domainnfe.NewBuildError(fmt.Sprintf("det[%d].qCom", i+1), "obligatorio"))
		}
		if it.UnitValue == nil {
			missing = append(missing, domainnfe.NewBuildError(fmt.Sprintf("det[%d].vUnCom", i+1), "obligatorio"))
		}
		if it.Quantity == nil || it.UnitValue == nil {
			continue
		}
		out.Items = append(out.Items, entity.LineItem{
			ProductCode: it.ProductCode,
			GTIN:        it.GTIN,
			Description: it.Description,
			NCM:         it.NCM,
			CFOP:        it.CFOP,
			Unit:        it.Unit,
			Quantity:    *it.Quantity,
			UnitValue:   *it.UnitValue,
			Origin:      it.Origin,
			ICMSCode:    it.ICMSCode,
			PISCode:     it.PISCode,
			COFINSCode:  it.COFINSCode,
		})
	}
	if len(missing) > 0 {
		return emission.IssueRequest{}, errors.Join(missing...)
	}
	if r.Recipient != nil {
		in, err := r.Recipient.toInput()
		if err != nil {
			return emission.IssueRequest{}, err
		}
		out.Recipient = &in
	}
	return out, nil
}

func (r RecipientRequest) toInput() (domainnfe.RecipientInput, error) {
	raw := bytes.TrimSpace(r.Address)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domainnfe.RecipientInput{}, domainnfe.NewBuildError("enderDest", "JSON inválido")
		}
		raw = []byte(s)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return domainnfe.RecipientInput{}, domainnfe.NewBuildError("enderDest", "obligatorio")
	}
	addr, err := domainnfe.ParseAddress("enderDest", string(raw))
	if err != nil {
		return domainnfe.RecipientInput{}, err
	}
	return domainnfe.RecipientInput{
		Name:              r.Name,
		TaxID:             r.TaxID,
		StateRegistration: r.StateRegistration,
		Email:             r.Email,
		Address:           addr,
	}, nil
}

// NewNFeResponse arma la respuesta de una emisión.
func NewNFeResponse(res *emission.IssueResult) NFeResponse {
	out := NFeResponse{
		AccessKey: res.AccessKey,
		Number:    res.Number,
		Status:    res.Status,
		Message:   res.Message,
		Protocol:  res.Protocol,
		SignedXML: res.SignedXML,
	}
	if res.Document != nil {
		out.SaleRef = res.Document.SaleRef
		out.IssuedAt = res.Document.IssuedAt
	}
	return out
}

// NewDocumentResponse arma la respuesta de un documento registrado.
func NewDocumentResponse(d *entity.Document) NFeResponse {
	return NFeResponse{
		AccessKey: d.AccessKey,
		Number:    d.Number,
		Status:    d.Status,
		Message:   d.Message,
		Protocol:  d.Protocol,
		SaleRef:   d.SaleRef,
		IssuedAt:  d.IssuedAt,
		SignedXML: d.SignedXML,
	}
}
