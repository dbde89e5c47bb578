package nfe

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// ── Constantes SOAP ───────────────────────────────────────────────────────────

const (
	soap12NS         = "http://www.w3.org/2003/05/soap-envelope"
	wsdlAutorizacao  = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4"
	soapActionAutLot = wsdlAutorizacao + "/nfeAutorizacaoLote"

	maxResponseBytes = 1 << 20 // 1 MB
)

// cStat relevantes del retorno de autorização.
const (
	cStatAuthorized        = "100" // Autorizado o uso da NF-e
	cStatAuthorizedLate    = "150" // Autorizado fora de prazo
	cStatBatchReceived     = "103" // Lote recebido com sucesso
	cStatBatchInProcessing = "105" // Lote em processamento
)

// ── Puerto (interfaz) ─────────────────────────────────────────────────────────

// Authorizer entrega el documento firmado a la SEFAZ.
// Solo la falta de endpoint es un error de Go; todo lo demás vuelve en TransmissionResult.
type Authorizer interface {
	Authorize(ctx context.Context, signedXML []byte, stateCode string, production bool) (entity.TransmissionResult, error)
}

// ── Implementación SOAP 1.2 ───────────────────────────────────────────────────

// SOAPAuthorizationClient implementa Authorizer contra NFeAutorizacao4.
type SOAPAuthorizationClient struct {
	httpClient *http.Client
	endpoints  Endpoints
	now        func() time.Time
}

var _ Authorizer = (*SOAPAuthorizationClient)(nil)

// Option configura el cliente.
type Option func(*SOAPAuthorizationClient)

// WithEndpoints reemplaza la tabla de ruteo (tests, otras UF).
func WithEndpoints(e Endpoints) Option {
	return func(c *SOAPAuthorizationClient) { c.endpoints = e }
}

// WithClock fija el reloj usado para idLote.
func WithClock(now func() time.Time) Option {
	return func(c *SOAPAuthorizationClient) { c.now = now }
}

// NewSOAPAuthorizationClient construye el cliente sobre un http.Client ya configurado.
func NewSOAPAuthorizationClient(httpClient *http.Client, opts ...Option) *SOAPAuthorizationClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &SOAPAuthorizationClient{
		httpClient: httpClient,
		endpoints:  DefaultEndpoints(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewMTLSHTTPClient http.Client que presenta el certificado A1 del emisor (TLS mutuo).
func NewMTLSHTTPClient(creds *pkgnfe.Credentials, timeout time.Duration) (*http.Client, error) {
	if creds == nil || creds.Certificate == nil || creds.PrivateKey == nil {
		return nil, &domainnfe.CredentialError{Reason: "credenciales incompletas para TLS mutuo"}
	}
	tlsCert := tls.Certificate{
		Certificate: [][]byte{creds.Certificate.Raw},
		PrivateKey:  creds.PrivateKey,
		Leaf:        creds.Certificate,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   tls.VersionTLS12,
		// La SEFAZ-SP renegocia para pedir el certificado de cliente.
		Renegotiation: tls.RenegotiateOnceAsClient,
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Authorize arma enviNFe (síncrono), lo envía y traduce el cStat de la respuesta.
func (c *SOAPAuthorizationClient) Authorize(ctx context.Context, signedXML []byte, stateCode string, production bool) (entity.TransmissionResult, error) {
	url, err := c.endpoints.Resolve(stateCode, production)
	if err != nil {
		return entity.TransmissionResult{}, err
	}

	envelope, err := c.buildEnvelope(signedXML)
	if err != nil {
		return failed("build", err), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(envelope))
	if err != nil {
		return failed("request", err), nil
	}
	req.Header.Set("Content-Type", `application/soap+xml; charset=utf-8; action="`+soapActionAutLot+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return failed("timeout", ctx.Err()), nil
		}
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			return failed("timeout", err), nil
		}
		return failed("http", err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failed("read", err), nil
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if reason := faultReason(raw); reason != "" {
			msg += ": " + reason
		}
		return failed("http", errors.New(msg)), nil
	}
	return parseAuthorizationResponse(raw), nil
}

// buildEnvelope soap12:Envelope/Body/nfeDadosMsg/enviNFe. El documento firmado se inserta sin
// reserializar para no alterar lo firmado.
func (c *SOAPAuthorizationClient) buildEnvelope(signedXML []byte) ([]byte, error) {
	nfe := stripXMLDeclaration(signedXML)
	if len(nfe) == 0 {
		return nil, errors.New("documento firmado vacío")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement("soap12:Envelope")
	env.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	env.CreateAttr("xmlns:xsd", "http://www.w3.org/2001/XMLSchema")
	env.CreateAttr("xmlns:soap12", soap12NS)
	msg := env.CreateElement("soap12:Body").CreateElement("nfeDadosMsg")
	msg.CreateAttr("xmlns", wsdlAutorizacao)

	enviNFe := msg.CreateElement("enviNFe")
	enviNFe.CreateAttr("xmlns", pkgnfe.Namespace)
	enviNFe.CreateAttr("versao", pkgnfe.SchemaVersion)
	enviNFe.CreateElement("idLote").SetText(batchID(c.now()))
	enviNFe.CreateElement("indSinc").SetText("1")

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}
	closing := []byte("</enviNFe>")
	idx := bytes.LastIndex(out, closing)
	if idx < 0 {
		// etree cierra los elementos vacíos con "/>"; enviNFe nunca queda vacío.
		return nil, errors.New("enviNFe sin cierre")
	}
	var buf bytes.Buffer
	buf.Grow(len(out) + len(nfe))
	buf.Write(out[:idx])
	buf.Write(nfe)
	buf.Write(out[idx:])
	return buf.Bytes(), nil
}

// batchID idLote de 15 dígitos derivado del instante de envío.
func batchID(t time.Time) string {
	return t.Format("060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}

func stripXMLDeclaration(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if bytes.HasPrefix(b, []byte("<?xml")) {
		if end := bytes.Index(b, []byte("?>")); end >= 0 {
			b = bytes.TrimSpace(b[end+2:])
		}
	}
	return b
}

// ── Respuesta ─────────────────────────────────────────────────────────────────

type retEnviNFe struct {
	TpAmb    string   `xml:"tpAmb"`
	VerAplic string   `xml:"verAplic"`
	CStat    string   `xml:"cStat"`
	XMotivo  string   `xml:"xMotivo"`
	CUF      string   `xml:"cUF"`
	InfRec   *infRec  `xml:"infRec"`
	ProtNFe  *protNFe `xml:"protNFe"`
}

type infRec struct {
	NRec string `xml:"nRec"`
}

type protNFe struct {
	InfProt struct {
		ChNFe    string `xml:"chNFe"`
		DhRecbto string `xml:"dhRecbto"`
		NProt    string `xml:"nProt"`
		CStat    string `xml:"cStat"`
		XMotivo  string `xml:"xMotivo"`
	} `xml:"infProt"`
}

type soapFault struct {
	Reason      string `xml:"Reason>Text"`
	FaultString string `xml:"faultstring"`
}

// parseAuthorizationResponse busca Fault o retEnviNFe por nombre local (los prefijos varían por UF).
func parseAuthorizationResponse(raw []byte) entity.TransmissionResult {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return failed("parse", errors.New("retEnviNFe no encontrado en la respuesta"))
			}
			return failed("parse", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "Fault":
			var f soapFault
			if err := dec.DecodeElement(&f, &start); err != nil {
				return failed("parse", err)
			}
			return failed("fault", errors.New(firstNonEmpty(f.Reason, f.FaultString, "SOAP Fault")))
		case "retEnviNFe":
			var ret retEnviNFe
			if err := dec.DecodeElement(&ret, &start); err != nil {
				return failed("parse", err)
			}
			return interpret(&ret)
		}
	}
}

// interpret traduce cStat: con protNFe decide el protocolo del documento; sin él, el del lote.
func interpret(ret *retEnviNFe) entity.TransmissionResult {
	if ret.ProtNFe != nil && ret.ProtNFe.InfProt.CStat != "" {
		p := ret.ProtNFe.InfProt
		res := entity.TransmissionResult{StatusCode: p.CStat, Message: strings.TrimSpace(p.XMotivo)}
		switch p.CStat {
		case cStatAuthorized, cStatAuthorizedLate:
			res.Status = entity.StatusAuthorized
			res.Protocol = p.NProt
		default:
			res.Status = entity.StatusRejected
		}
		return res
	}

	res := entity.TransmissionResult{StatusCode: ret.CStat, Message: strings.TrimSpace(ret.XMotivo)}
	switch ret.CStat {
	case cStatBatchReceived, cStatBatchInProcessing:
		res.Status = entity.StatusPending
		if ret.InfRec != nil {
			res.ReceiptNumber = ret.InfRec.NRec
		}
	case "":
		return failed("parse", errors.New("retEnviNFe sin cStat"))
	default:
		res.Status = entity.StatusRejected
	}
	return res
}

// faultReason extrae el motivo de un SOAP Fault, o "" si el cuerpo no trae uno.
func faultReason(raw []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "Fault" {
			var f soapFault
			if err := dec.DecodeElement(&f, &start); err != nil {
				return ""
			}
			return firstNonEmpty(f.Reason, f.FaultString, "SOAP Fault")
		}
	}
}

func failed(op string, err error) entity.TransmissionResult {
	return entity.TransmissionResult{
		Status:  entity.StatusError,
		Message: (&domainnfe.TransmissionError{Op: op, Err: err}).Error(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
