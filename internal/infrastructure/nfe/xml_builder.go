package nfe

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// Layout de fecha de dhEmi (UTC offset obligatorio).
const dateTimeLayout = "2006-01-02T15:04:05-07:00"

// XMLBuilderService construye el XML de la NF-e (sin firma) en forma canónica.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera <NFe><infNFe Id="NFe{chave}" versao="4.00">...</infNFe></NFe> canonicalizado (C14N),
// sin declaración XML. La misma entrada produce siempre los mismos bytes.
func (s *XMLBuilderService) Build(ctx *BuildContext) ([]byte, error) {
	if ctx == nil {
		return nil, domainnfe.NewBuildError("infNFe", "contexto ausente")
	}
	issuer, err := s.validate(ctx)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	root := doc.CreateElement("NFe")
	root.CreateAttr("xmlns", pkgnfe.Namespace)

	inf := root.CreateElement("infNFe")
	inf.CreateAttr("Id", "NFe"+ctx.AccessKey.String())
	inf.CreateAttr("versao", pkgnfe.SchemaVersion)

	s.writeIde(inf, ctx, issuer)
	s.writeEmit(inf, issuer)
	s.writeDest(inf, ctx)

	total := decimal.Zero
	for i, it := range ctx.Items {
		if err := s.writeDet(inf, i+1, it, issuer.TaxRegime); err != nil {
			return nil, err
		}
		total = total.Add(it.Total())
	}
	s.writeTotal(inf, total)

	inf.CreateElement("transp").CreateElement("modFrete").SetText(pkgnfe.FreightNone)

	payment := ctx.PaymentType
	if payment == "" {
		payment = pkgnfe.PaymentCash
	}
	detPag := inf.CreateElement("pag").CreateElement("detPag")
	detPag.CreateElement("tPag").SetText(payment)
	detPag.CreateElement("vPag").SetText(money(total))

	if info := cleanText(ctx.AdditionalInfo, 5000); info != "" {
		inf.CreateElement("infAdic").CreateElement("infCpl").SetText(info)
	}

	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("nfe: serializar XML: %w", err)
	}
	return canonicalizeXML(raw)
}

// validate revisa la coherencia entre chave, emisor, destinatario y líneas.
// Devuelve una copia del emisor con el endereço normalizado.
func (s *XMLBuilderService) validate(ctx *BuildContext) (*entity.IssuerProfile, error) {
	if err := pkgnfe.ValidateAccessKey(ctx.AccessKey.String()); err != nil {
		return nil, &domainnfe.BuildError{Field: "chNFe", Reason: "chave inválida", Err: err}
	}
	if err := domainnfe.ValidateIssuer(ctx.Issuer); err != nil {
		return nil, err
	}
	issuer := *ctx.Issuer
	addr, err := domainnfe.NormalizeAddress("enderEmit", issuer.Address)
	if err != nil {
		return nil, err
	}
	issuer.Address = addr

	if ctx.AccessKey.CNPJ() != pkgnfe.OnlyDigits(issuer.CNPJ) {
		return nil, domainnfe.NewBuildError("chNFe", "el CNPJ de la chave no coincide con el emisor")
	}
	if ctx.AccessKey.StateCode() != issuer.StateCode {
		return nil, domainnfe.NewBuildError("chNFe", "el cUF de la chave no coincide con el emisor")
	}
	if ctx.IssuedAt.IsZero() {
		return nil, domainnfe.NewBuildError("ide.dhEmi", "obligatorio")
	}
	if ctx.IssuedAt.Format("0601") != ctx.AccessKey.YearMonth() {
		return nil, domainnfe.NewBuildError("ide.dhEmi", "AAMM de la chave distinto de la fecha de emisión")
	}
	r := ctx.Recipient
	if strings.TrimSpace(r.Name) == "" {
		return nil, domainnfe.NewBuildError("dest.xNome", "obligatorio")
	}
	if (r.CNPJ == "") == (r.CPF == "") {
		return nil, domainnfe.NewBuildError("dest.CNPJ/CPF", "informar exactamente uno de CNPJ o CPF")
	}
	if err := domainnfe.ValidateLineItems(ctx.Items); err != nil {
		return nil, err
	}
	return &issuer, nil
}

func (s *XMLBuilderService) writeIde(inf *etree.Element, ctx *BuildContext, issuer *entity.IssuerProfile) {
	key := ctx.AccessKey
	natOp := ctx.NatureOfOperation
	if natOp == "" {
		natOp = pkgnfe.DefaultNatureOfOp
	}
	idDest := pkgnfe.DestinationInternal
	if ctx.Recipient.Address.State != issuer.Address.State {
		idDest = pkgnfe.DestinationInterstate
	}

	ide := inf.CreateElement("ide")
	ide.CreateElement("cUF").SetText(key.StateCode())
	ide.CreateElement("cNF").SetText(key.RandomCode())
	ide.CreateElement("natOp").SetText(cleanText(natOp, 60))
	ide.CreateElement("mod").SetText(key.Model())
	ide.CreateElement("serie").SetText(strconv.Itoa(key.Series()))
	ide.CreateElement("nNF").SetText(strconv.FormatInt(key.Number(), 10))
	ide.CreateElement("dhEmi").SetText(ctx.IssuedAt.Format(dateTimeLayout))
	ide.CreateElement("tpNF").SetText(pkgnfe.OperationExit)
	ide.CreateElement("idDest").SetText(idDest)
	ide.CreateElement("cMunFG").SetText(issuer.Address.MunicipalityCode)
	ide.CreateElement("tpImp").SetText(pkgnfe.PrintDANFEPortrait)
	ide.CreateElement("tpEmis").SetText(key.EmissionType())
	ide.CreateElement("cDV").SetText(strconv.Itoa(key.CheckDigit()))
	ide.CreateElement("tpAmb").SetText(pkgnfe.EnvironmentCode(ctx.Production))
	ide.CreateElement("finNFe").SetText(pkgnfe.PurposeNormal)
	ide.CreateElement("indFinal").SetText(pkgnfe.FinalConsumerYes)
	ide.CreateElement("indPres").SetText(pkgnfe.PresenceInPerson)
	ide.CreateElement("procEmi").SetText(pkgnfe.ProcessOwnApp)
	ide.CreateElement("verProc").SetText(cleanText(ctx.AppVersion, 20))
}

func (s *XMLBuilderService) writeEmit(inf *etree.Element, p *entity.IssuerProfile) {
	emit := inf.CreateElement("emit")
	emit.CreateElement("CNPJ").SetText(pkgnfe.OnlyDigits(p.CNPJ))
	emit.CreateElement("xNome").SetText(cleanText(p.LegalName, 60))
	if fant := cleanText(p.TradeName, 60); fant != "" {
		emit.CreateElement("xFant").SetText(fant)
	}
	writeAddress(emit.CreateElement("enderEmit"), p.Address)
	emit.CreateElement("IE").SetText(pkgnfe.OnlyDigits(p.StateRegistration))
	emit.CreateElement("CRT").SetText(p.TaxRegime)
}

func (s *XMLBuilderService) writeDest(inf *etree.Element, ctx *BuildContext) {
	r := ctx.Recipient
	dest := inf.CreateElement("dest")
	if r.CNPJ != "" {
		dest.CreateElement("CNPJ").SetText(r.CNPJ)
	} else {
		dest.CreateElement("CPF").SetText(r.CPF)
	}
	name := cleanText(r.Name, 60)
	if !ctx.Production {
		// Regla de la SEFAZ: en homologação el nombre siempre se reemplaza.
		name = pkgnfe.HomologationRecipientName
	}
	dest.CreateElement("xNome").SetText(name)
	writeAddress(dest.CreateElement("enderDest"), r.Address)

	ind := r.IEIndicator
	if ind == "" {
		ind = pkgnfe.RecipientIENone
	}
	dest.CreateElement("indIEDest").SetText(ind)
	if ind == pkgnfe.RecipientIEContributor && r.StateRegistration != "" {
		dest.CreateElement("IE").SetText(r.StateRegistration)
	}
	if email := cleanText(r.Email, 60); email != "" {
		dest.CreateElement("email").SetText(email)
	}
}

func writeAddress(el *etree.Element, a entity.Address) {
	el.CreateElement("xLgr").SetText(cleanText(a.Street, 60))
	el.CreateElement("nro").SetText(cleanText(a.Number, 60))
	if cpl := cleanText(a.Complement, 60); cpl != "" {
		el.CreateElement("xCpl").SetText(cpl)
	}
	el.CreateElement("xBairro").SetText(cleanText(a.District, 60))
	el.CreateElement("cMun").SetText(a.MunicipalityCode)
	el.CreateElement("xMun").SetText(cleanText(a.MunicipalityName, 60))
	el.CreateElement("UF").SetText(a.State)
	if a.PostalCode != "" {
		el.CreateElement("CEP").SetText(a.PostalCode)
	}
	el.CreateElement("cPais").SetText(pkgnfe.CountryBrazilCode)
	el.CreateElement("xPais").SetText(pkgnfe.CountryBrazilName)
	if a.Phone != "" {
		el.CreateElement("fone").SetText(a.Phone)
	}
}

func (s *XMLBuilderService) writeDet(inf *etree.Element, n int, it entity.LineItem, crt string) error {
	det := inf.CreateElement("det")
	det.CreateAttr("nItem", strconv.Itoa(n))

	gtin := pkgnfe.OnlyDigits(it.GTIN)
	if gtin == "" {
		gtin = pkgnfe.NoGTIN
	}
	qty := it.Quantity.StringFixed(domainnfe.QuantityDecimals)
	unitValue := it.UnitValue.StringFixed(domainnfe.UnitValueDecimals)
	unit := cleanText(it.Unit, 6)

	prod := det.CreateElement("prod")
	prod.CreateElement("cProd").SetText(cleanText(it.ProductCode, 60))
	prod.CreateElement("cEAN").SetText(gtin)
	prod.CreateElement("xProd").SetText(cleanText(it.Description, 120))
	prod.CreateElement("NCM").SetText(pkgnfe.OnlyDigits(it.NCM))
	prod.CreateElement("CFOP").SetText(pkgnfe.OnlyDigits(it.CFOP))
	prod.CreateElement("uCom").SetText(unit)
	prod.CreateElement("qCom").SetText(qty)
	prod.CreateElement("vUnCom").SetText(unitValue)
	prod.CreateElement("vProd").SetText(money(it.Total()))
	prod.CreateElement("cEANTrib").SetText(gtin)
	prod.CreateElement("uTrib").SetText(unit)
	prod.CreateElement("qTrib").SetText(qty)
	prod.CreateElement("vUnTrib").SetText(unitValue)
	prod.CreateElement("indTot").SetText("1")

	imposto := det.CreateElement("imposto")
	if err := writeICMS(imposto, n, it, crt); err != nil {
		return err
	}
	if err := writePISCOFINS(imposto, n, "PIS", it.PISCode); err != nil {
		return err
	}
	return writePISCOFINS(imposto, n, "COFINS", it.COFINSCode)
}

// writeICMS solo cubre los grupos sin destaque de imposto (ICMSSN102 / ICMS40).
func writeICMS(imposto *etree.Element, n int, it entity.LineItem, crt string) error {
	origin := it.Origin
	if origin == "" {
		origin = "0"
	}
	icms := imposto.CreateElement("ICMS")
	if pkgnfe.IsSimplesNacional(crt) {
		if !pkgnfe.SupportedCSOSN[it.ICMSCode] {
			return domainnfe.NewBuildError(fmt.Sprintf("det[%d].ICMS.CSOSN", n), fmt.Sprintf("CSOSN %q no soportado", it.ICMSCode))
		}
		g := icms.CreateElement("ICMSSN102")
		g.CreateElement("orig").SetText(origin)
		g.CreateElement("CSOSN").SetText(it.ICMSCode)
		return nil
	}
	if !pkgnfe.SupportedICMSCST[it.ICMSCode] {
		return domainnfe.NewBuildError(fmt.Sprintf("det[%d].ICMS.CST", n), fmt.Sprintf("CST %q no soportado", it.ICMSCode))
	}
	g := icms.CreateElement("ICMS40")
	g.CreateElement("orig").SetText(origin)
	g.CreateElement("CST").SetText(it.ICMSCode)
	return nil
}

// writePISCOFINS escribe PISNT/COFINSNT o PISOutr/COFINSOutr con valores cero.
func writePISCOFINS(imposto *etree.Element, n int, tax, cst string) error {
	group := imposto.CreateElement(tax)
	switch {
	case pkgnfe.PISCOFINSNonTaxedCST[cst]:
		group.CreateElement(tax + "NT").CreateElement("CST").SetText(cst)
	case pkgnfe.PISCOFINSOtherCST[cst]:
		g := group.CreateElement(tax + "Outr")
		g.CreateElement("CST").SetText(cst)
		g.CreateElement("vBC").SetText("0.00")
		g.CreateElement("p" + tax).SetText("0.0000")
		g.CreateElement("v" + tax).SetText("0.00")
	default:
		return domainnfe.NewBuildError(fmt.Sprintf("det[%d].%s.CST", n, tax), fmt.Sprintf("CST %q no soportado", cst))
	}
	return nil
}

func (s *XMLBuilderService) writeTotal(inf *etree.Element, total decimal.Decimal) {
	tot := inf.CreateElement("total").CreateElement("ICMSTot")
	zero := "0.00"
	for _, tag := range []string{"vBC", "vICMS", "vICMSDeson", "vFCP", "vBCST", "vST", "vFCPST", "vFCPSTRet"} {
		tot.CreateElement(tag).SetText(zero)
	}
	tot.CreateElement("vProd").SetText(money(total))
	for _, tag := range []string{"vFrete", "vSeg", "vDesc", "vII", "vIPI", "vIPIDevol", "vPIS", "vCOFINS", "vOutro"} {
		tot.CreateElement(tag).SetText(zero)
	}
	tot.CreateElement("vNF").SetText(money(total))
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domainnfe.MoneyDecimals)
}

// cleanText normaliza a NFC, colapsa espacios y corta en max runas.
func cleanText(s string, max int) string {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("nfe: canonicalizar XML: %w", err)
	}
	return out, nil
}
