package nfe_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	infranfe "github.com/jhoicas/NFe-api/internal/infrastructure/nfe"
	"github.com/jhoicas/NFe-api/internal/infrastructure/nfe/signer"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

var issuedAt = time.Date(2025, 1, 15, 10, 30, 0, 0, time.FixedZone("BRT", -3*60*60))

func testIssuer() *entity.IssuerProfile {
	return &entity.IssuerProfile{
		ID:                "issuer-1",
		CNPJ:              "56421395000150",
		LegalName:         "EMPRESA TESTE LTDA",
		TradeName:         "Loja Teste",
		StateRegistration: "111.222.333.444",
		TaxRegime:         pkgnfe.CRTSimplesNacional,
		StateCode:         "35",
		Series:            1,
		NextNumber:        1,
		IsActive:          true,
		Address: entity.Address{
			Street:           "Avenida Paulista",
			Number:           "1000",
			District:         "Bela Vista",
			MunicipalityCode: "3550308",
			MunicipalityName: "São Paulo",
			State:            "SP",
			PostalCode:       "01310100",
		},
	}
}

func testRecipient() entity.Recipient {
	return entity.Recipient{
		Name:        "Cliente Exemplo",
		CPF:         "12345678909",
		IEIndicator: pkgnfe.RecipientIENone,
		Address: entity.Address{
			Street:           "Rua Augusta",
			Number:           "50",
			District:         "Consolação",
			MunicipalityCode: "3550308",
			MunicipalityName: "São Paulo",
			State:            "SP",
			PostalCode:       "01305000",
		},
	}
}

func testItem(i int) entity.LineItem {
	return entity.LineItem{
		ProductCode: fmt.Sprintf("P%03d", i),
		Description: fmt.Sprintf("Produto %d", i),
		NCM:         "96081000",
		CFOP:        "5102",
		Unit:        "UN",
		Quantity:    decimal.NewFromInt(int64(i%7 + 1)).Add(decimal.RequireFromString("0.125")),
		UnitValue:   decimal.RequireFromString("3.3333333333").Mul(decimal.NewFromInt(int64(i%5 + 1))),
		ICMSCode:    "102",
		PISCode:     "07",
		COFINSCode:  "07",
	}
}

func testKey(t *testing.T) domainnfe.AccessKey {
	t.Helper()
	key, err := domainnfe.NewAccessKeyGenerator().Generate(domainnfe.AccessKeyFields{
		StateCode: "35", Year: 25, Month: 1, CNPJ: "56421395000150", Model: pkgnfe.ModelNFe,
		Series: 1, Number: 1, EmissionType: pkgnfe.EmissionNormal, RandomCode: 12345678,
	})
	require.NoError(t, err)
	return key
}

func buildContext(t *testing.T, items int) *infranfe.BuildContext {
	ctx := &infranfe.BuildContext{
		AccessKey:  testKey(t),
		Issuer:     testIssuer(),
		Recipient:  testRecipient(),
		IssuedAt:   issuedAt,
		AppVersion: "nfe-api 1.0",
	}
	for i := 1; i <= items; i++ {
		ctx.Items = append(ctx.Items, testItem(i))
	}
	return ctx
}

func parse(t *testing.T, b []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(b))
	return doc
}

func TestBuild_EstructuraCanonica(t *testing.T) {
	out, err := infranfe.NewXMLBuilderService().Build(buildContext(t, 1))
	require.NoError(t, err)

	s := string(out)
	assert.False(t, strings.HasPrefix(s, "<?xml"), "sin declaración XML")
	assert.True(t, strings.HasPrefix(s, `<NFe xmlns="http://www.portalfiscal.inf.br/nfe">`))
	assert.Contains(t, s, `Id="NFe35250156421395000150550010000000011123456787" versao="4.00"`)
	assert.True(t, strings.HasSuffix(s, "</infNFe></NFe>"))

	doc := parse(t, out)
	assert.Equal(t, "12345678", doc.FindElement("//ide/cNF").Text())
	assert.Equal(t, "7", doc.FindElement("//ide/cDV").Text())
	assert.Equal(t, "1", doc.FindElement("//ide/nNF").Text())
	assert.Equal(t, "2025-01-15T10:30:00-03:00", doc.FindElement("//ide/dhEmi").Text())
	assert.Equal(t, "12345678909", doc.FindElement("//dest/CPF").Text())
	assert.NotNil(t, doc.FindElement("//det/imposto/ICMS/ICMSSN102"))
	assert.NotNil(t, doc.FindElement("//det/imposto/PIS/PISNT"))
	assert.Equal(t, "9", doc.FindElement("//transp/modFrete").Text())
}

func TestBuild_Determinista(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	a, err := svc.Build(buildContext(t, 3))
	require.NoError(t, err)
	b, err := svc.Build(buildContext(t, 3))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_HomologacaoReemplazaNombre(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()

	ctx := buildContext(t, 1)
	out, err := svc.Build(ctx)
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Equal(t, pkgnfe.HomologationRecipientName, doc.FindElement("//dest/xNome").Text())
	assert.Equal(t, pkgnfe.EnvironmentHomologation, doc.FindElement("//ide/tpAmb").Text())

	ctx.Production = true
	out, err = svc.Build(ctx)
	require.NoError(t, err)
	doc = parse(t, out)
	assert.Equal(t, "Cliente Exemplo", doc.FindElement("//dest/xNome").Text())
	assert.Equal(t, pkgnfe.EnvironmentProduction, doc.FindElement("//ide/tpAmb").Text())
}

func TestBuild_HomologacaoNuncaExponeNombre(t *testing.T) {
	long := strings.Repeat("Comercial Atacadista Irmãos Figueiredo ", 3)
	cases := []struct {
		name      string
		recipient string
		hidden    []string
	}{
		{"acentos compuestos", "Jos\u00e9 Concei\u00e7\u00e3o", []string{"Jos\u00e9 Concei\u00e7\u00e3o", "Concei"}},
		{"acentos descompuestos", "Jose\u0301 Conceic\u0327a\u0303o", []string{"Jose\u0301", "Jos\u00e9", "Concei"}},
		{"más de 60 runas", long, []string{long, strings.TrimSpace(string([]rune(long)[:60])), "Figueiredo"}},
		{"espacios y mayúsculas", "  MARIA   REAL  DA SILVA  ", []string{"MARIA", "REAL  DA", "REAL DA SILVA"}},
		{"el propio aviso", pkgnfe.HomologationRecipientName, nil},
	}
	svc := infranfe.NewXMLBuilderService()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := buildContext(t, 2)
			ctx.Recipient.Name = tc.recipient
			out, err := svc.Build(ctx)
			require.NoError(t, err)

			doc := parse(t, out)
			assert.Equal(t, pkgnfe.HomologationRecipientName, doc.FindElement("//dest/xNome").Text())
			assert.Len(t, doc.FindElements("//xNome"), 2, "solo emit y dest")
			for _, h := range tc.hidden {
				assert.NotContains(t, string(out), h)
			}
		})
	}
}

func TestBuild_HomologacaoNombreVacioEsError(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		ctx := buildContext(t, 1)
		ctx.Recipient.Name = name
		_, err := infranfe.NewXMLBuilderService().Build(ctx)
		assert.True(t, domainnfe.IsBuildError(err), "nombre %q", name)
	}
}

func TestBuild_TotalesCuadran(t *testing.T) {
	svc := infranfe.NewXMLBuilderService()
	for n := 1; n <= 50; n++ {
		out, err := svc.Build(buildContext(t, n))
		require.NoError(t, err)
		doc := parse(t, out)

		sum := decimal.Zero
		for _, el := range doc.FindElements("//det/prod/vProd") {
			sum = sum.Add(decimal.RequireFromString(el.Text()))
		}
		require.Len(t, doc.FindElements("//det"), n)
		vNF := decimal.RequireFromString(doc.FindElement("//total/ICMSTot/vNF").Text())
		assert.True(t, sum.Equal(vNF), "n=%d: suma %s != vNF %s", n, sum, vNF)
		assert.Equal(t, doc.FindElement("//total/ICMSTot/vProd").Text(), doc.FindElement("//pag/detPag/vPag").Text())
	}
}

func TestBuild_PrecisionDeCampos(t *testing.T) {
	out, err := infranfe.NewXMLBuilderService().Build(buildContext(t, 1))
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Equal(t, "2.1250", doc.FindElement("//prod/qCom").Text())
	assert.Equal(t, "6.6666666666", doc.FindElement("//prod/vUnCom").Text())
	assert.Equal(t, "14.17", doc.FindElement("//prod/vProd").Text())
}

func TestBuild_NormalizaNFC(t *testing.T) {
	ctx := buildContext(t, 1)
	ctx.Items[0].Description = "Sa\u0303o   Joa\u0303o" // NFD
	out, err := infranfe.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S\u00e3o Jo\u00e3o", parse(t, out).FindElement("//prod/xProd").Text())
}

func TestBuild_GruposDeImpuestos(t *testing.T) {
	ctx := buildContext(t, 1)
	ctx.Issuer.TaxRegime = pkgnfe.CRTRegimeNormal
	ctx.Items[0].ICMSCode = "41"
	ctx.Items[0].PISCode = "49"
	ctx.Items[0].COFINSCode = "99"
	out, err := infranfe.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)
	doc := parse(t, out)
	assert.Equal(t, "41", doc.FindElement("//ICMS/ICMS40/CST").Text())
	assert.Equal(t, "0.00", doc.FindElement("//PIS/PISOutr/vPIS").Text())
	assert.Equal(t, "0.0000", doc.FindElement("//COFINS/COFINSOutr/pCOFINS").Text())
}

func TestBuild_Errores(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *infranfe.BuildContext)
	}{
		{"sin líneas", func(c *infranfe.BuildContext) { c.Items = nil }},
		{"sin documento del destinatario", func(c *infranfe.BuildContext) { c.Recipient.CPF = "" }},
		{"cnpj y cpf a la vez", func(c *infranfe.BuildContext) { c.Recipient.CNPJ = "11222333000181" }},
		{"chave de otro emisor", func(c *infranfe.BuildContext) { c.Issuer.CNPJ = "11222333000181" }},
		{"mes distinto de la chave", func(c *infranfe.BuildContext) { c.IssuedAt = issuedAt.AddDate(0, 1, 0) }},
		{"csosn no soportado", func(c *infranfe.BuildContext) { c.Items[0].ICMSCode = "101" }},
		{"cst pis no soportado", func(c *infranfe.BuildContext) { c.Items[0].PISCode = "01" }},
		{"cantidad negativa", func(c *infranfe.BuildContext) { c.Items[0].Quantity = decimal.NewFromInt(-1) }},
		{"chave con DV errado", func(c *infranfe.BuildContext) { c.AccessKey = "35250156421395000150550010000000011123456780" }},
		{"emisor sin IE", func(c *infranfe.BuildContext) { c.Issuer.StateRegistration = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := buildContext(t, 1)
			tc.mutate(ctx)
			_, err := infranfe.NewXMLBuilderService().Build(ctx)
			require.Error(t, err)
			assert.True(t, domainnfe.IsBuildError(err), "se esperaba BuildError, se obtuvo %v", err)
		})
	}
}

func TestBuild_FirmaYVerifica(t *testing.T) {
	out, err := infranfe.NewXMLBuilderService().Build(buildContext(t, 5))
	require.NoError(t, err)
	creds, err := signer.LoadFromP12("signer/testdata/a1.p12", "123456")
	require.NoError(t, err)

	signed, err := signer.NewDigitalSignatureService().Sign(out, creds)
	require.NoError(t, err)
	require.NoError(t, signer.Verify(signed))
}

func TestBuildPlaceholder(t *testing.T) {
	key, err := domainnfe.SimulatedAccessKey(testIssuer(), issuedAt)
	require.NoError(t, err)
	out, err := infranfe.NewXMLBuilderService().BuildPlaceholder(key, decimal.RequireFromString("10.5"))
	require.NoError(t, err)

	doc := parse(t, out)
	assert.Equal(t, pkgnfe.EnvironmentHomologation, doc.FindElement("//ide/tpAmb").Text())
	assert.Equal(t, pkgnfe.HomologationRecipientName, doc.FindElement("//dest/xNome").Text())
	assert.NotContains(t, string(out), testRecipient().Name)
	assert.Equal(t, "NFe"+key.String(), doc.FindElement("//infNFe").SelectAttrValue("Id", ""))
	assert.Equal(t, "10.50", doc.FindElement("//vNF").Text())
	assert.Nil(t, doc.FindElement("//Signature"), "el documento simulado no se firma")
}
