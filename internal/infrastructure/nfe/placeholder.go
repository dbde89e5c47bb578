package nfe

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// BuildPlaceholder documento mínimo del modo simulación: bien formado, sin firma y sin valor fiscal.
// Es tpAmb 2, así que dest/xNome lleva siempre el aviso de homologação.
func (s *XMLBuilderService) BuildPlaceholder(key domainnfe.AccessKey, total decimal.Decimal) ([]byte, error) {
	if err := pkgnfe.ValidateAccessKey(key.String()); err != nil {
		return nil, &domainnfe.BuildError{Field: "chNFe", Reason: "chave inválida", Err: err}
	}
	doc := etree.NewDocument()
	root := doc.CreateElement("NFe")
	root.CreateAttr("xmlns", pkgnfe.Namespace)
	inf := root.CreateElement("infNFe")
	inf.CreateAttr("Id", "NFe"+key.String())
	inf.CreateAttr("versao", pkgnfe.SchemaVersion)

	ide := inf.CreateElement("ide")
	ide.CreateElement("cUF").SetText(key.StateCode())
	ide.CreateElement("cNF").SetText(key.RandomCode())
	ide.CreateElement("mod").SetText(key.Model())
	ide.CreateElement("nNF").SetText(strconv.FormatInt(key.Number(), 10))
	ide.CreateElement("cDV").SetText(strconv.Itoa(key.CheckDigit()))
	ide.CreateElement("tpAmb").SetText(pkgnfe.EnvironmentHomologation)

	inf.CreateElement("dest").CreateElement("xNome").SetText(pkgnfe.HomologationRecipientName)
	inf.CreateElement("total").CreateElement("ICMSTot").CreateElement("vNF").SetText(money(total))
	inf.CreateElement("infAdic").CreateElement("infCpl").SetText("DOCUMENTO SIMULADO - SEM VALOR FISCAL")

	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("nfe: serializar XML simulado: %w", err)
	}
	return canonicalizeXML(raw)
}
