// Package nfe contiene catálogos y reglas del Manual de Orientação do Contribuinte (MOC)
// de la NF-e 4.00 (Brasil) usados por el emisor.
package nfe

// =============================================================================
// Constantes del layout 4.00
// =============================================================================

const (
	Namespace     = "http://www.portalfiscal.inf.br/nfe"
	SchemaVersion = "4.00"

	ModelNFe  = "55" // NF-e
	ModelNFCe = "65" // NFC-e
)

// =============================================================================
// tpAmb - Ambiente
// =============================================================================

const (
	EnvironmentProduction   = "1"
	EnvironmentHomologation = "2"
)

// HomologationRecipientName reemplaza dest/xNome en homologação (regla obligatoria de la SEFAZ).
const HomologationRecipientName = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"

// EnvironmentCode devuelve el tpAmb para el flag de producción.
func EnvironmentCode(production bool) string {
	if production {
		return EnvironmentProduction
	}
	return EnvironmentHomologation
}

// =============================================================================
// tpEmis - Tipo de emisión
// =============================================================================

const (
	EmissionNormal  = "1" // Emissão normal
	EmissionFSIA    = "2" // Contingência FS-IA
	EmissionSVCAN   = "6" // Contingência SVC-AN
	EmissionSVCRS   = "7" // Contingência SVC-RS
	EmissionOffline = "9" // Contingência off-line NFC-e
)

// =============================================================================
// CRT - Código de Regime Tributário
// =============================================================================

const (
	CRTSimplesNacional      = "1"
	CRTSimplesExcessoSublim = "2"
	CRTRegimeNormal         = "3"
	CRTSimplesMEI           = "4"
)

// IsSimplesNacional indica si el CRT usa el grupo ICMSSN (CSOSN) en lugar de CST.
func IsSimplesNacional(crt string) bool {
	return crt == CRTSimplesNacional || crt == CRTSimplesExcessoSublim || crt == CRTSimplesMEI
}

// =============================================================================
// CSOSN / CST soportados por el constructor simplificado
// =============================================================================

// SupportedCSOSN: CSOSN sin crédito ni ST (grupo ICMSSN102).
var SupportedCSOSN = map[string]bool{"102": true, "103": true, "300": true, "400": true}

// SupportedICMSCST: CST exentos/no tributados (grupo ICMS40).
var SupportedICMSCST = map[string]bool{"40": true, "41": true, "50": true}

// PISCOFINSNonTaxedCST: CST de PIS/COFINS no tributados (grupos PISNT/COFINSNT).
var PISCOFINSNonTaxedCST = map[string]bool{"04": true, "05": true, "06": true, "07": true, "08": true, "09": true}

// PISCOFINSOtherCST: CST informados con base y valor cero (grupos PISOutr/COFINSOutr).
var PISCOFINSOtherCST = map[string]bool{"49": true, "99": true}

// =============================================================================
// Otros códigos de ide / transp / pag
// =============================================================================

const (
	OperationExit         = "1" // tpNF: saída
	DestinationInternal   = "1" // idDest: operação interna
	DestinationInterstate = "2"
	PrintDANFEPortrait    = "1" // tpImp
	PurposeNormal         = "1" // finNFe
	FinalConsumerYes      = "1" // indFinal
	PresenceInPerson      = "1" // indPres
	ProcessOwnApp         = "0" // procEmi: aplicativo do contribuinte
	FreightNone           = "9" // modFrete: sem ocorrência de transporte
	PaymentCash           = "01"
	CountryBrazilCode     = "1058"
	CountryBrazilName     = "BRASIL"
	DefaultNatureOfOp     = "VENDA DE MERCADORIA"
	NoGTIN                = "SEM GTIN"
)

// indIEDest - indicador de IE del destinatario.
const (
	RecipientIEContributor = "1" // Contribuinte ICMS
	RecipientIEExempt      = "2" // Contribuinte isento
	RecipientIENone        = "9" // Não contribuinte
)

// =============================================================================
// cUF - Códigos IBGE de las unidades federativas
// =============================================================================

// StateCodes mapea la sigla de la UF a su código IBGE.
var StateCodes = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27", "SE": "28", "BA": "29",
	"MG": "31", "ES": "32", "RJ": "33", "SP": "35",
	"PR": "41", "SC": "42", "RS": "43",
	"MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

// StateCodeSP es el único cUF con endpoint de autorização configurado.
const StateCodeSP = "35"
