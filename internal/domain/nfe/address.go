package nfe

import (
	"encoding/json"
	"strings"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// addressPayload acepta las claves en inglés (API) y en portugués (cadastro legado).
type addressPayload struct {
	Street           string `json:"street"`
	Logradouro       string `json:"logradouro"`
	Number           string `json:"number"`
	Numero           string `json:"numero"`
	Complement       string `json:"complement"`
	Complemento      string `json:"complemento"`
	District         string `json:"district"`
	Bairro           string `json:"bairro"`
	MunicipalityCode string `json:"municipality_code"`
	CodigoMunicipio  string `json:"codigo_municipio"`
	MunicipalityName string `json:"municipality_name"`
	Municipio        string `json:"municipio"`
	State            string `json:"state"`
	UF               string `json:"uf"`
	PostalCode       string `json:"postal_code"`
	CEP              string `json:"cep"`
	Phone            string `json:"phone"`
	Telefone         string `json:"telefone"`
}

// ParseAddress convierte un endereço pre-serializado (JSON) en Address.
// Se llama una vez en el borde, antes de entrar al constructor del documento.
func ParseAddress(field, raw string) (entity.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entity.Address{}, NewBuildError(field, "endereço vacío")
	}
	var p addressPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return entity.Address{}, &BuildError{Field: field, Reason: "endereço malformado", Err: err}
	}
	addr := entity.Address{
		Street:           first(p.Street, p.Logradouro),
		Number:           first(p.Number, p.Numero),
		Complement:       first(p.Complement, p.Complemento),
		District:         first(p.District, p.Bairro),
		MunicipalityCode: first(p.MunicipalityCode, p.CodigoMunicipio),
		MunicipalityName: first(p.MunicipalityName, p.Municipio),
		State:            first(p.State, p.UF),
		PostalCode:       first(p.PostalCode, p.CEP),
		Phone:            first(p.Phone, p.Telefone),
	}
	return NormalizeAddress(field, addr)
}

// NormalizeAddress limpia y valida un endereço estructurado.
func NormalizeAddress(field string, a entity.Address) (entity.Address, error) {
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.District = strings.TrimSpace(a.District)
	a.MunicipalityName = strings.TrimSpace(a.MunicipalityName)
	a.MunicipalityCode = pkgnfe.OnlyDigits(a.MunicipalityCode)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.PostalCode = pkgnfe.OnlyDigits(a.PostalCode)
	a.Phone = pkgnfe.OnlyDigits(a.Phone)
	if a.Number == "" {
		a.Number = "S/N"
	}

	switch {
	case a.Street == "":
		return a, NewBuildError(field+".xLgr", "obligatorio")
	case a.District == "":
		return a, NewBuildError(field+".xBairro", "obligatorio")
	case len(a.MunicipalityCode) != 7:
		return a, NewBuildError(field+".cMun", "código IBGE de 7 dígitos obligatorio")
	case a.MunicipalityName == "":
		return a, NewBuildError(field+".xMun", "obligatorio")
	case pkgnfe.StateCodes[a.State] == "":
		return a, NewBuildError(field+".UF", "sigla de UF inválida")
	case a.PostalCode != "" && len(a.PostalCode) != 8:
		return a, NewBuildError(field+".CEP", "debe tener 8 dígitos")
	}
	return a, nil
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
