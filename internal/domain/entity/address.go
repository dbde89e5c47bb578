package entity

// Address endereço estructurado (enderEmit / enderDest).
type Address struct {
	Street           string `json:"street"`            // xLgr
	Number           string `json:"number"`            // nro
	Complement       string `json:"complement,omitempty"`
	District         string `json:"district"`          // xBairro
	MunicipalityCode string `json:"municipality_code"` // cMun (IBGE, 7 dígitos)
	MunicipalityName string `json:"municipality_name"` // xMun
	State            string `json:"state"`             // UF (sigla)
	PostalCode       string `json:"postal_code"`       // CEP
	Phone            string `json:"phone,omitempty"`
}
