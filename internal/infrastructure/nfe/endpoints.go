package nfe

import (
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// EndpointKey (cUF, ambiente).
type EndpointKey struct {
	StateCode  string
	Production bool
}

// Endpoints tabla de ruteo del web service NFeAutorizacao4.
type Endpoints map[EndpointKey]string

// DefaultEndpoints solo São Paulo está configurado.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		{StateCode: pkgnfe.StateCodeSP, Production: true}:  "https://nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
		{StateCode: pkgnfe.StateCodeSP, Production: false}: "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
	}
}

// Resolve devuelve la URL o *UnsupportedRegionError.
func (e Endpoints) Resolve(stateCode string, production bool) (string, error) {
	if url, ok := e[EndpointKey{StateCode: stateCode, Production: production}]; ok {
		return url, nil
	}
	return "", &domainnfe.UnsupportedRegionError{StateCode: stateCode, Production: production}
}
