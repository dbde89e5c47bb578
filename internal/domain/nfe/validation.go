package nfe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/NFe-api/internal/domain/entity"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// Precisión máxima aceptada en la entrada (qCom y vUnCom del layout 4.00).
const (
	QuantityDecimals  = 4
	UnitValueDecimals = 10
	MoneyDecimals     = 2
)

// ValidateIssuer comprueba que el perfil del emisor tenga los campos que exige el layout.
func ValidateIssuer(p *entity.IssuerProfile) error {
	if p == nil {
		return NewBuildError("emit", "perfil del emisor ausente")
	}
	if len(pkgnfe.OnlyDigits(p.CNPJ)) != 14 {
		return NewBuildError("emit.CNPJ", "debe tener 14 dígitos")
	}
	if strings.TrimSpace(p.LegalName) == "" {
		return NewBuildError("emit.xNome", "obligatorio")
	}
	if strings.TrimSpace(p.StateRegistration) == "" {
		return NewBuildError("emit.IE", "obligatorio")
	}
	if p.TaxRegime == "" {
		return NewBuildError("emit.CRT", "obligatorio")
	}
	if len(pkgnfe.OnlyDigits(p.StateCode)) != 2 {
		return NewBuildError("cUF", "debe tener 2 dígitos")
	}
	if p.NextNumber < 1 {
		return NewBuildError("nNF", "la numeración debe iniciar en 1")
	}
	if _, err := NormalizeAddress("enderEmit", p.Address); err != nil {
		return err
	}
	return nil
}

// RecipientInput datos del destinatario tal como llegan (cadastro o inline).
type RecipientInput struct {
	Name              string
	TaxID             string
	StateRegistration string
	Email             string
	Address           entity.Address
}

// BuildRecipient discrimina CNPJ/CPF por largo y deriva indIEDest.
func BuildRecipient(in RecipientInput) (entity.Recipient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return entity.Recipient{}, NewBuildError("dest.xNome", "obligatorio")
	}
	r := entity.Recipient{
		Name:  name,
		Email: strings.TrimSpace(in.Email),
	}
	doc := pkgnfe.OnlyDigits(in.TaxID)
	switch len(doc) {
	case 14:
		r.CNPJ = doc
	case 11:
		r.CPF = doc
	case 0:
		return entity.Recipient{}, NewBuildError("dest.CNPJ/CPF", "obligatorio")
	default:
		return entity.Recipient{}, NewBuildError("dest.CNPJ/CPF", fmt.Sprintf("largo %d inválido (11 o 14 dígitos)", len(doc)))
	}

	ie := strings.ToUpper(strings.TrimSpace(in.StateRegistration))
	switch {
	case ie == "ISENTO":
		r.IEIndicator = pkgnfe.RecipientIEExempt
	case ie != "" && r.CNPJ != "":
		r.IEIndicator = pkgnfe.RecipientIEContributor
		r.StateRegistration = pkgnfe.OnlyDigits(ie)
	default:
		r.IEIndicator = pkgnfe.RecipientIENone
	}

	addr, err := NormalizeAddress("enderDest", in.Address)
	if err != nil {
		return entity.Recipient{}, err
	}
	r.Address = addr
	return r, nil
}

// ValidateLineItems valida cada línea: campos obligatorios, valores no negativos y precisión.
// Devuelve todos los problemas encontrados (errors.Join); el primero es siempre un BuildError.
func ValidateLineItems(items []entity.LineItem) error {
	if len(items) == 0 {
		return NewBuildError("det", "la venta debe tener al menos una línea")
	}
	if len(items) > 990 {
		return NewBuildError("det", "máximo 990 líneas por NF-e")
	}
	var errs []error
	for i, it := range items {
		prefix := fmt.Sprintf("det[%d].", i+1)
		if strings.TrimSpace(it.ProductCode) == "" {
			errs = append(errs, NewBuildError(prefix+"cProd", "obligatorio"))
		}
		if strings.TrimSpace(it.Description) == "" {
			errs = append(errs, NewBuildError(prefix+"xProd", "obligatorio"))
		}
		if ncm := pkgnfe.OnlyDigits(it.NCM); len(ncm) != 8 {
			errs = append(errs, NewBuildError(prefix+"NCM", "debe tener 8 dígitos"))
		}
		if cfop := pkgnfe.OnlyDigits(it.CFOP); len(cfop) != 4 {
			errs = append(errs, NewBuildError(prefix+"CFOP", "debe tener 4 dígitos"))
		}
		if strings.TrimSpace(it.Unit) == "" {
			errs = append(errs, NewBuildError(prefix+"uCom", "obligatorio"))
		}
		if it.Quantity.IsNegative() {
			errs = append(errs, NewBuildError(prefix+"qCom", "no puede ser negativa"))
		} else if exceedsPrecision(it.Quantity, QuantityDecimals) {
			errs = append(errs, NewBuildError(prefix+"qCom", "máximo 4 decimales"))
		}
		if it.UnitValue.IsNegative() {
			errs = append(errs, NewBuildError(prefix+"vUnCom", "no puede ser negativo"))
		} else if exceedsPrecision(it.UnitValue, UnitValueDecimals) {
			errs = append(errs, NewBuildError(prefix+"vUnCom", "máximo 10 decimales"))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func exceedsPrecision(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Truncate(places))
}

// SumTotals suma los vProd de las líneas (2 decimales).
func SumTotals(items []entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total())
	}
	return total.Round(MoneyDecimals)
}
