package entity

import "github.com/shopspring/decimal"

// LineItem línea de la venta (det/prod + imposto).
type LineItem struct {
	ProductCode string
	GTIN        string
	Description string
	NCM         string
	CFOP        string
	Unit        string
	Quantity    decimal.Decimal // 4 decimales
	UnitValue   decimal.Decimal // hasta 10 decimales
	Origin      string          // orig (0..8)
	ICMSCode    string          // CSOSN (Simples) o CST
	PISCode     string          // CST PIS
	COFINSCode  string          // CST COFINS
}

// Total devuelve vProd = qCom × vUnCom con 2 decimales.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitValue).Round(2)
}
