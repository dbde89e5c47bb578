package nfe

import "time"

// brasilia horario oficial de Brasília. Sin horario de verano desde 2019.
var brasilia = time.FixedZone("BRT", -3*60*60)

// IssueTime lleva t al horario de Brasília. dhEmi y el AAMM de la chave salen del mismo valor.
func IssueTime(t time.Time) time.Time {
	return t.In(brasilia).Truncate(time.Second)
}
