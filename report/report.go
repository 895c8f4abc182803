// Package report renders monthly closing statements.
//
// The closing engine only depends on the Generator boundary: a pure
// function from (pilot snapshot, totals, month) to document bytes,
// deterministic apart from the embedded issue date.
package report

import "github.com/paddock/billing-engine/billing"

// Generator produces the statement document for one pilot's month.
type Generator interface {
	Generate(pilot billing.PilotLedger, totals billing.Totals, month billing.MonthRef) ([]byte, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(billing.PilotLedger, billing.Totals, billing.MonthRef) ([]byte, error)

func (f GeneratorFunc) Generate(p billing.PilotLedger, t billing.Totals, m billing.MonthRef) ([]byte, error) {
	return f(p, t, m)
}
