package billing

import "github.com/shopspring/decimal"

// =============================================================================
// MONTHLY TOTALS - pure aggregation over one month's ledger snapshot
// =============================================================================

// Totals is the derived monthly summary. It is recomputed on every read
// and never persisted outside a finalized ClosingRecord.
type Totals struct {
	Expenses       decimal.Decimal
	Reimbursements decimal.Decimal
	Total          decimal.Decimal // BaseFee + Expenses - Reimbursements
}

// CalculateTotals aggregates one pilot's month: sum of expense amounts,
// sum of reimbursement amounts, and the amount due. Entry order is
// irrelevant and zero-value amounts count as zero, so a row with an
// absent amount can never fail aggregation. Side-effect free; safe to
// call concurrently on copies of the same snapshot.
func CalculateTotals(baseFee decimal.Decimal, expenses, reimbursements []Entry) Totals {
	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
	}

	totalReimbursements := decimal.Zero
	for _, r := range reimbursements {
		totalReimbursements = totalReimbursements.Add(r.Amount)
	}

	return Totals{
		Expenses:       totalExpenses,
		Reimbursements: totalReimbursements,
		Total:          baseFee.Add(totalExpenses).Sub(totalReimbursements),
	}
}

// Totals computes the monthly totals for the ledger snapshot.
func (pl PilotLedger) Totals() Totals {
	return CalculateTotals(pl.BaseFee, pl.Expenses, pl.Reimbursements)
}
