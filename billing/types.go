/*
Package billing provides the core domain model for the team's monthly
pilot billing.

PURPOSE:
  This package contains the domain types and algorithms shared by every
  other layer: pilots, their ledger entries (extra expenses and
  reimbursements), month references, totals aggregation, and the access
  scope carried through each store call.

KEY CONCEPTS IN THIS FILE (types.go):
  - Pilot: A team member billed monthly (base fee + closing day)
  - Entry: An append-only ledger row (expense or reimbursement)
  - PilotLedger: A pilot with its ledger snapshot for one month window
  - ClosingRecord: The immutable point-in-time result of a monthly close

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for money; no float drift
  2. Immutability: Ledger entries and closing records are never edited
  3. Derivation: Totals are always recomputed from entries, never cached
     outside a finalized ClosingRecord

SEE ALSO:
  - totals.go: Monthly totals aggregation
  - month.go: Month references and windows
  - store.go: Persistence interface
  - errors.go: Error taxonomy
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLE & SCOPE
// =============================================================================

// Role classifies what an authenticated actor may do.
type Role string

const (
	RoleAdmin Role = "admin"
	RolePilot Role = "pilot"
)

// Scope is the capability object threaded through every store query.
// Replaces the original's database-side row filtering: the application
// boundary applies it explicitly so correctness does not depend on an
// external policy engine being configured.
type Scope struct {
	Role    Role
	PilotID string // set when Role == RolePilot
}

// AdminScope returns a scope with full visibility.
func AdminScope() Scope { return Scope{Role: RoleAdmin} }

// PilotScope returns a scope restricted to a single pilot's rows.
func PilotScope(pilotID string) Scope {
	return Scope{Role: RolePilot, PilotID: pilotID}
}

// IsAdmin reports whether the scope carries elevated privilege.
func (s Scope) IsAdmin() bool { return s.Role == RoleAdmin }

// CanSee reports whether rows owned by pilotID are visible to the scope.
func (s Scope) CanSee(pilotID string) bool {
	return s.IsAdmin() || (s.Role == RolePilot && s.PilotID == pilotID)
}

// =============================================================================
// PILOT
// =============================================================================

// Pilot is a team member being billed monthly. ClosingDay is the
// day-of-month (1-31) on which the automatic closing runs.
type Pilot struct {
	ID           string
	Name         string
	Category     string
	BaseFee      decimal.Decimal
	ClosingDay   int
	Observations string
	CreatedAt    time.Time
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// EntryKind distinguishes the two ledger row types.
type EntryKind string

const (
	KindExpense       EntryKind = "expense"       // extra charge, increases total
	KindReimbursement EntryKind = "reimbursement" // credit, decreases total
)

// Entry is a single append-only ledger row. The zero Amount counts as
// zero in aggregation, matching the defensive default for absent values.
type Entry struct {
	ID          string
	PilotID     string
	Kind        EntryKind
	Description string
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

// PilotLedger is a pilot together with its ledger rows restricted to one
// month window. This is the input snapshot for totals and closing.
type PilotLedger struct {
	Pilot
	Expenses       []Entry
	Reimbursements []Entry
}

// =============================================================================
// CLOSING RECORD
// =============================================================================

// ClosingRecord is the immutable history row created exactly once per
// (pilot, month). TotalAmount is the only place a computed total is
// persisted; it is a finalized snapshot, not a cache.
type ClosingRecord struct {
	ID           string
	PilotID      string
	Month        MonthRef
	TotalAmount  decimal.Decimal
	DocumentPath string
	CreatedAt    time.Time
}
