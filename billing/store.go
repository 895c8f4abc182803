/*
store.go - Persistence interface for pilots, ledger entries, and history

PURPOSE:
  Defines the boundary between the domain logic and the database. The
  closing engine and the provisioning workflow only ever talk to this
  interface, so the same code runs against SQLite in production and the
  in-memory store in tests.

KEY CONTRACTS:
  - Ledger entries are append-only: no Update, no Delete. Ever.
  - InsertClosing MUST enforce uniqueness on (pilot_id, month_reference)
    and report a violation as ErrAlreadyClosed. This constraint is the
    sole backstop against two concurrent sessions double-closing a pilot.
  - Read operations take a Scope; implementations filter rows the scope
    cannot see instead of relying on an external policy engine.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - billing/store/memory.go: In-memory for tests

SEE ALSO:
  - closing/engine.go: Primary consumer
  - provision/workflow.go: Pilot create/update/delete path
*/
package billing

import "context"

// Store handles persistence of pilots, their ledgers, and closing history.
type Store interface {
	// ListPilots returns pilots visible to the scope, each with its
	// ledger entries restricted to the window, ordered by name.
	ListPilots(ctx context.Context, scope Scope, window Window) ([]PilotLedger, error)

	// GetPilot returns one pilot, or ErrPilotNotFound.
	GetPilot(ctx context.Context, id string) (*Pilot, error)

	// GetPilotLedger returns one pilot with its ledger restricted to the
	// window, or ErrPilotNotFound.
	GetPilotLedger(ctx context.Context, id string, window Window) (*PilotLedger, error)

	// InsertPilot creates a pilot and returns its id.
	InsertPilot(ctx context.Context, p Pilot) (string, error)

	// UpdatePilot updates pilot fields, or ErrPilotNotFound.
	UpdatePilot(ctx context.Context, p Pilot) error

	// DeletePilot removes a pilot and its ledger rows.
	DeletePilot(ctx context.Context, id string) error

	// AddEntry appends one ledger row (expense or reimbursement).
	AddEntry(ctx context.Context, e Entry) (string, error)

	// ListClosings returns history rows for one pilot, newest first,
	// or every pilot's rows when pilotID is empty (admin scope only).
	ListClosings(ctx context.Context, scope Scope, pilotID string) ([]ClosingRecord, error)

	// ClosedPilots returns the set of pilot ids already closed for the month.
	ClosedPilots(ctx context.Context, month MonthRef) (map[string]bool, error)

	// InsertClosing creates the history row for a finished close.
	// Returns ErrAlreadyClosed if a row for (pilot, month) exists.
	InsertClosing(ctx context.Context, rec ClosingRecord) error
}
