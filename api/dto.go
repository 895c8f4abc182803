/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY ON THE WIRE:
  All monetary values are JSON strings ("590.50"), never floats. Clients
  parse them with a decimal library; handlers parse them back with
  shopspring/decimal. Floats never touch an amount.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: Domain model these map from
*/
package api

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest is the request to sign in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionDTO describes the authenticated caller.
type SessionDTO struct {
	Token     string `json:"token,omitempty"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	PilotID   string `json:"pilot_id,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

// =============================================================================
// PILOTS & LEDGER
// =============================================================================

// PilotDTO represents a pilot in API responses.
type PilotDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	BaseFee      string `json:"base_fee"`
	ClosingDay   int    `json:"closing_day"`
	Observations string `json:"observations,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// EntryDTO is one ledger row (expense or reimbursement).
type EntryDTO struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	CreatedAt   string `json:"created_at"`
}

// PilotLedgerDTO is the dashboard card: a pilot, the current month's
// ledger rows, and the running totals.
type PilotLedgerDTO struct {
	Pilot          PilotDTO   `json:"pilot"`
	Expenses       []EntryDTO `json:"expenses"`
	Reimbursements []EntryDTO `json:"reimbursements"`
	Totals         TotalsDTO  `json:"totals"`
}

// TotalsDTO carries the month's aggregates as decimal strings.
type TotalsDTO struct {
	BaseFee        string `json:"base_fee"`
	Expenses       string `json:"expenses"`
	Reimbursements string `json:"reimbursements"`
	Total          string `json:"total"`
}

// CreatePilotRequest provisions a pilot, optionally with a login account.
type CreatePilotRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	BaseFee      string `json:"base_fee"`
	ClosingDay   int    `json:"closing_day"`
	Observations string `json:"observations"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
}

// CreatePilotResponse reports the provisioning outcome. TempPassword is
// set only when the server generated one.
type CreatePilotResponse struct {
	PilotID      string `json:"pilot_id"`
	IdentityID   string `json:"identity_id,omitempty"`
	Message      string `json:"message"`
	TempPassword string `json:"temp_password,omitempty"`
}

// UpdatePilotRequest updates pilot fields.
type UpdatePilotRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	BaseFee      string `json:"base_fee"`
	ClosingDay   int    `json:"closing_day"`
	Observations string `json:"observations"`
}

// AddEntryRequest appends one expense or reimbursement.
type AddEntryRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// =============================================================================
// CLOSINGS
// =============================================================================

// ClosingDTO is one month's closed statement.
type ClosingDTO struct {
	ID          string `json:"id"`
	PilotID     string `json:"pilot_id"`
	Month       string `json:"month_reference"`
	TotalAmount string `json:"total_amount"`
	DocumentURL string `json:"document_url"`
	CreatedAt   string `json:"created_at"`
}

// ScanResultDTO reports a closing sweep.
type ScanResultDTO struct {
	Closed  []string `json:"closed"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
