/*
handlers.go - HTTP API handlers for the team billing system

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/login             Sign in, returns bearer token
    POST   /api/auth/logout            Invalidate the session
    GET    /api/auth/session           Describe the current session

  Pilots:
    GET    /api/pilots                 Dashboard: pilots + month ledger + totals
    POST   /api/pilots                 Provision pilot (+ optional login)
    GET    /api/pilots/{id}            One pilot's month ledger
    PUT    /api/pilots/{id}            Update pilot fields
    DELETE /api/pilots/{id}            Deprovision pilot fully
    POST   /api/pilots/{id}/expenses         Append expense
    POST   /api/pilots/{id}/reimbursements   Append reimbursement
    GET    /api/pilots/{id}/history    Closing history for one pilot

  Closings:
    GET    /api/history                Closing history (scope-wide)
    POST   /api/admin/closings/run     Trigger closing sweep now

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (billing, closing, provision)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401/403: Auth failures (see auth.go)
  - 404: Resource not found
  - 409: Conflict (email taken, month already closed)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Session middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/paddock/billing-engine/billing"
	"github.com/paddock/billing-engine/closing"
	"github.com/paddock/billing-engine/docstore"
	"github.com/paddock/billing-engine/identity"
	"github.com/paddock/billing-engine/provision"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      billing.Store
	Identities identity.Provider
	Engine     *closing.Engine
	Workflow   *provision.Workflow
	Documents  docstore.Store
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store billing.Store, identities identity.Provider, engine *closing.Engine, workflow *provision.Workflow, documents docstore.Store) *Handler {
	return &Handler{
		Store:      store,
		Identities: identities,
		Engine:     engine,
		Workflow:   workflow,
		Documents:  documents,
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login authenticates and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	session, err := h.Identities.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to sign in", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionDTO(session, true))
}

// Logout invalidates the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.Identities.SignOut(r.Context(), token); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to sign out", err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession describes the authenticated caller.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, toSessionDTO(session, false))
}

// =============================================================================
// PILOT HANDLERS
// =============================================================================

// ListPilots returns the dashboard: every pilot the caller can see,
// with the current month's ledger rows and totals.
func (h *Handler) ListPilots(w http.ResponseWriter, r *http.Request) {
	scope := sessionFrom(r.Context()).Scope
	window := billing.CurrentMonth().Window()

	ledgers, err := h.Store.ListPilots(r.Context(), scope, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pilots", err)
		return
	}

	dtos := make([]PilotLedgerDTO, len(ledgers))
	for i, pl := range ledgers {
		dtos[i] = toPilotLedgerDTO(pl)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPilot returns one pilot's current month ledger.
func (h *Handler) GetPilot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scope := sessionFrom(r.Context()).Scope

	if !scope.CanSee(id) {
		writeError(w, http.StatusNotFound, "Pilot not found", nil)
		return
	}

	pl, err := h.Store.GetPilotLedger(r.Context(), id, billing.CurrentMonth().Window())
	if err != nil {
		if errors.Is(err, billing.ErrPilotNotFound) {
			writeError(w, http.StatusNotFound, "Pilot not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pilot", err)
		return
	}

	writeJSON(w, http.StatusOK, toPilotLedgerDTO(*pl))
}

// CreatePilot provisions a pilot with an optional login account.
func (h *Handler) CreatePilot(w http.ResponseWriter, r *http.Request) {
	var req CreatePilotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	baseFee, err := parseAmount(req.BaseFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_fee (use a decimal string)", err)
		return
	}

	result, err := h.Workflow.Create(r.Context(), provision.CreateInput{
		Name:         req.Name,
		Category:     req.Category,
		BaseFee:      baseFee,
		ClosingDay:   req.ClosingDay,
		Observations: req.Observations,
		Email:        req.Email,
		Password:     req.Password,
	})
	if err != nil {
		writeDomainError(w, "Failed to create pilot", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatePilotResponse{
		PilotID:      result.PilotID,
		IdentityID:   result.IdentityID,
		Message:      result.Message,
		TempPassword: result.TempPassword,
	})
}

// UpdatePilot updates pilot fields.
func (h *Handler) UpdatePilot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdatePilotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	baseFee, err := parseAmount(req.BaseFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_fee (use a decimal string)", err)
		return
	}

	err = h.Workflow.Update(r.Context(), billing.Pilot{
		ID:           id,
		Name:         req.Name,
		Category:     req.Category,
		BaseFee:      baseFee,
		ClosingDay:   req.ClosingDay,
		Observations: req.Observations,
	})
	if err != nil {
		writeDomainError(w, "Failed to update pilot", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePilot deprovisions a pilot: profile, identity, pilot row.
func (h *Handler) DeletePilot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Workflow.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete pilot", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER ENTRY HANDLERS
// =============================================================================

// AddExpense appends an expense row for the pilot.
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, billing.KindExpense)
}

// AddReimbursement appends a reimbursement row for the pilot.
func (h *Handler) AddReimbursement(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, billing.KindReimbursement)
}

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request, kind billing.EntryKind) {
	pilotID := chi.URLParam(r, "id")

	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a decimal string)", err)
		return
	}
	if amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Amount must not be negative", nil)
		return
	}

	entry := billing.Entry{
		PilotID:     pilotID,
		Kind:        kind,
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}

	id, err := h.Store.AddEntry(r.Context(), entry)
	if err != nil {
		writeDomainError(w, "Failed to add entry", err)
		return
	}
	entry.ID = id

	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// =============================================================================
// CLOSING HANDLERS
// =============================================================================

// ListHistory returns closing history visible to the caller. An
// optional pilot_id query narrows to one pilot.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	scope := sessionFrom(r.Context()).Scope
	pilotID := r.URL.Query().Get("pilot_id")

	h.writeClosings(w, r, scope, pilotID)
}

// ListPilotHistory returns closing history for one pilot.
func (h *Handler) ListPilotHistory(w http.ResponseWriter, r *http.Request) {
	scope := sessionFrom(r.Context()).Scope
	pilotID := chi.URLParam(r, "id")

	if !scope.CanSee(pilotID) {
		writeError(w, http.StatusNotFound, "Pilot not found", nil)
		return
	}

	h.writeClosings(w, r, scope, pilotID)
}

func (h *Handler) writeClosings(w http.ResponseWriter, r *http.Request, scope billing.Scope, pilotID string) {
	records, err := h.Store.ListClosings(r.Context(), scope, pilotID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list closings", err)
		return
	}

	dtos := make([]ClosingDTO, len(records))
	for i, rec := range records {
		dtos[i] = ClosingDTO{
			ID:          rec.ID,
			PilotID:     rec.PilotID,
			Month:       rec.Month.String(),
			TotalAmount: rec.TotalAmount.String(),
			DocumentURL: h.Documents.PublicURL(rec.DocumentPath),
			CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunClosings triggers an immediate closing sweep.
func (h *Handler) RunClosings(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Closing sweep failed", err)
		return
	}

	closed := result.Closed
	if closed == nil {
		closed = []string{}
	}
	writeJSON(w, http.StatusOK, ScanResultDTO{
		Closed:  closed,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	})
}

// =============================================================================
// MAPPING & HELPERS
// =============================================================================

func toSessionDTO(s *identity.Session, includeToken bool) SessionDTO {
	dto := SessionDTO{
		Email:     s.Email,
		Role:      string(s.Scope.Role),
		PilotID:   s.Scope.PilotID,
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
	}
	if includeToken {
		dto.Token = s.Token
	}
	return dto
}

func toPilotDTO(p billing.Pilot) PilotDTO {
	return PilotDTO{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		BaseFee:      p.BaseFee.String(),
		ClosingDay:   p.ClosingDay,
		Observations: p.Observations,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTO(e billing.Entry) EntryDTO {
	return EntryDTO{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Description: e.Description,
		Amount:      e.Amount.String(),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func toPilotLedgerDTO(pl billing.PilotLedger) PilotLedgerDTO {
	totals := pl.Totals()

	expenses := make([]EntryDTO, len(pl.Expenses))
	for i, e := range pl.Expenses {
		expenses[i] = toEntryDTO(e)
	}
	reimbursements := make([]EntryDTO, len(pl.Reimbursements))
	for i, e := range pl.Reimbursements {
		reimbursements[i] = toEntryDTO(e)
	}

	return PilotLedgerDTO{
		Pilot:          toPilotDTO(pl.Pilot),
		Expenses:       expenses,
		Reimbursements: reimbursements,
		Totals: TotalsDTO{
			BaseFee:        pl.BaseFee.String(),
			Expenses:       totals.Expenses.String(),
			Reimbursements: totals.Reimbursements.String(),
			Total:          totals.Total.String(),
		},
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// writeDomainError classifies a domain error into an HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case billing.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case billing.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
