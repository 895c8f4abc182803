/*
Package provision keeps a pilot, its login identity, and its permission
profile consistent as a single logical unit.

PURPOSE:
  Creating a pilot with a login touches three records: the identity
  (credential), the pilot row, and the profile binding them. No
  distributed transaction spans the identity provider and the store, so
  the workflow is transactional by convention: each forward step pushes
  its compensating action, and any failure unwinds the stack in
  reverse-creation order before the error propagates.

CREATE ORDER (and its inverse on failure):
  1. validate input              ->  (nothing to undo)
  2. create identity             ->  delete identity
  3. confirm identity            ->  delete identity
  4. insert pilot                ->  delete pilot, delete identity
  5. link pilot profile          ->  delete pilot, delete identity

  Without an email the workflow degenerates to step 4 alone: the pilot
  is inserted with no login account.

DELETE ORDER:
  profile -> identity -> pilot (dependency order; an orphaned identity
  with no pilot, or an authless pilot nobody meant to keep, is the
  failure mode this ordering prevents). Deleting the pilot hard-deletes
  its ledger history; callers must confirm before invoking.

SEE ALSO:
  - identity/identity.go: Provider boundary used for steps 2/3/5
  - billing/store.go: Pilot persistence
*/
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paddock/billing-engine/billing"
	"github.com/paddock/billing-engine/identity"
)

// Workflow provisions and deprovisions pilots with their identities.
type Workflow struct {
	Store      billing.Store
	Identities identity.Provider
}

func NewWorkflow(store billing.Store, identities identity.Provider) *Workflow {
	return &Workflow{Store: store, Identities: identities}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateInput carries the pilot fields plus the login to provision.
type CreateInput struct {
	Name         string
	Category     string
	BaseFee      decimal.Decimal
	ClosingDay   int
	Observations string

	Email    string
	Password string // optional; a temporary credential is generated when empty
}

// CreateResult reports the created ids and a human-readable
// confirmation. TempPassword is set only when the credential was
// generated; a caller-supplied password is never echoed back.
type CreateResult struct {
	PilotID      string
	IdentityID   string
	Message      string
	TempPassword string
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &billing.ValidationError{Field: "name", Reason: "required"}
	}
	if in.BaseFee.IsNegative() {
		return &billing.ValidationError{Field: "baseFee", Reason: "must not be negative"}
	}
	if in.ClosingDay < 1 || in.ClosingDay > 31 {
		return &billing.ValidationError{Field: "closingDay", Reason: "must be between 1 and 31"}
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		// No-login pilot: no identity is provisioned, so nothing else
		// to check. A password without an email is a caller mistake.
		if in.Password != "" {
			return &billing.ValidationError{Field: "email", Reason: "required when a password is supplied"}
		}
		return nil
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return &billing.ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return nil
}

// Create provisions the (identity, pilot, profile) triple. When no
// email is given the pilot is inserted directly with no login account.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Email) == "" {
		return w.createWithoutLogin(ctx, in)
	}

	password := in.Password
	generated := false
	if password == "" {
		// Same shape as the legacy flow: 12 chars of a random UUID.
		password = uuid.NewString()[:12]
		generated = true
	}

	var comps compensationStack
	fail := func(step string, err error) error {
		failures := comps.rollback(ctx)
		wrapped := fmt.Errorf("%s: %w", step, err)
		if len(failures) > 0 {
			return fmt.Errorf("%w (rollback incomplete: %v)", wrapped, failures)
		}
		return wrapped
	}

	identityID, err := w.Identities.Create(ctx, in.Email, password)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	comps.push("delete identity "+identityID, func(ctx context.Context) error {
		return w.Identities.Delete(ctx, identityID)
	})

	if err := w.Identities.Confirm(ctx, identityID); err != nil {
		return nil, fail("confirm identity", err)
	}

	pilotID, err := w.Store.InsertPilot(ctx, billing.Pilot{
		Name:         strings.TrimSpace(in.Name),
		Category:     in.Category,
		BaseFee:      in.BaseFee,
		ClosingDay:   in.ClosingDay,
		Observations: in.Observations,
	})
	if err != nil {
		return nil, fail("insert pilot", err)
	}
	comps.push("delete pilot "+pilotID, func(ctx context.Context) error {
		return w.Store.DeletePilot(ctx, pilotID)
	})

	if err := w.Identities.LinkPilotProfile(ctx, identityID, pilotID); err != nil {
		return nil, fail("link profile", err)
	}

	result := &CreateResult{
		PilotID:    pilotID,
		IdentityID: identityID,
		Message:    fmt.Sprintf("Pilot %s and account for %s created.", in.Name, in.Email),
	}
	if generated {
		result.TempPassword = password
		result.Message += " Temporary password: " + password
	}
	return result, nil
}

// createWithoutLogin inserts the pilot row alone. A single store write
// needs no compensation.
func (w *Workflow) createWithoutLogin(ctx context.Context, in CreateInput) (*CreateResult, error) {
	pilotID, err := w.Store.InsertPilot(ctx, billing.Pilot{
		Name:         strings.TrimSpace(in.Name),
		Category:     in.Category,
		BaseFee:      in.BaseFee,
		ClosingDay:   in.ClosingDay,
		Observations: in.Observations,
	})
	if err != nil {
		return nil, fmt.Errorf("insert pilot: %w", err)
	}
	return &CreateResult{
		PilotID: pilotID,
		Message: fmt.Sprintf("Pilot %s created (no login account).", in.Name),
	}, nil
}

// =============================================================================
// UPDATE
// =============================================================================

// Update performs a plain field update. No identity or profile side
// effects; requires an existing id.
func (w *Workflow) Update(ctx context.Context, p billing.Pilot) error {
	if p.ID == "" {
		return &billing.ValidationError{Field: "id", Reason: "required"}
	}
	if p.BaseFee.IsNegative() {
		return &billing.ValidationError{Field: "baseFee", Reason: "must not be negative"}
	}
	if p.ClosingDay < 1 || p.ClosingDay > 31 {
		return &billing.ValidationError{Field: "closingDay", Reason: "must be between 1 and 31"}
	}
	return w.Store.UpdatePilot(ctx, p)
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes the pilot, its profile, and its identity as one
// logical operation. Destructive and irreversible: the pilot's ledger
// history goes with it. Pilots without a login (legacy) skip the
// identity steps.
func (w *Workflow) Delete(ctx context.Context, pilotID string) error {
	if _, err := w.Store.GetPilot(ctx, pilotID); err != nil {
		return err
	}

	profile, err := w.Identities.ProfileByPilot(ctx, pilotID)
	if err != nil {
		return fmt.Errorf("look up profile for pilot %s: %w", pilotID, err)
	}

	if profile != nil {
		if err := w.Identities.UnlinkProfile(ctx, profile.IdentityID); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if err := w.Identities.Delete(ctx, profile.IdentityID); err != nil {
			return fmt.Errorf("delete identity: %w", err)
		}
	}

	if err := w.Store.DeletePilot(ctx, pilotID); err != nil {
		return fmt.Errorf("delete pilot: %w", err)
	}
	return nil
}
