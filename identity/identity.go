/*
Package identity provides login identities, role profiles, and sessions.

PURPOSE:
  The rest of the system consumes authentication through the Provider
  boundary: create/confirm/delete identities (used by the provisioning
  workflow), sign-in/sign-out, and session resolution into an explicit
  billing.Scope. There is no shared mutable role cache; every request
  resolves its scope from its own session, and sign-out deletes the
  session row so invalidation is immediate even though tokens are
  self-contained.

MODEL:
  Identity 1:1 Profile. A profile carries a role; pilot-role profiles
  reference their pilot. Pilots without any identity are a supported
  first-class state (legacy, admin-created without login).

SEE ALSO:
  - identity/local.go: bcrypt + signed-token implementation
  - provision/workflow.go: The only caller allowed to create the
    identity/pilot/profile triple
*/
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/paddock/billing-engine/billing"
)

// ErrBadCredentials is returned by SignIn for a wrong email/password
// pair or an unconfirmed identity. Deliberately indistinct.
var ErrBadCredentials = errors.New("invalid email or password")

// Identity is a login credential record.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	Confirmed    bool
	CreatedAt    time.Time
}

// Profile binds an identity to a role and, for pilot-role profiles,
// to its pilot record.
type Profile struct {
	IdentityID string
	Role       billing.Role
	PilotID    string // set when Role == billing.RolePilot
}

// Session is an authenticated actor. Scope is what store queries use.
type Session struct {
	Token      string
	IdentityID string
	Email      string
	Scope      billing.Scope
	ExpiresAt  time.Time
}

// Provider is the identity boundary consumed by the API and the
// provisioning workflow.
type Provider interface {
	// Create registers a new identity, or billing.ErrEmailInUse.
	Create(ctx context.Context, email, password string) (string, error)

	// Confirm marks an identity as usable for sign-in.
	Confirm(ctx context.Context, id string) error

	// Delete removes an identity with its profile and sessions.
	Delete(ctx context.Context, id string) error

	// LinkPilotProfile attaches a pilot-role profile to an identity.
	LinkPilotProfile(ctx context.Context, identityID, pilotID string) error

	// LinkAdminProfile attaches an admin-role profile to an identity.
	LinkAdminProfile(ctx context.Context, identityID string) error

	// UnlinkProfile removes an identity's profile.
	UnlinkProfile(ctx context.Context, identityID string) error

	// ProfileByPilot returns the profile referencing a pilot, or nil
	// when the pilot has no login identity.
	ProfileByPilot(ctx context.Context, pilotID string) (*Profile, error)

	// SignIn authenticates and opens a session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignOut invalidates the session behind the token. Unknown tokens
	// are a no-op.
	SignOut(ctx context.Context, token string) error

	// CurrentSession resolves a token to its live session, or
	// billing.ErrSessionInvalid.
	CurrentSession(ctx context.Context, token string) (*Session, error)

	// HasActiveAdmin reports whether any unexpired admin session
	// exists. The closing scheduler gates on this.
	HasActiveAdmin(ctx context.Context) (bool, error)
}

// Store is the persistence required by the local provider.
type Store interface {
	InsertIdentity(ctx context.Context, rec Identity) error
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	ConfirmIdentity(ctx context.Context, id string) error
	DeleteIdentity(ctx context.Context, id string) error

	InsertProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, identityID string) (*Profile, error)
	GetProfileByPilot(ctx context.Context, pilotID string) (*Profile, error)
	DeleteProfile(ctx context.Context, identityID string) error

	InsertSession(ctx context.Context, id, identityID string, expiresAt time.Time) error
	GetSession(ctx context.Context, id string) (identityID string, expiresAt time.Time, err error)
	DeleteSession(ctx context.Context, id string) error
	HasActiveAdminSession(ctx context.Context, now time.Time) (bool, error)
}
