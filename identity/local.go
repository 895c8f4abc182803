package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/paddock/billing-engine/billing"
)

// Local implements Provider against a Store, with bcrypt credential
// hashes and HS256 session tokens. The token only names a session row;
// the row must still exist and be unexpired, so sign-out revokes
// access immediately.
type Local struct {
	store      Store
	secret     []byte
	sessionTTL time.Duration

	// Now is the clock for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.StandardClaims
}

// NewLocal creates a provider. TTL <= 0 defaults to 24h.
func NewLocal(store Store, secret string, sessionTTL time.Duration) *Local {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Local{store: store, secret: []byte(secret), sessionTTL: sessionTTL, Now: time.Now}
}

func (l *Local) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// =============================================================================
// IDENTITY LIFECYCLE
// =============================================================================

func (l *Local) Create(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}

	rec := Identity{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		CreatedAt:    l.now().UTC(),
	}
	if err := l.store.InsertIdentity(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (l *Local) Confirm(ctx context.Context, id string) error {
	return l.store.ConfirmIdentity(ctx, id)
}

func (l *Local) Delete(ctx context.Context, id string) error {
	return l.store.DeleteIdentity(ctx, id)
}

func (l *Local) LinkPilotProfile(ctx context.Context, identityID, pilotID string) error {
	return l.store.InsertProfile(ctx, Profile{
		IdentityID: identityID,
		Role:       billing.RolePilot,
		PilotID:    pilotID,
	})
}

func (l *Local) LinkAdminProfile(ctx context.Context, identityID string) error {
	return l.store.InsertProfile(ctx, Profile{
		IdentityID: identityID,
		Role:       billing.RoleAdmin,
	})
}

func (l *Local) UnlinkProfile(ctx context.Context, identityID string) error {
	return l.store.DeleteProfile(ctx, identityID)
}

func (l *Local) ProfileByPilot(ctx context.Context, pilotID string) (*Profile, error) {
	return l.store.GetProfileByPilot(ctx, pilotID)
}

// =============================================================================
// SESSIONS
// =============================================================================

func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	rec, err := l.store.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, billing.ErrIdentityNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	if !rec.Confirmed {
		return nil, ErrBadCredentials
	}

	now := l.now()
	sessionID := uuid.NewString()
	expiresAt := now.Add(l.sessionTTL)

	if err := l.store.InsertSession(ctx, sessionID, rec.ID, expiresAt.UTC()); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	token, err := l.signToken(sessionID, now, expiresAt)
	if err != nil {
		return nil, err
	}

	scope, err := l.scopeFor(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:      token,
		IdentityID: rec.ID,
		Email:      rec.Email,
		Scope:      scope,
		ExpiresAt:  expiresAt.UTC(),
	}, nil
}

func (l *Local) SignOut(ctx context.Context, token string) error {
	claims, err := l.parseToken(token)
	if err != nil {
		return nil // nothing to revoke
	}
	return l.store.DeleteSession(ctx, claims.SessionID)
}

func (l *Local) CurrentSession(ctx context.Context, token string) (*Session, error) {
	claims, err := l.parseToken(token)
	if err != nil {
		return nil, billing.ErrSessionInvalid
	}

	identityID, expiresAt, err := l.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, billing.ErrSessionInvalid
	}
	if !l.now().Before(expiresAt) {
		l.store.DeleteSession(ctx, claims.SessionID)
		return nil, billing.ErrSessionInvalid
	}

	rec, err := l.store.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, billing.ErrSessionInvalid
	}

	scope, err := l.scopeFor(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:      token,
		IdentityID: rec.ID,
		Email:      rec.Email,
		Scope:      scope,
		ExpiresAt:  expiresAt,
	}, nil
}

func (l *Local) HasActiveAdmin(ctx context.Context) (bool, error) {
	return l.store.HasActiveAdminSession(ctx, l.now().UTC())
}

func (l *Local) scopeFor(ctx context.Context, identityID string) (billing.Scope, error) {
	profile, err := l.store.GetProfile(ctx, identityID)
	if err != nil {
		return billing.Scope{}, err
	}
	if profile == nil {
		// Identity without a profile: authenticated but sees nothing.
		return billing.Scope{}, nil
	}
	if profile.Role == billing.RoleAdmin {
		return billing.AdminScope(), nil
	}
	return billing.PilotScope(profile.PilotID), nil
}

// =============================================================================
// TOKENS
// =============================================================================

func (l *Local) signToken(sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &sessionClaims{
		SessionID: sessionID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})
	signed, err := t.SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (l *Local) parseToken(token string) (*sessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, billing.ErrSessionInvalid
	}
	return claims, nil
}
