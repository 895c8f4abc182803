/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements billing.Store (pilots, ledger entries, closing history)
  and identity.Store (identities, profiles, sessions) in one place.
  In production against PostgreSQL the same patterns apply - only minor
  SQL dialect differences.

KEY TABLES:
  pilots:           Billed team members
  entries:          Append-only ledger (expenses and reimbursements)
  closing_history:  One immutable row per (pilot, month)
  identities:       Login credentials (bcrypt hashes)
  profiles:         Role + pilot binding per identity
  sessions:         Live sessions; deleted on sign-out

CRITICAL CONSTRAINTS:
  - UNIQUE(pilot_id, month_reference) on closing_history is the sole
    backstop against two sessions double-closing a pilot. Violations
    surface as billing.ErrAlreadyClosed.
  - UNIQUE(email) on identities surfaces as billing.ErrEmailInUse.
  - entries has no UPDATE or DELETE statements: the ledger is
    append-only from the application's perspective. Rows disappear only
    through the pilot cascade on full deprovisioning.

MONEY & TIME:
  Decimal amounts are stored as their exact string form and re-parsed
  with shopspring/decimal, so no float drift enters the ledger. Times
  are RFC3339 UTC strings.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/billing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Interface definition and contracts
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/paddock/billing-engine/billing"
	"github.com/paddock/billing-engine/identity"
)

// Store implements billing.Store and identity.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Pilots (billed team members)
	CREATE TABLE IF NOT EXISTS pilots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		base_fee TEXT NOT NULL,
		closing_day INTEGER NOT NULL,
		observations TEXT,
		created_at TEXT NOT NULL
	);

	-- Ledger entries (append-only; removed only via pilot cascade)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		pilot_id TEXT NOT NULL REFERENCES pilots(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('expense', 'reimbursement')),
		description TEXT,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_pilot_created
		ON entries(pilot_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_entries_created
		ON entries(created_at);

	-- Closing history (one row per pilot per month)
	CREATE TABLE IF NOT EXISTS closing_history (
		id TEXT PRIMARY KEY,
		pilot_id TEXT NOT NULL REFERENCES pilots(id) ON DELETE CASCADE,
		month_reference TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		document_path TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: the sole backstop against concurrent double-closing.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_closing_history_unique
		ON closing_history(pilot_id, month_reference);
	CREATE INDEX IF NOT EXISTS idx_closing_history_month
		ON closing_history(month_reference);

	-- Identities (login credentials)
	CREATE TABLE IF NOT EXISTS identities (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		confirmed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Profiles (role + pilot binding, 1:1 with identities)
	CREATE TABLE IF NOT EXISTS profiles (
		identity_id TEXT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('admin', 'pilot')),
		pilot_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_pilot
		ON profiles(pilot_id) WHERE pilot_id IS NOT NULL;

	-- Sessions (deleted on sign-out; expiry checked on read)
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		identity_id TEXT NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_identity
		ON sessions(identity_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires
		ON sessions(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PILOTS (billing.Store)
// =============================================================================

// InsertPilot creates a pilot and returns its id.
func (s *Store) InsertPilot(ctx context.Context, p billing.Pilot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pilots (id, name, category, base_fee, closing_day, observations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.Category), p.BaseFee.String(), p.ClosingDay,
		nullString(p.Observations), p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert pilot: %w", err)
	}
	return p.ID, nil
}

// UpdatePilot updates pilot fields; ErrPilotNotFound when the id is absent.
func (s *Store) UpdatePilot(ctx context.Context, p billing.Pilot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE pilots
		SET name = ?, category = ?, base_fee = ?, closing_day = ?, observations = ?
		WHERE id = ?`,
		p.Name, nullString(p.Category), p.BaseFee.String(), p.ClosingDay,
		nullString(p.Observations), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pilot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return billing.ErrPilotNotFound
	}
	return nil
}

// DeletePilot removes a pilot; entries and history rows cascade.
func (s *Store) DeletePilot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM pilots WHERE id = ?", id)
	return err
}

// GetPilot retrieves a pilot by id.
func (s *Store) GetPilot(ctx context.Context, id string) (*billing.Pilot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPilot(ctx, id)
}

func (s *Store) getPilot(ctx context.Context, id string) (*billing.Pilot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, base_fee, closing_day, observations, created_at
		FROM pilots WHERE id = ?`, id)

	p, err := scanPilot(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrPilotNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPilots returns pilots visible to the scope with their ledger rows
// in the window, ordered by name.
func (s *Store) ListPilots(ctx context.Context, scope billing.Scope, window billing.Window) ([]billing.PilotLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, category, base_fee, closing_day, observations, created_at
		FROM pilots`
	var args []any
	if !scope.IsAdmin() {
		query += " WHERE id = ?"
		args = append(args, scope.PilotID)
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pilots: %w", err)
	}
	defer rows.Close()

	var result []billing.PilotLedger
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPilot(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(result)
		result = append(result, billing.PilotLedger{Pilot: *p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	entries, err := s.queryEntries(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		i, ok := index[e.PilotID]
		if !ok {
			continue
		}
		switch e.Kind {
		case billing.KindExpense:
			result[i].Expenses = append(result[i].Expenses, e)
		case billing.KindReimbursement:
			result[i].Reimbursements = append(result[i].Reimbursements, e)
		}
	}
	return result, nil
}

// GetPilotLedger returns one pilot with its ledger rows in the window.
func (s *Store) GetPilotLedger(ctx context.Context, id string, window billing.Window) (*billing.PilotLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.getPilot(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.queryEntries(ctx, billing.PilotScope(id), window)
	if err != nil {
		return nil, err
	}

	pl := billing.PilotLedger{Pilot: *p}
	for _, e := range entries {
		switch e.Kind {
		case billing.KindExpense:
			pl.Expenses = append(pl.Expenses, e)
		case billing.KindReimbursement:
			pl.Reimbursements = append(pl.Reimbursements, e)
		}
	}
	return &pl, nil
}

func scanPilot(row interface{ Scan(dest ...any) error }) (*billing.Pilot, error) {
	var (
		p            billing.Pilot
		category     sql.NullString
		observations sql.NullString
		baseFee      string
		createdAt    string
	)
	if err := row.Scan(&p.ID, &p.Name, &category, &baseFee, &p.ClosingDay, &observations, &createdAt); err != nil {
		return nil, err
	}
	p.Category = category.String
	p.Observations = observations.String
	p.BaseFee = parseDecimal(baseFee)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// =============================================================================
// LEDGER ENTRIES (billing.Store)
// =============================================================================

// AddEntry appends one ledger row.
func (s *Store) AddEntry(ctx context.Context, e billing.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, pilot_id, kind, description, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.PilotID, string(e.Kind), nullString(e.Description),
		e.Amount.String(), e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return "", billing.ErrPilotNotFound
		}
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}
	return e.ID, nil
}

func (s *Store) queryEntries(ctx context.Context, scope billing.Scope, window billing.Window) ([]billing.Entry, error) {
	query := `
		SELECT id, pilot_id, kind, description, amount, created_at
		FROM entries
		WHERE created_at >= ? AND created_at < ?`
	args := []any{
		window.Start.UTC().Format(time.RFC3339),
		window.End.UTC().Format(time.RFC3339),
	}
	if !scope.IsAdmin() {
		query += " AND pilot_id = ?"
		args = append(args, scope.PilotID)
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []billing.Entry
	for rows.Next() {
		var (
			e           billing.Entry
			kind        string
			description sql.NullString
			amount      string
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &e.PilotID, &kind, &description, &amount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Kind = billing.EntryKind(kind)
		e.Description = description.String
		e.Amount = parseDecimal(amount)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// CLOSING HISTORY (billing.Store)
// =============================================================================

// InsertClosing creates the history row; ErrAlreadyClosed when a
// (pilot, month) row already exists.
func (s *Store) InsertClosing(ctx context.Context, rec billing.ClosingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO closing_history (id, pilot_id, month_reference, total_amount, document_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PilotID, rec.Month.String(), rec.TotalAmount.String(),
		rec.DocumentPath, rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return billing.ErrAlreadyClosed
		}
		if isForeignKeyError(err) {
			return billing.ErrPilotNotFound
		}
		return fmt.Errorf("failed to insert closing record: %w", err)
	}
	return nil
}

// ClosedPilots returns the ids already closed for the month.
func (s *Store) ClosedPilots(ctx context.Context, month billing.MonthRef) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT pilot_id FROM closing_history WHERE month_reference = ?",
		month.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query closing history: %w", err)
	}
	defer rows.Close()

	closed := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		closed[id] = true
	}
	return closed, rows.Err()
}

// ListClosings returns history rows newest month first. An empty
// pilotID lists every pilot the scope can see.
func (s *Store) ListClosings(ctx context.Context, scope billing.Scope, pilotID string) ([]billing.ClosingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pilotID != "" && !scope.CanSee(pilotID) {
		return nil, nil
	}

	query := `
		SELECT id, pilot_id, month_reference, total_amount, document_path, created_at
		FROM closing_history`
	var args []any
	switch {
	case pilotID != "":
		query += " WHERE pilot_id = ?"
		args = append(args, pilotID)
	case !scope.IsAdmin():
		query += " WHERE pilot_id = ?"
		args = append(args, scope.PilotID)
	}
	query += " ORDER BY month_reference DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closings: %w", err)
	}
	defer rows.Close()

	var records []billing.ClosingRecord
	for rows.Next() {
		var (
			rec       billing.ClosingRecord
			monthRef  string
			total     string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.PilotID, &monthRef, &total, &rec.DocumentPath, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan closing record: %w", err)
		}
		rec.Month, _ = billing.ParseMonthRef(monthRef)
		rec.TotalAmount = parseDecimal(total)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// IDENTITIES (identity.Store)
// =============================================================================

func (s *Store) InsertIdentity(ctx context.Context, rec identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmed := 0
	if rec.Confirmed {
		confirmed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, email, password_hash, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Email, rec.PasswordHash, confirmed,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return billing.ErrEmailInUse
		}
		return fmt.Errorf("failed to insert identity: %w", err)
	}
	return nil
}

func (s *Store) GetIdentity(ctx context.Context, id string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryIdentity(ctx,
		"SELECT id, email, password_hash, confirmed, created_at FROM identities WHERE id = ?", id)
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryIdentity(ctx,
		"SELECT id, email, password_hash, confirmed, created_at FROM identities WHERE email = ?", email)
}

func (s *Store) queryIdentity(ctx context.Context, query string, arg any) (*identity.Identity, error) {
	var (
		rec       identity.Identity
		confirmed int
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &confirmed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, billing.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Confirmed = confirmed != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

func (s *Store) ConfirmIdentity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE identities SET confirmed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to confirm identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return billing.ErrIdentityNotFound
	}
	return nil
}

func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Profile and sessions cascade.
	_, err := s.db.ExecContext(ctx, "DELETE FROM identities WHERE id = ?", id)
	return err
}

// =============================================================================
// PROFILES (identity.Store)
// =============================================================================

func (s *Store) InsertProfile(ctx context.Context, p identity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (identity_id, role, pilot_id)
		VALUES (?, ?, ?)`,
		p.IdentityID, string(p.Role), nullString(p.PilotID),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return billing.ErrIdentityNotFound
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, identityID string) (*identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProfile(ctx,
		"SELECT identity_id, role, pilot_id FROM profiles WHERE identity_id = ?", identityID)
}

func (s *Store) GetProfileByPilot(ctx context.Context, pilotID string) (*identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProfile(ctx,
		"SELECT identity_id, role, pilot_id FROM profiles WHERE pilot_id = ?", pilotID)
}

func (s *Store) queryProfile(ctx context.Context, query string, arg any) (*identity.Profile, error) {
	var (
		p       identity.Profile
		role    string
		pilotID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&p.IdentityID, &role, &pilotID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Role = billing.Role(role)
	p.PilotID = pilotID.String
	return &p, nil
}

func (s *Store) DeleteProfile(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE identity_id = ?", identityID)
	return err
}

// =============================================================================
// SESSIONS (identity.Store)
// =============================================================================

func (s *Store) InsertSession(ctx context.Context, id, identityID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, identity_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		id, identityID, expiresAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (string, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var identityID, expiresAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT identity_id, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&identityID, &expiresAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, billing.ErrSessionInvalid
	}
	if err != nil {
		return "", time.Time{}, err
	}
	t, _ := time.Parse(time.RFC3339, expiresAt)
	return identityID, t, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// HasActiveAdminSession reports whether any unexpired session belongs
// to an admin-role profile.
func (s *Store) HasActiveAdminSession(ctx context.Context, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sessions se
		JOIN profiles p ON p.identity_id = se.identity_id
		WHERE p.role = 'admin' AND se.expires_at > ?`,
		now.UTC().Format(time.RFC3339),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
