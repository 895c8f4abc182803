package billing

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// MONTH REFERENCE - "YYYY-MM" billing period key
// =============================================================================

// MonthRef identifies one billing period. Its String form ("YYYY-MM") is
// the store key for closing history rows.
type MonthRef struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month reference containing t (UTC).
func MonthOf(t time.Time) MonthRef {
	u := t.UTC()
	return MonthRef{Year: u.Year(), Month: u.Month()}
}

// CurrentMonth returns the month reference for the current wall clock.
func CurrentMonth() MonthRef { return MonthOf(time.Now()) }

// ParseMonthRef parses a "YYYY-MM" key.
func ParseMonthRef(s string) (MonthRef, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthRef{}, fmt.Errorf("invalid month reference %q: %w", s, err)
	}
	return MonthRef{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthRef) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthRef) IsZero() bool { return m.Year == 0 }

// Window returns the half-open time window [start, end) covering the
// whole calendar month in UTC. Half-open so entries created late on the
// last day are never dropped from the snapshot.
func (m MonthRef) Window() Window {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// =============================================================================
// DOCUMENT PATH - storage key convention for closing statements
// =============================================================================

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName reduces a pilot name to a storage-safe token: spaces
// become underscores, everything outside [A-Za-z0-9_-] is stripped.
func SanitizeName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	s = unsafePathChars.ReplaceAllString(s, "")
	if s == "" {
		s = "pilot"
	}
	return s
}

// DocumentPath returns the deterministic storage path for a pilot's
// monthly statement: "{pilotId}/{YYYY-MM}_{sanitizedName}.pdf".
func DocumentPath(pilotID string, month MonthRef, pilotName string) string {
	return fmt.Sprintf("%s/%s_%s.pdf", pilotID, month, SanitizeName(pilotName))
}
