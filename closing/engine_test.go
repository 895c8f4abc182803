package closing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddock/billing-engine/billing"
	"github.com/paddock/billing-engine/billing/store"
	"github.com/paddock/billing-engine/closing"
	"github.com/paddock/billing-engine/report"
)

// =============================================================================
// TEST FAKES
// =============================================================================

// fakeDocs is an in-memory document store recording uploads and removals.
type fakeDocs struct {
	mu        sync.Mutex
	files     map[string][]byte
	uploadErr error
	removeErr error
	removed   []string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{files: make(map[string][]byte)}
}

func (f *fakeDocs) Upload(_ context.Context, path string, data []byte, overwrite bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, exists := f.files[path]; exists && !overwrite {
		return "", errors.New("exists")
	}
	f.files[path] = data
	return path, nil
}

func (f *fakeDocs) Remove(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.files[path]; !ok {
		return billing.ErrDocumentNotFound
	}
	delete(f.files, path)
	f.removed = append(f.removed, path)
	return nil
}

func (f *fakeDocs) PublicURL(path string) string { return "http://docs.test/" + path }

func (f *fakeDocs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// failingStore delegates to a memory store but fails InsertClosing.
type failingStore struct {
	billing.Store
	insertErr error
}

func (s *failingStore) InsertClosing(ctx context.Context, rec billing.ClosingRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.Store.InsertClosing(ctx, rec)
}

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func stubReport() report.Generator {
	return report.GeneratorFunc(func(billing.PilotLedger, billing.Totals, billing.MonthRef) ([]byte, error) {
		return []byte("%PDF-stub"), nil
	})
}

func newTestEngine(t *testing.T, st billing.Store) (*closing.Engine, *fakeDocs) {
	t.Helper()
	docs := newFakeDocs()
	engine := closing.NewEngine(st, stubReport(), docs)
	engine.Now = func() time.Time { return fixedNow }
	return engine, docs
}

func addPilot(t *testing.T, st billing.Store, name string, closingDay int, baseFee string) string {
	t.Helper()
	fee, err := decimal.NewFromString(baseFee)
	require.NoError(t, err)
	id, err := st.InsertPilot(context.Background(), billing.Pilot{
		Name:       name,
		BaseFee:    fee,
		ClosingDay: closingDay,
		CreatedAt:  fixedNow,
	})
	require.NoError(t, err)
	return id
}

func addEntry(t *testing.T, st billing.Store, pilotID string, kind billing.EntryKind, amount string) {
	t.Helper()
	a, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	_, err = st.AddEntry(context.Background(), billing.Entry{
		PilotID:   pilotID,
		Kind:      kind,
		Amount:    a,
		CreatedAt: fixedNow,
	})
	require.NoError(t, err)
}

// =============================================================================
// SCAN TESTS
// =============================================================================

func TestScan_ClosesOnlyDuePilots(t *testing.T) {
	// GIVEN: Pilots closing on day 15 and day 20, today is the 15th
	// WHEN: Scanning
	// THEN: Only the day-15 pilot is closed

	st := store.NewMemory()
	due := addPilot(t, st, "Ayrton", 15, "500")
	addPilot(t, st, "Max", 20, "400")

	engine, docs := newTestEngine(t, st)

	result, err := engine.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{due}, result.Closed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, docs.count())
}

func TestScan_SecondPassIsIdempotent(t *testing.T) {
	// GIVEN: A pilot already closed by the first scan
	// WHEN: Scanning again the same day
	// THEN: Nothing is re-closed; exactly one history row and document exist

	st := store.NewMemory()
	id := addPilot(t, st, "Ayrton", 15, "500")

	engine, docs := newTestEngine(t, st)
	ctx := context.Background()

	first, err := engine.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{id}, first.Closed)

	second, err := engine.Scan(ctx)
	require.NoError(t, err)

	assert.Empty(t, second.Closed)
	assert.Equal(t, 1, second.Skipped)

	records, err := st.ListClosings(ctx, billing.AdminScope(), id)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, docs.count())
}

func TestScan_InvalidClosingDaySkipped(t *testing.T) {
	// GIVEN: A pilot with closing day 0 (bad data)
	// WHEN: Scanning
	// THEN: The pilot is skipped without failing the scan

	st := store.NewMemory()
	addPilot(t, st, "Broken", 0, "500")
	ok := addPilot(t, st, "Ayrton", 15, "500")

	engine, _ := newTestEngine(t, st)

	result, err := engine.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{ok}, result.Closed)
	assert.Equal(t, 0, result.Failed)
}

func TestScan_OneFailureDoesNotAbortOthers(t *testing.T) {
	// GIVEN: Two due pilots; report generation fails for one of them
	// WHEN: Scanning
	// THEN: The other pilot still closes

	st := store.NewMemory()
	bad := addPilot(t, st, "Bad", 15, "500")
	good := addPilot(t, st, "Good", 15, "500")

	docs := newFakeDocs()
	gen := report.GeneratorFunc(func(pl billing.PilotLedger, _ billing.Totals, _ billing.MonthRef) ([]byte, error) {
		if pl.ID == bad {
			return nil, errors.New("render exploded")
		}
		return []byte("%PDF-stub"), nil
	})
	engine := closing.NewEngine(st, gen, docs)
	engine.Now = func() time.Time { return fixedNow }

	result, err := engine.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{good}, result.Closed)
	assert.Equal(t, 1, result.Failed)
}

// =============================================================================
// CLOSE TESTS
// =============================================================================

func TestClose_SnapshotsTotalsIntoRecord(t *testing.T) {
	// GIVEN: Base fee 500, expense 120.50, reimbursement 30
	// WHEN: Closing the month
	// THEN: The record holds 590.50 and the deterministic document path

	st := store.NewMemory()
	id := addPilot(t, st, "Ayrton Senna", 15, "500")
	addEntry(t, st, id, billing.KindExpense, "120.50")
	addEntry(t, st, id, billing.KindReimbursement, "30")

	engine, docs := newTestEngine(t, st)

	rec, err := engine.Close(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, rec.TotalAmount.Equal(decimal.RequireFromString("590.50")),
		"expected 590.50, got %s", rec.TotalAmount)
	assert.Equal(t, id+"/2026-03_Ayrton_Senna.pdf", rec.DocumentPath)
	assert.Equal(t, "2026-03", rec.Month.String())
	assert.Equal(t, 1, docs.count())
}

func TestClose_HistoryFailureRemovesUploadedDocument(t *testing.T) {
	// GIVEN: The history insert fails with an infrastructure error
	// WHEN: Closing
	// THEN: The uploaded document is compensated away

	mem := store.NewMemory()
	id := addPilot(t, mem, "Ayrton", 15, "500")

	st := &failingStore{Store: mem, insertErr: errors.New("disk full")}
	docs := newFakeDocs()
	engine := closing.NewEngine(st, stubReport(), docs)
	engine.Now = func() time.Time { return fixedNow }

	_, err := engine.Close(context.Background(), id)
	require.Error(t, err)

	assert.Equal(t, 0, docs.count(), "document should have been removed")
	assert.Len(t, docs.removed, 1)
}

func TestClose_AlreadyClosedLeavesDocumentAlone(t *testing.T) {
	// GIVEN: A concurrent session won the race and inserted the row
	// WHEN: Our insert hits the uniqueness violation
	// THEN: ErrAlreadyClosed surfaces unchanged and no delete happens,
	//       since the other closer's document may be the canonical one

	mem := store.NewMemory()
	id := addPilot(t, mem, "Ayrton", 15, "500")

	st := &failingStore{Store: mem, insertErr: billing.ErrAlreadyClosed}
	docs := newFakeDocs()
	engine := closing.NewEngine(st, stubReport(), docs)
	engine.Now = func() time.Time { return fixedNow }

	_, err := engine.Close(context.Background(), id)
	require.ErrorIs(t, err, billing.ErrAlreadyClosed)

	assert.Equal(t, 1, docs.count(), "document must not be compensated")
	assert.Empty(t, docs.removed)
}

func TestClose_UploadFailureAbortsBeforeHistory(t *testing.T) {
	// GIVEN: Document upload fails
	// WHEN: Closing
	// THEN: No history row is written

	st := store.NewMemory()
	id := addPilot(t, st, "Ayrton", 15, "500")

	docs := newFakeDocs()
	docs.uploadErr = errors.New("storage unreachable")
	engine := closing.NewEngine(st, stubReport(), docs)
	engine.Now = func() time.Time { return fixedNow }

	_, err := engine.Close(context.Background(), id)
	require.Error(t, err)

	var uerr *billing.UploadError
	assert.ErrorAs(t, err, &uerr)

	records, err := st.ListClosings(context.Background(), billing.AdminScope(), id)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClose_EmptyDocumentRejected(t *testing.T) {
	// GIVEN: A generator that returns zero bytes without an error
	// WHEN: Closing
	// THEN: The close fails as a report error before any upload

	st := store.NewMemory()
	id := addPilot(t, st, "Ayrton", 15, "500")

	docs := newFakeDocs()
	gen := report.GeneratorFunc(func(billing.PilotLedger, billing.Totals, billing.MonthRef) ([]byte, error) {
		return nil, nil
	})
	engine := closing.NewEngine(st, gen, docs)
	engine.Now = func() time.Time { return fixedNow }

	_, err := engine.Close(context.Background(), id)
	require.Error(t, err)

	var rerr *billing.ReportError
	assert.ErrorAs(t, err, &rerr)
	assert.Equal(t, 0, docs.count())
}

func TestClose_UnknownPilot(t *testing.T) {
	st := store.NewMemory()
	engine, _ := newTestEngine(t, st)

	_, err := engine.Close(context.Background(), "nope")
	assert.ErrorIs(t, err, billing.ErrPilotNotFound)
}

func TestClose_OnlyCurrentMonthEntriesCounted(t *testing.T) {
	// GIVEN: An entry from last month and one from this month
	// WHEN: Closing
	// THEN: Only the current month's entry is in the total

	st := store.NewMemory()
	id := addPilot(t, st, "Ayrton", 15, "100")

	stale, err := decimal.NewFromString("999")
	require.NoError(t, err)
	_, err = st.AddEntry(context.Background(), billing.Entry{
		PilotID:   id,
		Kind:      billing.KindExpense,
		Amount:    stale,
		CreatedAt: fixedNow.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	addEntry(t, st, id, billing.KindExpense, "50")

	engine, _ := newTestEngine(t, st)

	rec, err := engine.Close(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, rec.TotalAmount.Equal(decimal.RequireFromString("150")),
		"expected 150, got %s", rec.TotalAmount)
}
