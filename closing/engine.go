/*
Package closing implements the monthly closing engine.

PURPOSE:
  Decides which pilots are due for their automatic monthly closing,
  performs the close exactly once per pilot per month, and keeps the
  side effects (statement document, history row) consistent with
  compensating actions on partial failure.

STATE MODEL (per pilot per month):
  NOT_DUE -> DUE -> IN_PROGRESS -> CLOSED   (terminal)
                 -> IN_PROGRESS -> FAILED   (retried on the next scan)

CLOSE PIPELINE:
  1. Snapshot the pilot with its ledger for the current month window
  2. Aggregate totals (billing.CalculateTotals)
  3. Generate the statement document
  4. Upload it at the deterministic path (overwrite, retry-safe)
  5. Insert the closing history row

COMPENSATION:
  If step 5 fails after step 4 succeeded, the uploaded document is
  removed so no orphaned, unindexed statement survives. The one
  exception is a (pilot, month) uniqueness violation: a concurrent
  session already closed the pilot and its document may be the
  canonical one, so the delete is skipped and the failure is benign.

SEE ALSO:
  - billing/store.go: Store contract, including the uniqueness backstop
  - api/scheduler.go: The hourly trigger calling Scan
*/
package closing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/paddock/billing-engine/billing"
	"github.com/paddock/billing-engine/docstore"
	"github.com/paddock/billing-engine/report"
)

// Engine orchestrates monthly closings.
type Engine struct {
	Store     billing.Store
	Reports   report.Generator
	Documents docstore.Store

	// Now is the clock used for due checks and month windows.
	// Defaults to time.Now; tests pin it.
	Now func() time.Time
}

// NewEngine creates an engine with the wall clock.
func NewEngine(store billing.Store, reports report.Generator, documents docstore.Store) *Engine {
	return &Engine{
		Store:     store,
		Reports:   reports,
		Documents: documents,
		Now:       time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// =============================================================================
// SCAN - find due pilots and close them, isolating per-pilot failures
// =============================================================================

// ScanResult summarizes one scan pass.
type ScanResult struct {
	Closed  []string // pilot ids closed by this scan
	Skipped int      // already closed this month (including races lost)
	Failed  int      // closes that errored and will retry next scan
}

// Scan walks every pilot and closes the ones that are due today: the
// day of month equals the pilot's closing day and no history row exists
// for the current month. Failure of one pilot's close never aborts the
// scan of the others.
func (e *Engine) Scan(ctx context.Context) (ScanResult, error) {
	now := e.now()
	month := billing.MonthOf(now)
	today := now.UTC().Day()

	var result ScanResult

	pilots, err := e.Store.ListPilots(ctx, billing.AdminScope(), month.Window())
	if err != nil {
		return result, fmt.Errorf("list pilots: %w", err)
	}

	closed, err := e.Store.ClosedPilots(ctx, month)
	if err != nil {
		return result, fmt.Errorf("load closing history for %s: %w", month, err)
	}

	for _, p := range pilots {
		if p.ClosingDay < 1 || p.ClosingDay > 31 {
			log.Printf("[Closing] Skipping pilot %s (%s): invalid closing day %d", p.ID, p.Name, p.ClosingDay)
			continue
		}
		if p.ClosingDay != today {
			continue
		}
		if closed[p.ID] {
			result.Skipped++
			continue
		}

		log.Printf("[Closing] Starting close for %s (%s)", p.Name, p.ID)
		if _, err := e.Close(ctx, p.ID); err != nil {
			if errors.Is(err, billing.ErrAlreadyClosed) {
				// Lost a race with another session; their close stands.
				result.Skipped++
				continue
			}
			log.Printf("[Closing] Close failed for %s (%s): %v", p.Name, p.ID, err)
			result.Failed++
			continue
		}
		log.Printf("[Closing] Close completed for %s (%s)", p.Name, p.ID)
		result.Closed = append(result.Closed, p.ID)
	}

	return result, nil
}

// =============================================================================
// CLOSE - one pilot, one month, exactly one history row and document
// =============================================================================

// Close finalizes the current month for one pilot. The due check is the
// caller's responsibility (Scan, or an explicit admin trigger); the
// store's uniqueness constraint catches direct double invocations.
func (e *Engine) Close(ctx context.Context, pilotID string) (*billing.ClosingRecord, error) {
	now := e.now()
	month := billing.MonthOf(now)

	pilot, err := e.Store.GetPilotLedger(ctx, pilotID, month.Window())
	if err != nil {
		return nil, fmt.Errorf("snapshot pilot %s: %w", pilotID, err)
	}

	totals := pilot.Totals()

	doc, err := e.Reports.Generate(*pilot, totals, month)
	if err != nil {
		return nil, &billing.ReportError{PilotID: pilotID, Err: err}
	}
	if len(doc) == 0 {
		return nil, &billing.ReportError{PilotID: pilotID, Err: errors.New("generator returned empty document")}
	}

	path := billing.DocumentPath(pilot.ID, month, pilot.Name)
	storedPath, err := e.Documents.Upload(ctx, path, doc, true)
	if err != nil {
		return nil, &billing.UploadError{Path: path, Err: err}
	}

	rec := billing.ClosingRecord{
		ID:           uuid.NewString(),
		PilotID:      pilot.ID,
		Month:        month,
		TotalAmount:  totals.Total,
		DocumentPath: storedPath,
		CreatedAt:    now.UTC(),
	}

	if err := e.Store.InsertClosing(ctx, rec); err != nil {
		if errors.Is(err, billing.ErrAlreadyClosed) {
			// The other closer's document may be the canonical one;
			// leave it in place.
			return nil, err
		}
		// Remove the uploaded document so it cannot survive unindexed.
		if cerr := e.Documents.Remove(ctx, storedPath); cerr != nil {
			comp := &billing.CompensationError{Action: "remove " + storedPath, Err: cerr}
			log.Printf("[Closing] %v", comp)
			return nil, fmt.Errorf("record closing for %s: %w (%v)", pilotID, err, comp)
		}
		return nil, fmt.Errorf("record closing for %s: %w", pilotID, err)
	}

	return &rec, nil
}
