package provision

import (
	"context"
	"log"

	"github.com/paddock/billing-engine/billing"
)

// compensationStack collects undo actions as forward steps succeed and
// runs them in reverse-creation order when a later step fails. Failures
// during rollback are logged and attached as context; they never
// replace the original error.
type compensationStack struct {
	actions []compensation
}

type compensation struct {
	label string
	undo  func(ctx context.Context) error
}

func (s *compensationStack) push(label string, undo func(ctx context.Context) error) {
	s.actions = append(s.actions, compensation{label: label, undo: undo})
}

// rollback executes the stacked actions newest-first and returns any
// compensation failures for attaching to the original error.
func (s *compensationStack) rollback(ctx context.Context) []*billing.CompensationError {
	var failures []*billing.CompensationError
	for i := len(s.actions) - 1; i >= 0; i-- {
		a := s.actions[i]
		log.Printf("[Provision] Rolling back: %s", a.label)
		if err := a.undo(ctx); err != nil {
			cerr := &billing.CompensationError{Action: a.label, Err: err}
			log.Printf("[Provision] %v", cerr)
			failures = append(failures, cerr)
		}
	}
	s.actions = nil
	return failures
}
