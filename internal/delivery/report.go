package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Outcome of one subscriber's processing within a run.
type Outcome string

const (
	// OutcomeSuccess: the message was sent and a success record written.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure: a pipeline stage failed; a failure record was written.
	OutcomeFailure Outcome = "failure"
	// OutcomeNoContent: no unseen problem matched the subscriber's
	// preferences; nothing was attempted and no record written.
	OutcomeNoContent Outcome = "no_content"
	// OutcomeNotAttempted: the run ended (timeout or cancellation) before
	// this subscriber's pipeline started.
	OutcomeNotAttempted Outcome = "not_attempted"
)

// Entry is one subscriber's result. Entries keep the coordinator's
// deterministic subscriber order.
type Entry struct {
	SubscriberID string
	ProblemID    string // empty for no_content / not_attempted
	Outcome      Outcome
	Stage        Stage // set for failures
	Reason       string
	Degraded     bool // sent without embellishment
}

// RunReport summarizes one coordinator run. Immutable once the run ends.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    []Entry
}

func newReport(startedAt time.Time) *RunReport {
	return &RunReport{RunID: uuid.NewString(), StartedAt: startedAt}
}

// Counts tallies entries by outcome.
func (r *RunReport) Counts() (success, failure, noContent, notAttempted int) {
	for _, e := range r.Entries {
		switch e.Outcome {
		case OutcomeSuccess:
			success++
		case OutcomeFailure:
			failure++
		case OutcomeNoContent:
			noContent++
		case OutcomeNotAttempted:
			notAttempted++
		}
	}
	return
}

// Duration of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
