package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

// State is the coordinator's position in a run.
type State string

const (
	StateIdle       State = "idle"
	StateSelecting  State = "selecting"
	StateProcessing State = "processing"
	StateDrained    State = "drained"
	StateCancelled  State = "cancelled"
	StateAborted    State = "aborted"
)

// Terminal reports whether a run in this state has ended.
func (s State) Terminal() bool {
	return s == StateDrained || s == StateCancelled || s == StateAborted
}

// Result is how a single record ended.
type Result string

const (
	ResultSucceeded Result = "succeeded"
	ResultFailed    Result = "failed"
	ResultSkipped   Result = "skipped"
)

// RecordError is one failed or skipped record in the run log.
type RecordError struct {
	BusinessID uuid.UUID               `json:"businessId"`
	Name       string                  `json:"name"`
	Result     Result                  `json:"result"`
	Class      enrichment.ErrorClass   `json:"errorClass"`
	Message    string                  `json:"message"`
	Target     entity.EnrichmentTarget `json:"target"`
}

// Stats aggregates a run. A cancelled run reports what was done up to the
// cancellation point.
type Stats struct {
	RunID      uuid.UUID               `json:"runId"`
	Target     entity.EnrichmentTarget `json:"target"`
	State      State                   `json:"state"`
	Total      int                     `json:"total"`
	Processed  int                     `json:"processed"`
	Succeeded  int                     `json:"succeeded"`
	Failed     int                     `json:"failed"`
	Skipped    int                     `json:"skipped"`
	Changed    int                     `json:"changed"`
	Pages      int                     `json:"pages"`
	Errors     []RecordError           `json:"errors,omitempty"`
	StartedAt  time.Time               `json:"startedAt"`
	FinishedAt time.Time               `json:"finishedAt"`
}

func (s *Stats) record(r RecordResult, target entity.EnrichmentTarget) {
	s.Processed++
	if r.Changed {
		s.Changed++
	}
	switch r.Result {
	case ResultSucceeded:
		s.Succeeded++
		return
	case ResultFailed:
		s.Failed++
	case ResultSkipped:
		s.Skipped++
	}
	s.Errors = append(s.Errors, RecordError{
		BusinessID: r.Business.ID,
		Name:       r.Business.Name,
		Result:     r.Result,
		Class:      enrichment.Classify(r.Err),
		Message:    errString(r.Err),
		Target:     target,
	})
}

// Duration is the wall time of a finished run.
func (s Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
