package entity

import (
	"fmt"
	"strings"
	"time"
)

// EnrichmentTarget names a kind of external resource the pipeline fills records from.
type EnrichmentTarget string

const (
	// TargetDetails is the member detail page referenced by the website field.
	TargetDetails EnrichmentTarget = "details"
	// TargetPresence is a web search for the business name.
	TargetPresence EnrichmentTarget = "presence"
)

// ParseEnrichmentTarget validates a target name.
func ParseEnrichmentTarget(value string) (EnrichmentTarget, error) {
	switch EnrichmentTarget(strings.ToLower(strings.TrimSpace(value))) {
	case TargetDetails:
		return TargetDetails, nil
	case TargetPresence:
		return TargetPresence, nil
	default:
		return "", fmt.Errorf("unknown enrichment target %q", value)
	}
}

// EnrichmentStatus is the per-target enrichment status.
type EnrichmentStatus string

const (
	StatusPending   EnrichmentStatus = "pending"
	StatusCompleted EnrichmentStatus = "completed"
	StatusFailed    EnrichmentStatus = "failed"
)

// EnrichmentState tracks the last attempt made for one target.
type EnrichmentState struct {
	Status        EnrichmentStatus `json:"status"`
	LastAttemptAt *time.Time       `json:"lastAttemptAt,omitempty"`
	LastError     string           `json:"lastError,omitempty"`
	ErrorClass    string           `json:"errorClass,omitempty"`
}

// StatusOrPending treats an unset status as pending.
func (s EnrichmentState) StatusOrPending() EnrichmentStatus {
	if s.Status == "" {
		return StatusPending
	}
	return s.Status
}

// Completed reports whether the target has been successfully enriched.
func (s EnrichmentState) Completed() bool {
	return s.Status == StatusCompleted
}

// Reset puts the target back to pending, used when an operator edits the record.
func (s *EnrichmentState) Reset() {
	*s = EnrichmentState{Status: StatusPending}
}
