package enrichment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err  error
		want ErrorClass
	}{
		"nil":        {err: nil, want: ClassNone},
		"timeout":    {err: &TransportError{Kind: Timeout, URL: "https://a"}, want: ClassTimeout},
		"network":    {err: fmt.Errorf("wrapped: %w", &TransportError{Kind: Network}), want: ClassNetwork},
		"blocked":    {err: &TransportError{Kind: Blocked, Status: 429}, want: ClassBlocked},
		"extraction": {err: &ExtractionError{Reason: "empty document"}, want: ClassExtraction},
		"validation": {err: &ValidationError{Reason: "no website"}, want: ClassValidation},
		"storage":    {err: &StorageError{Op: "update", Err: errors.New("conn reset")}, want: ClassStorage},
		"deadline":   {err: context.DeadlineExceeded, want: ClassTimeout},
		"other":      {err: errors.New("boom"), want: ClassUnknown},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestTransportErrorMatchesSentinels(t *testing.T) {
	err := fmt.Errorf("record 1: %w", &TransportError{Kind: Network, URL: "http://unreachable.invalid"})

	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrBlocked)
	assert.Contains(t, err.Error(), "network fetching http://unreachable.invalid")
}
