package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/octobees/business-directory/api/internal/enrichment"
)

// blockMarkers are fragments of anti-bot and consent interstitials.
var blockMarkers = []string{
	"unusual traffic from your computer network",
	"/sorry/index",
	"g-recaptcha",
	"cf-chl-",
	"attention required! | cloudflare",
	"access denied",
}

func transportError(kind enrichment.TransportKind, target string, status int, err error) *enrichment.TransportError {
	return &enrichment.TransportError{Kind: kind, URL: target, Status: status, Err: err}
}

// urlProblems are client errors caused by the address itself.
var urlProblems = []string{
	"unsupported protocol scheme",
	"no host in request url",
	"invalid url escape",
	"missing protocol scheme",
}

// classifyError maps a client error onto the transport taxonomy. A malformed
// address is a problem with the record, not the transport.
func classifyError(ctx context.Context, target string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return transportError(enrichment.Timeout, target, 0, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return transportError(enrichment.Timeout, target, 0, err)
	case isNetworkError(err):
		return transportError(enrichment.Network, target, 0, err)
	case isURLProblem(err):
		return &enrichment.ValidationError{Reason: "malformed url " + target + ": " + err.Error()}
	}
	return transportError(enrichment.Network, target, 0, err)
}

func isURLProblem(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range urlProblems {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isNetworkError(err error) bool {
	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
	)
	return errors.As(err, &dnsErr) ||
		errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}

// classifyStatus reports a blocked response for non-2xx statuses.
func classifyStatus(target string, status int) error {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}
	return transportError(enrichment.Blocked, target, status, nil)
}

// classifyBody reports a blocked response when the body is an interstitial.
func classifyBody(target, body string) error {
	lower := strings.ToLower(body)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return transportError(enrichment.Blocked, target, 0, errors.New("anti-bot page: "+marker))
		}
	}
	return nil
}

// browserErrorKinds maps Chrome net error codes onto the taxonomy.
var browserErrorKinds = []struct {
	code string
	kind enrichment.TransportKind
}{
	{"ERR_TIMED_OUT", enrichment.Timeout},
	{"ERR_CONNECTION_TIMED_OUT", enrichment.Timeout},
	{"ERR_NAME_NOT_RESOLVED", enrichment.Network},
	{"ERR_CONNECTION_REFUSED", enrichment.Network},
	{"ERR_CONNECTION_RESET", enrichment.Network},
	{"ERR_CONNECTION_CLOSED", enrichment.Network},
	{"ERR_ADDRESS_UNREACHABLE", enrichment.Network},
	{"ERR_INTERNET_DISCONNECTED", enrichment.Network},
	{"ERR_BLOCKED_BY_RESPONSE", enrichment.Blocked},
	{"ERR_HTTP_RESPONSE_CODE_FAILURE", enrichment.Blocked},
	{"ERR_TOO_MANY_REDIRECTS", enrichment.Blocked},
}

func classifyBrowserError(ctx context.Context, target string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return transportError(enrichment.Timeout, target, 0, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "ERR_INVALID_URL") {
		return &enrichment.ValidationError{Reason: "malformed url " + target}
	}
	for _, k := range browserErrorKinds {
		if strings.Contains(msg, k.code) {
			return transportError(k.kind, target, 0, err)
		}
	}
	return transportError(enrichment.Network, target, 0, err)
}
