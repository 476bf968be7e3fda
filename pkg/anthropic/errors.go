package anthropic

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
)

// Sentinel errors for the completion collaborator. Callers branch on these
// with errors.Is to decide between retry and deterministic fallback.
var (
	// ErrUnavailable indicates the completion service could not be reached.
	ErrUnavailable = errors.New("completion service unavailable")
	// ErrTimeout indicates the completion service did not respond in time.
	ErrTimeout = errors.New("completion service timeout")
)

// classify maps transport and API failures onto the sentinel taxonomy,
// preserving the original error text. Errors that fit neither sentinel are
// wrapped as-is.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		return eris.Wrapf(ErrTimeout, "%s: %v", msg, err)
	}
	if isUnavailable(err) {
		return eris.Wrapf(ErrUnavailable, "%s: %v", msg, err)
	}
	return eris.Wrap(err, msg)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusRequestTimeout {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "i/o timeout")
}

func isUnavailable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusServiceUnavailable,
			http.StatusBadGateway,
			http.StatusTooManyRequests,
			529: // Anthropic "overloaded"
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"no such host",
		"temporary failure in name resolution",
		"tls handshake timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether the caller may usefully retry the request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
