package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// ErrorKind classifies a capability failure for the retry policy
type ErrorKind int

const (
	KindNone        ErrorKind = iota // no error
	KindFatal                        // bad request, auth, anything not known to be transient
	KindRateLimited                  // 429 / quota signal
	KindServerError                  // 5xx-class server fault
	KindMalformed                    // response did not match the findings schema
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFatal:
		return "fatal"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Retriable reports whether a failure of this kind may succeed on a later attempt
func (k ErrorKind) Retriable() bool {
	return k == KindRateLimited || k == KindServerError
}

// CapabilityError is a classified failure of one capability exchange
type CapabilityError struct {
	Kind       ErrorKind
	StatusCode int
	Provider   string
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s capability error (%s, status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s capability error (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// ParseError means the capability answered, but not with a findings document
type ParseError struct {
	Reason string
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed capability response: %s (text: %q)", e.Reason, truncate(e.Text, 120))
}

// KindForStatus maps an HTTP status code to an ErrorKind
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500 && status <= 599:
		return KindServerError
	default:
		return KindFatal
	}
}

// Status numbers only count when they follow a status-like word, so sizes
// and counts in error text ("503 MiB") are not mistaken for server faults.
var (
	rateLimitPattern   = regexp.MustCompile(`\b(?:status|error|code|http)[\s:=]*429\b|rate.?limit|resource_exhausted|quota exceeded`)
	serverErrorPattern = regexp.MustCompile(`\b(?:status|error|code|http)[\s:=]*5\d\d\b|internal server error|bad gateway|service unavailable|gateway timeout|overloaded`)
)

// Classify decides whether err is a rate-limit signal, a server fault, a
// malformed response or a fatal error. Typed errors are inspected first; SDK
// errors that only expose a message fall back to message matching.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return KindMalformed
	}

	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Kind
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return KindForStatus(apiErr.StatusCode)
	}

	if code, ok := genaiStatus(err); ok {
		return KindForStatus(code)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindFatal
	}

	msg := strings.ToLower(err.Error())
	if rateLimitPattern.MatchString(msg) {
		return KindRateLimited
	}
	if serverErrorPattern.MatchString(msg) {
		return KindServerError
	}
	return KindFatal
}

// genaiStatus extracts the HTTP status from a genai API error. The client
// returns APIError by value; the pointer form is accepted too.
func genaiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// IsRetriable reports whether err may succeed on retry
func IsRetriable(err error) bool {
	return Classify(err).Retriable()
}
