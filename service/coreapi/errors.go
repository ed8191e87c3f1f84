package coreapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SandboxCurrencyMessage replaces the provider's currency rejection in sandbox.
const SandboxCurrencyMessage = "only EUR is supported in sandbox"

var (
	ErrValidation = status.Error(codes.InvalidArgument, "invalid input")

	ErrAuth = status.Error(codes.Unauthenticated, "not authenticated with the provider")

	ErrProvisioning = status.Error(codes.PermissionDenied, "api user provisioning failed")

	ErrNotFound = status.Error(codes.NotFound, "specified resource does not exist")

	ErrProvider = status.Error(codes.FailedPrecondition, "provider rejected the request")

	ErrConnection = status.Error(codes.Unavailable, "provider could not be reached")
)

// Error is the failure returned by every operation. Kind is one of the package sentinels and
// errors.Is matches against it.
type Error struct {
	Kind       error
	Op         string
	StatusCode int
	Code       string
	Message    string
	Body       string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(status.Convert(e.Kind).Message())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Message == "" && e.Err == nil && e.Body != "" {
		b.WriteString(", body: ")
		b.WriteString(e.Body)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// GRPCStatus lets status.Code and status.Convert classify the error.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(status.Code(e.Kind), e.Error())
}

func newError(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// ValidationError reports bad local input, it never reaches the network.
func ValidationError(op string, err error) error {
	return newError(op, ErrValidation, err)
}

func AuthError(op string, msg string) error {
	return &Error{Op: op, Kind: ErrAuth, Message: msg}
}

// Reclassify copies a provider failure under a different kind, keeping status and body.
func Reclassify(err error, kind error, msg string) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return &Error{Kind: kind, Message: msg, Err: err}
	}
	out := *apiErr
	out.Kind = kind
	if msg != "" {
		out.Message = msg
	}
	return &out
}

// ProviderMessage returns the provider's code and message of err, lower cased, for business
// rule matching. The raw body is left out.
func ProviderMessage(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return ""
	}
	return strings.ToLower(strings.Join([]string{apiErr.Code, apiErr.Message}, " "))
}

// RemapProvider reclassifies a provider rejection whose code or message mentions any of
// needles. Other errors are returned unchanged.
func RemapProvider(err error, kind error, msg string, needles ...string) error {
	if !errors.Is(err, ErrProvider) {
		return err
	}
	text := ProviderMessage(err)
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return Reclassify(err, kind, msg)
		}
	}
	return err
}

// RemapCurrency rewrites a provider rejection of the request currency with
// SandboxCurrencyMessage.
func RemapCurrency(err error) error {
	return RemapProvider(err, ErrProvider, SandboxCurrencyMessage, "invalid currency", "invalid_currency")
}

// StatusCodeOf returns the http status carried by err, or zero.
func StatusCodeOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// classify maps a non 2xx response to a typed failure. A parsable 4xx body is a provider
// business rule rejection; anything else is treated as a transport failure.
func classify(statusCode int, parsed bool) error {
	switch {
	case statusCode == http.StatusNotFound:
		return ErrNotFound
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrAuth
	case parsed && statusCode >= 400 && statusCode < 500:
		return ErrProvider
	default:
		return ErrConnection
	}
}
