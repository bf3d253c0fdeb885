package provider

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// MissingCredentialError means no API key is configured for the selected
// provider and none could be obtained out-of-band.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no API key configured for provider %q", e.Provider)
}

// ProviderError is a non-success response from an upstream endpoint. Message
// carries the provider's own error text when it was parseable, otherwise the
// raw response body.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// MalformedResponseError means the provider returned a success status but the
// body did not match the expected envelope.
type MalformedResponseError struct {
	Provider string
	Detail   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("provider %q returned a malformed response: %s", e.Provider, e.Detail)
}

// TimeoutError means the outbound call exceeded its deadline. Callers treat it
// exactly like a ProviderError: the run fails and nothing is committed.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("provider %q request timed out after %s", e.Provider, e.Timeout)
	}
	return fmt.Sprintf("provider %q request timed out", e.Provider)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
