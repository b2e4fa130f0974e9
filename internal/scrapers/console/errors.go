package console

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by the action loop when its stop condition fired
// before the worklist ran out.
var ErrStopped = errors.New("console: action loop stopped")

// ValidationError is bad caller input, it is detected before anything is
// sent to the console.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("console: invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AuthRequiredError means the session landed on a login page, the session
// has to be authenticated again before retrying.
type AuthRequiredError struct {
	URI string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("console: session is not authenticated (landed on %s)", e.URI)
}

// TransportError is a network failure or a non-success status, callers may
// retry the whole operation.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("console: request to %s failed: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("console: request to %s failed with status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TemplateMismatchError means a page no longer has the structure the
// scraper was written against. Retrying will not help.
type TemplateMismatchError struct {
	URI     string
	Form    string
	Element string
	Err     error
}

func (e *TemplateMismatchError) Error() string {
	msg := fmt.Sprintf("console: page %s does not match template: form %q", e.URI, e.Form)
	if e.Element != "" {
		msg += fmt.Sprintf(", element %q", e.Element)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TemplateMismatchError) Unwrap() error {
	return e.Err
}

// FormatError is a malformed csv payload.
type FormatError struct {
	Source string
	// Row is the index of the offending data row, the header is row 0.
	Row    int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("console: malformed csv from %s at row %d: %s", e.Source, e.Row, e.Reason)
}

// ExtractionError means a payload parsed but did not contain what the
// caller expected.
type ExtractionError struct {
	Source string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("console: extraction from %s failed: %s", e.Source, e.Reason)
}

// NoProgressError is returned by the action loop when actions stop
// reducing the number of matching elements.
type NoProgressError struct {
	Performed int
	Remaining int
}

func (e *NoProgressError) Error() string {
	return fmt.Sprintf(
		"console: action loop made no progress after %d actions, %d elements still match",
		e.Performed, e.Remaining,
	)
}

// ContextResolutionError means an identifier that is only available
// embedded in another page (merchant ids, developer account) could not be
// found there.
type ContextResolutionError struct {
	URI  string
	What string
	Err  error
}

func (e *ContextResolutionError) Error() string {
	msg := fmt.Sprintf("console: could not resolve %s from %s", e.What, e.URI)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ContextResolutionError) Unwrap() error {
	return e.Err
}
