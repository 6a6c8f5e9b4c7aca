// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrElementNotFound is returned by Element.Query when the selector matches nothing
var ErrElementNotFound = errors.New("element not found")

// ErrorKind identifies the failure class of a ScrapeError
type ErrorKind string

const (
	KindNavigationFailed    ErrorKind = "NAVIGATION_FAILED"
	KindBrowserLaunchFailed ErrorKind = "BROWSER_LAUNCH_FAILED"
	KindTimeout             ErrorKind = "TIMEOUT"
	KindExtractionFailed    ErrorKind = "EXTRACTION_FAILED"
)

// Sentinels for errors.Is checks; matching is by kind only.
var (
	ErrNavigationFailed    = &ScrapeError{Kind: KindNavigationFailed}
	ErrBrowserLaunchFailed = &ScrapeError{Kind: KindBrowserLaunchFailed}
	ErrTimeout             = &ScrapeError{Kind: KindTimeout}
	ErrExtractionFailed    = &ScrapeError{Kind: KindExtractionFailed}
)

// ScrapeError is the single error type returned by a failed search
type ScrapeError struct {
	Kind       ErrorKind
	Message    string
	URL        string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *ScrapeError) Is(target error) bool {
	if t, ok := target.(*ScrapeError); ok {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Underlying, target)
}

// NewScrapeError creates a new ScrapeError
func NewScrapeError(kind ErrorKind, message string, err error) *ScrapeError {
	return &ScrapeError{
		Kind:       kind,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithURL records the page URL the failure happened on
func (e *ScrapeError) WithURL(url string) *ScrapeError {
	e.URL = url
	return e
}

// WithDetail adds a detail to the error
func (e *ScrapeError) WithDetail(key string, value interface{}) *ScrapeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf returns the kind of a ScrapeError anywhere in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// classify turns err into a ScrapeError. An expired call deadline always
// wins over the stage kind, and errors that already carry a kind keep it.
func classify(ctx context.Context, kind ErrorKind, message, url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewScrapeError(KindTimeout, message, err).WithURL(url)
	}

	var se *ScrapeError
	if errors.As(err, &se) {
		if se.URL == "" {
			se.URL = url
		}
		return se
	}

	return NewScrapeError(kind, message, err).WithURL(url)
}
