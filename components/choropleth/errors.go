package choropleth

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to domain errors.
const (
	TextCodeDataUnavailable = "DATA_UNAVAILABLE"
	TextCodeFetchFailure    = "FETCH_FAILURE"
	TextCodeUnconfigured    = "UNCONFIGURED"
	TextCodeInvalidEvent    = "INVALID_EVENT"
)

var (
	// ErrMetricsAlreadyLoaded is returned when a store receives a second load.
	ErrMetricsAlreadyLoaded = errors.New("choropleth: metrics already loaded")
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("choropleth: session not found")
	// ErrLoopStopped is returned when work is submitted to a stopped event loop.
	ErrLoopStopped = errors.New("choropleth: event loop stopped")
)

// DataUnavailable reports that a region has no metric value yet.
func DataUnavailable(region string) error {
	return goerrors.New(fmt.Sprintf("no metric value for %s", region), goerrors.CategoryNotFound).
		WithTextCode(TextCodeDataUnavailable).
		WithMetadata(map[string]any{"region": region})
}

// FetchFailure wraps a transport, status or decode failure. Errors that already
// carry a domain code keep it.
func FetchFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *goerrors.Error
	if goerrors.As(err, &domainErr) && domainErr.TextCode != "" {
		return goerrors.Wrap(err, domainErr.Category, op)
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, op).
		WithTextCode(TextCodeFetchFailure)
}

// Unconfigured reports a missing configuration value needed for data access.
func Unconfigured(field string) error {
	return goerrors.New(fmt.Sprintf("%s is not configured", field), goerrors.CategoryValidation).
		WithTextCode(TextCodeUnconfigured).
		WithMetadata(map[string]any{"field": field})
}

// InvalidEvent reports a pointer event the map cannot route.
func InvalidEvent(format string, args ...any) error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryBadInput).
		WithTextCode(TextCodeInvalidEvent)
}

func IsDataUnavailable(err error) bool { return hasTextCode(err, TextCodeDataUnavailable) }
func IsFetchFailure(err error) bool    { return hasTextCode(err, TextCodeFetchFailure) }
func IsUnconfigured(err error) bool    { return hasTextCode(err, TextCodeUnconfigured) }
func IsInvalidEvent(err error) bool    { return hasTextCode(err, TextCodeInvalidEvent) }

func hasTextCode(err error, code string) bool {
	var domainErr *goerrors.Error
	if !goerrors.As(err, &domainErr) {
		return false
	}
	return domainErr.TextCode == code
}

// ErrorMessage renders an error for display in a view model.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *goerrors.Error
	if goerrors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
