// Package adapterrors defines the error taxonomy raised by ingestion
// adapters (the eBay client, the JSON-LD/HTML fallback extractor, and the
// router that selects between them).
package adapterrors

import "fmt"

// Kind classifies an adapter error so the retry middleware and the router
// can make dispatch decisions without string-matching messages.
type Kind string

const (
	Timeout           Kind = "TIMEOUT"
	NetworkError      Kind = "NETWORK_ERROR"
	RateLimited       Kind = "RATE_LIMITED"
	ItemNotFound      Kind = "ITEM_NOT_FOUND"
	InvalidSchema     Kind = "INVALID_SCHEMA"
	ParseError        Kind = "PARSE_ERROR"
	NoStructuredData  Kind = "NO_STRUCTURED_DATA"
	AdapterDisabled   Kind = "ADAPTER_DISABLED"
	NoAdapterFound    Kind = "NO_ADAPTER_FOUND"
)

// Retryable reports whether an error of this kind should be retried by
// the retry middleware (internal/adapters/sdk).
func (k Kind) Retryable() bool {
	switch k {
	case Timeout, NetworkError, RateLimited:
		return true
	default:
		return false
	}
}

// Error is the error type adapters return. It carries a Kind plus a
// metadata bag so callers can inspect structured context without parsing
// the message string.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]any
}

func New(kind Kind, message string, metadata map[string]any) *Error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Error{Kind: kind, Message: message, Metadata: metadata}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Error is implemented on *Error, so errors.As needs a **Error target
// (var ae *adapterrors.Error; errors.As(err, &ae)); no custom As method
// is defined.

// Is reports whether err is itself an *Error of the given kind. It does
// not unwrap err, so an *Error wrapped by fmt.Errorf reports false.
func Is(err error, kind Kind) bool {
	ae, ok := err.(*Error)
	if !ok {
		return false
	}
	return ae.Kind == kind
}
