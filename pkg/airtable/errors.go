package airtable

import (
	"errors"
	"fmt"
)

// Kind classifies client failures so callers can map them without inspecting
// message text.
type Kind int

const (
	// KindNotFound means the remote service reported the record does not exist.
	KindNotFound Kind = iota + 1
	// KindAPI means the remote service answered with any other non-success status.
	KindAPI
	// KindTransport means the request never produced a usable response
	// (network failure, unreadable body).
	KindTransport
)

// Error is the uniform failure shape returned by the client. The façade matches
// on Kind; Message carries the remote service's text verbatim when available.
type Error struct {
	Kind     Kind
	Status   int
	RecordID string
	Message  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("record not found: %s: %s", e.RecordID, e.Message)
	case KindAPI:
		return fmt.Sprintf("airtable API error (status %d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("airtable request failed: %s", e.Message)
	}
}

// KindOf extracts the Kind from err, or 0 when err is not a client Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
