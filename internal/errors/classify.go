// Package errors classifies transport failures so retry policies can tell
// transient faults from definitive rejections.
package errors

import "fmt"

// Category determines how a failed network call should be handled.
type Category int

const (
	// Transient failures may be retried with backoff: 5xx responses,
	// timeouts, connection resets.
	Transient Category = iota

	// Definitive failures must not be retried: 4xx responses other than
	// 408/429, policy denials, malformed requests.
	Definitive
)

func (c Category) String() string {
	switch c {
	case Transient:
		return "transient"
	case Definitive:
		return "definitive"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// TransportError wraps a failed HTTP exchange with its category.
type TransportError struct {
	Category   Category
	StatusCode int    // 0 for non-HTTP failures
	Op         string // e.g. "walrus upload", "seal fetch_key"
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s HTTP %d: %v", e.Op, e.Category, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Category, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FromStatus classifies an HTTP status into a TransportError.
func FromStatus(op string, status int) *TransportError {
	cat := Definitive
	switch {
	case status == 408, status == 429, status >= 500:
		cat = Transient
	}
	return &TransportError{
		Category:   cat,
		StatusCode: status,
		Op:         op,
		Err:        fmt.Errorf("unexpected status %d", status),
	}
}

// FromNetwork classifies a network-level failure; those are always transient.
func FromNetwork(op string, err error) *TransportError {
	return &TransportError{Category: Transient, Op: op, Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	te, ok := err.(*TransportError)
	return ok && te.Category == Transient
}
