package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoDataAvailable = errors.New("no data available")
	ErrUnknownSource   = errors.New("unknown source")
	// ErrAuxiliaryDataDegraded marks an allow-list or conversion-rate lookup
	// that failed and was replaced by a fallback. It is logged, never returned.
	ErrAuxiliaryDataDegraded = errors.New("auxiliary data degraded")
)

// UpstreamError is returned by source adapters when the exchange could not be
// reached after retries or answered with an unexpected payload.
type UpstreamError struct {
	Source SourceID
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func NewUpstreamError(src SourceID, op string, err error) error {
	return &UpstreamError{Source: src, Op: op, Err: err}
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
