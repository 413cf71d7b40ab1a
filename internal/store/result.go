package store

import (
	"errors"
	"fmt"

	"github.com/chaosprobe/chaosprobe/internal/database"
)

// Kind classifies the outcome of a store mutation.
type Kind int

const (
	// KindOk: the statement executed and affected at least one row.
	KindOk Kind = iota
	// KindNotFound: the statement executed (or was skipped because no
	// fields were supplied) and affected zero rows. Not an error.
	KindNotFound
	// KindValidationError: input was rejected before any SQL was built.
	KindValidationError
	// KindTransportError: the transport failed; nothing can be assumed
	// about database state beyond "no partial success".
	KindTransportError
)

// Result is the uniform outcome of a single-row mutation.
type Result struct {
	Kind         Kind
	RowsAffected int64
	Err          error
}

// OK reports whether the mutation affected at least one row.
func (r Result) OK() bool { return r.Kind == KindOk }

// IsTransport reports whether err is a transport-tier failure as opposed to
// a validation one.
func IsTransport(err error) bool {
	var te *database.TransportError
	return errors.As(err, &te)
}

// BatchResult is the envelope returned by batch operations, mirroring the
// shape agents consume as tool output.
type BatchResult struct {
	Success        bool    `json:"success"`
	Kind           Kind    `json:"-"`
	AffectedCount  int     `json:"affected_count"`
	RequestedCount int     `json:"requested_count"`
	InsertedIDs    []int64 `json:"inserted_ids,omitempty"`
	Error          string  `json:"error,omitempty"`
	Message        string  `json:"message"`
}

func batchValidationError(err error, message string) BatchResult {
	return BatchResult{
		Kind:    KindValidationError,
		Error:   fmt.Sprintf("validation error: %v", err),
		Message: message,
	}
}

func batchTransportError(err error, message string) BatchResult {
	return BatchResult{
		Kind:    KindTransportError,
		Error:   err.Error(),
		Message: message,
	}
}
