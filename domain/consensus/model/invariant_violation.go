package model

import (
	"fmt"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// InvariantViolationError signifies that the consensus state is internally
// inconsistent. It is never the result of bad peer data and must halt the node.
type InvariantViolationError struct {
	BlockHash *externalapi.DomainHash
	Cause     error
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation at block %s: %s", e.BlockHash, e.Cause)
}

// Unwrap returns the underlying cause
func (e *InvariantViolationError) Unwrap() error {
	return e.Cause
}

// NewInvariantViolationError creates an InvariantViolationError at the given block
func NewInvariantViolationError(blockHash *externalapi.DomainHash, format string, args ...interface{}) error {
	return errors.WithStack(&InvariantViolationError{
		BlockHash: blockHash,
		Cause:     errors.Errorf(format, args...),
	})
}

// IsInvariantViolationError returns whether err is or wraps an InvariantViolationError
func IsInvariantViolationError(err error) bool {
	var invariantViolationError *InvariantViolationError
	return errors.As(err, &invariantViolationError)
}
