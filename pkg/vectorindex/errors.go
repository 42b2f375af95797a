package vectorindex

import (
	"errors"
	"fmt"
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrIndexNotReady = errors.New("index not ready")
	ErrDimension     = errors.New("vector dimension mismatch")
)

// UpsertError names every id that a batched upsert failed to write.
type UpsertError struct {
	FailedIDs []string
	Err       error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("upsert failed for %d entries: %v", len(e.FailedIDs), e.Err)
}

func (e *UpsertError) Unwrap() error {
	return e.Err
}
