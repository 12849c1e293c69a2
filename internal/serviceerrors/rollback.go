package serviceerrors

import "errors"

// RollbackError marks an error raised inside a storage transaction that
// requires the transaction to be rolled back.
type RollbackError struct {
	err error
}

func (e *RollbackError) Error() string {
	return e.err.Error()
}

func (e *RollbackError) Unwrap() error {
	return e.err
}

// WithRollback wraps an error so that the transaction helper rolls back
// before returning it.
func WithRollback(err error) error {
	if err == nil {
		return nil
	}
	return &RollbackError{err: err}
}

// NeedsRollback reports whether err was wrapped with WithRollback.
func NeedsRollback(err error) bool {
	rollbackError := &RollbackError{}
	return errors.As(err, &rollbackError)
}
