package inventory

import (
	"errors"
	"fmt"
)

// Errors returned by ApplyAction. Match them with errors.Is.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrTransactionFailed = errors.New("failed to complete inventory transaction")
	ErrInvalidInput      = errors.New("invalid input")
)

// ItemNotFoundError reports a scan code that resolves to no active item. Its
// message is shown to the client as is.
type ItemNotFoundError struct {
	Code string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("Item ID %s not found.", e.Code)
}

// Is makes errors.Is(err, ErrItemNotFound) true.
func (e *ItemNotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}

// TransactionError wraps the storage failure that aborted an action. The
// transaction has been rolled back; callers should show only the generic
// message and log the cause.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransactionFailed, e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransactionFailed) true.
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
