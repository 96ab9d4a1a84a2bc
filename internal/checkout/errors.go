package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrNotReady        = errors.New("checkout is not ready")
	ErrSummaryNotFound = errors.New("no checkout summary")
)

// NotReadyError carries the step the shopper has to take next. It matches
// ErrNotReady with errors.Is.
type NotReadyError struct {
	Step Step
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%v: next step %s", ErrNotReady, e.Step)
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}
