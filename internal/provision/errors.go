package provision

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument signals a violated precondition on provisioning inputs.
var ErrInvalidArgument = errors.New("invalid argument")

// APIError is returned by the booking client when the remote API answers with a
// non-success status or an unusable payload. Body holds a truncated snippet of
// the response for diagnosis.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking api returned status %d: %s", e.Status, e.Body)
}

// ProvisioningError wraps a failure in the four-step provisioning workflow with
// the step and 1-based order index it happened in. Any such failure aborts the
// whole provisioning run; no partial pool is ever returned.
type ProvisioningError struct {
	Step  string
	Order int
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning order %d failed at %s: %v", e.Order, e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}
