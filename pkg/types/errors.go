package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common lookup and queueing failures
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrQueueFull     = errors.New("queue is full")
	ErrAlreadyQueued = errors.New("job already queued")
	ErrOverflow      = errors.New("subscriber inbox overflow")
)

// ValidationError reports contract-violating input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// QuotaExceededError is returned when the quota engine blocks an admission
type QuotaExceededError struct {
	PoolID     string
	Violations []*QuotaViolation
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for pool %s (%d violations)", e.PoolID, len(e.Violations))
}

// ProvisioningReason classifies provisioning failures
type ProvisioningReason string

const (
	ReasonInvalidSpec         ProvisioningReason = "invalid_spec"
	ReasonImagePullFailure    ProvisioningReason = "image_pull_failure"
	ReasonResourceUnavailable ProvisioningReason = "resource_unavailable"
	ReasonProvisioningFailed  ProvisioningReason = "provisioning_failed"
)

// ProvisioningError reports a compute-driver provisioning failure. The
// orchestrator retries these with its placement-failure handling.
type ProvisioningError struct {
	Reason ProvisioningReason
	PoolID string
	Err    error
}

func (e *ProvisioningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provisioning failed (%s) in pool %s: %v", e.Reason, e.PoolID, e.Err)
	}
	return fmt.Sprintf("provisioning failed (%s) in pool %s", e.Reason, e.PoolID)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// IsProvisioning reports whether err is (or wraps) a ProvisioningError
func IsProvisioning(err error) bool {
	var pe *ProvisioningError
	return errors.As(err, &pe)
}

// RetryableError reports whether a placement or execution failure may be
// retried by the orchestrator. Validation and not-found failures are
// permanent; provisioning and quota failures are transient.
func RetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return false
	}
	return true
}
