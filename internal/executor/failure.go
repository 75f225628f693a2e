package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// FailureClass categorizes a submission failure for the automation log and
// the retry scheduler.
type FailureClass string

const (
	FailureNetwork            FailureClass = "network"
	FailureFormSchemaMismatch FailureClass = "form-schema-mismatch"
	FailureAuthentication     FailureClass = "authentication"
	FailureRateLimited        FailureClass = "rate-limited"
	FailureCaptcha            FailureClass = "captcha"
	FailureContentValidation  FailureClass = "content-validation"
	FailureUnknown            FailureClass = "unknown"
)

// Retryable reports whether the scheduled retry job may re-drive this
// failure. Everything else waits for a human.
func (c FailureClass) Retryable() bool {
	return c == FailureNetwork || c == FailureRateLimited
}

// retryBase, retryFactor and retryCap define the retry backoff curve.
const (
	retryBase   = 60 * time.Second
	retryFactor = 2
	retryCap    = time.Hour
	// MaxRetryAttempts bounds scheduled retries per application.
	MaxRetryAttempts = 5
)

// RetryDelay returns the backoff before the given attempt (0-based).
func RetryDelay(attempt int) time.Duration {
	d := retryBase
	for i := 0; i < attempt; i++ {
		d *= retryFactor
		if d >= retryCap {
			return retryCap
		}
	}
	return d
}

// SubmitError is a classified submission failure. Mutated marks failures
// that happened after a mutating step already ran; those are never retried
// automatically regardless of class.
type SubmitError struct {
	Class   FailureClass
	Message string
	Mutated bool
	Cause   error
}

// Error implements the error interface.
func (e *SubmitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SubmitError) Unwrap() error { return e.Cause }

// Retryable reports whether this specific failure may be retried.
func (e *SubmitError) Retryable() bool {
	return !e.Mutated && e.Class.Retryable()
}

// Classify maps an arbitrary submission error to a failure class. Errors
// already carrying a class pass through.
func Classify(err error) FailureClass {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Class
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}
	return FailureUnknown
}
