package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFailureClassRetryable(t *testing.T) {
	assert.True(t, FailureNetwork.Retryable())
	assert.True(t, FailureRateLimited.Retryable())

	assert.False(t, FailureFormSchemaMismatch.Retryable())
	assert.False(t, FailureAuthentication.Retryable())
	assert.False(t, FailureCaptcha.Retryable())
	assert.False(t, FailureContentValidation.Retryable())
	assert.False(t, FailureUnknown.Retryable())
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 60 * time.Second},
		{1, 2 * time.Minute},
		{2, 4 * time.Minute},
		{3, 8 * time.Minute},
		{4, 16 * time.Minute},
		{5, 32 * time.Minute},
		{6, time.Hour}, // capped
		{10, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestSubmitErrorRetryable(t *testing.T) {
	retryable := &SubmitError{Class: FailureNetwork, Message: "timeout"}
	assert.True(t, retryable.Retryable())

	// A mutating step already ran: never auto-retry, regardless of class.
	mutated := &SubmitError{Class: FailureNetwork, Message: "confirmation missing", Mutated: true}
	assert.False(t, mutated.Retryable())

	captcha := &SubmitError{Class: FailureCaptcha, Message: "captcha on form"}
	assert.False(t, captcha.Retryable())
}

func TestSubmitErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &SubmitError{Class: FailureNetwork, Message: "post failed", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestClassify(t *testing.T) {
	se := &SubmitError{Class: FailureRateLimited, Message: "429"}
	assert.Equal(t, FailureRateLimited, Classify(se))
	assert.Equal(t, FailureRateLimited, Classify(fmt.Errorf("wrapped: %w", se)))

	assert.Equal(t, FailureNetwork, Classify(context.DeadlineExceeded))
	assert.Equal(t, FailureUnknown, Classify(errors.New("something else")))
}
