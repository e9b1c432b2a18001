// internal/agent/errors.go
package agent

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed ExecutionResult.
type ErrorCode string

const (
	// -- Parameter errors --
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeUnknownAction     ErrorCode = "UNKNOWN_ACTION_TYPE"

	// -- Environment errors --
	ErrCodeEnvironment     ErrorCode = "ENVIRONMENT_ERROR"
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeTextNotFound    ErrorCode = "TEXT_NOT_FOUND"
	ErrCodeLaunchFailed    ErrorCode = "LAUNCH_FAILED"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"
	ErrCodeTimeoutError    ErrorCode = "TIMEOUT_ERROR"

	// -- Safety refusals --
	ErrCodePolicyRefused ErrorCode = "POLICY_REFUSED"
	ErrCodeSelfTarget    ErrorCode = "SELF_TARGET_REFUSED"
	ErrCodePasswordField ErrorCode = "PASSWORD_FIELD_REFUSED"

	// -- General --
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	ErrCodeCancelled        ErrorCode = "CANCELLED"

	// -- Internal System Errors --
	ErrCodeExecutorPanic ErrorCode = "EXECUTOR_PANIC"
)

// Run-level outcomes. Everything else a run meets is an ExecutionResult.
var (
	// ErrDisarmed is returned when a run is attempted while the latch is disarmed.
	ErrDisarmed = errors.New("agent is disarmed; arm it before running a goal")
	// ErrStopped marks a run that ended by cancellation.
	ErrStopped = errors.New("run stopped")
	// ErrConfirmationDeclined is an operator refusal; it is also ErrStopped.
	ErrConfirmationDeclined = fmt.Errorf("%w: operator declined confirmation", ErrStopped)
	// ErrEmptyGoal is returned for a blank goal.
	ErrEmptyGoal = errors.New("goal text is empty")
	// ErrEmptyPlan is returned when planning yields no steps.
	ErrEmptyPlan = errors.New("plan has no steps")
)

// ActionError is returned by action handlers to fail with a specific code.
type ActionError struct {
	Code    ErrorCode
	Message string
	// Details is carried into the result, e.g. captured stdout.
	Details string
}

func (e *ActionError) Error() string {
	return e.Message
}

func newActionError(code ErrorCode, format string, args ...any) *ActionError {
	return &ActionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalidParams(format string, args ...any) *ActionError {
	return newActionError(ErrCodeInvalidParameters, format, args...)
}
