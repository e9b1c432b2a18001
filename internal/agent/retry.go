// internal/agent/retry.go
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds Execute-with-retries.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

// DefaultRetryPolicy is three attempts with 250ms linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 250 * time.Millisecond}
}

// ExecuteWithRetries runs action through exec until it succeeds or attempts
// run out. Errors from exec count as failed attempts. Cancellation is checked
// before every attempt and during backoff; when it fires the returned error
// wraps ErrStopped.
func ExecuteWithRetries(ctx context.Context, exec ActionExecutor, action Action, policy RetryPolicy, clock Clock, logger *zap.Logger) (*ExecutionResult, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var last *ExecutionResult
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Failed(ErrCodeCancelled, "cancelled before attempt %d", attempt), stopped(err)
		}

		logger.Info("Executing action",
			zap.String("action", action.Signature()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.MaxAttempts))

		result, err := exec.Execute(ctx, action)
		switch {
		case err != nil:
			logger.Warn("Action raised an error", zap.Int("attempt", attempt), zap.Error(err))
			last = Failed(ErrCodeExecutionFailure, "%v", err)
			if attempt == policy.MaxAttempts {
				return last, nil
			}
		case result == nil:
			last = Failed(ErrCodeExecutionFailure, "executor returned no result")
		case result.Success:
			return result, nil
		default:
			logger.Warn("Action failed",
				zap.Int("attempt", attempt),
				zap.String("error_code", string(result.Code)),
				zap.String("error", result.ErrorMessage))
			last = result
		}

		if attempt < policy.MaxAttempts {
			if err := clock.Sleep(ctx, policy.Backoff*time.Duration(attempt)); err != nil {
				return Failed(ErrCodeCancelled, "cancelled during backoff"), stopped(err)
			}
		}
	}

	exhausted := &ExecutionResult{
		Code:         ErrCodeRetriesExhausted,
		ErrorMessage: "action failed after retries",
	}
	if last != nil {
		// Keep the final cause so a policy refusal stays recognisable.
		exhausted.Code = last.Code
		exhausted.Details = last.ErrorMessage
	}
	return exhausted, nil
}
