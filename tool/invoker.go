package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/internal/util"
	"github.com/hupe1980/archivist/logging"
)

// InvokerOptions configures the retry-hardened dispatcher.
type InvokerOptions struct {
	// MaxAttempts is the total number of tries per invocation including
	// the first. Default 3.
	MaxAttempts int
	// BaseDelay is the initial backoff delay. Doubles each attempt with
	// jitter. Default 500ms.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay. Default 5s.
	MaxDelay time.Duration
	// Timeout bounds each individual attempt. Zero disables the per-call
	// timeout (the run context still applies). Default 30s.
	Timeout time.Duration
	// Logger receives per-invocation diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// Invoker wraps tool dispatch behind a uniform call/response contract:
// argument validation, per-call timeout, exponential backoff with jitter
// on transient failures, and a normalized core.ToolResult that never
// raises past the loop.
//
// Retry policy: only errors marked with Transient (and per-attempt
// timeouts) are retried; validation failures and other errors fail fast.
// The delay doubles each attempt starting from BaseDelay, capped at
// MaxDelay, with randomized jitter to avoid thundering-herd effects when
// multiple invokers retry concurrently.
type Invoker struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	timeout     time.Duration
	logger      logging.Logger
}

// NewInvoker constructs an Invoker with optional overrides.
func NewInvoker(optFns ...func(o *InvokerOptions)) *Invoker {
	opts := InvokerOptions{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Timeout:     30 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Invoker{
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
}

// Invoke validates args against the tool's schema, then executes the tool
// with the configured retry policy. It always returns a ToolResult; a
// failed invocation is reported with Success=false and a descriptive
// error rather than an error return. Callers detect cancellation through
// their own context.
func (inv *Invoker) Invoke(ctx context.Context, t Tool, args map[string]any) core.ToolResult {
	start := time.Now()

	// Schema violations are non-transient: fail fast without retrying.
	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		inv.logger.Warn("tool.invoke.validation_failed", "tool", t.Name(), "error", err.Error())

		toolErr := &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}

		return core.ToolResult{Success: false, Error: toolErr.Error(), Latency: time.Since(start), Attempts: 0}
	}

	var attempts int

	op := func() (any, error) {
		attempts++

		callCtx := ctx
		if inv.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
			defer cancel()
		}

		result, err := t.Invoke(callCtx, args)
		if err == nil {
			return result, nil
		}

		// The run was cancelled: abort instead of burning retries.
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("cancelled: %w", ctx.Err()))
		}

		if IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
			inv.logger.Warn("tool.invoke.retryable", "tool", t.Name(), "attempt", attempts, "error", err.Error())
			return nil, err
		}

		return nil, backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = inv.baseDelay
	bo.MaxInterval = inv.maxDelay
	bo.Multiplier = 2

	payload, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(inv.maxAttempts)),
	)

	latency := time.Since(start)

	if err != nil {
		inv.logger.Error("tool.invoke.failed", "tool", t.Name(), "attempts", attempts, "duration_ms", latency.Milliseconds(), "error", err.Error())

		return core.ToolResult{
			Success:  false,
			Error:    fmt.Sprintf("%s: %v", core.ErrToolInvocationFailed, err),
			Latency:  latency,
			Attempts: attempts,
		}
	}

	inv.logger.Info("tool.invoke.success", "tool", t.Name(), "attempts", attempts, "duration_ms", latency.Milliseconds())

	return core.ToolResult{
		Success:  true,
		Payload:  payload,
		Latency:  latency,
		Attempts: attempts,
	}
}
