// Package tool implements the capability subsystem that lets the research
// loop invoke structured external actions (search, page fetch, notes)
// with schema validated arguments, consistent error handling and
// retry-hardened dispatch.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/archivist/internal/util"
)

// Tool defines the interface for extending the agent with external
// capabilities.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Define proper JSON schema for parameters
//   - Return errors rather than panicking
//   - Mark transient failures with Transient so the invoker retries them
//   - Be safe for concurrent use across sessions
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the model to help it decide when to call.
	Description() string

	// Parameters returns a JSON schema describing the expected input
	// format, used for argument validation and model function calling.
	Parameters() map[string]any

	// Invoke executes the tool with arguments already validated against
	// the schema. The context carries cancellation, the per-call timeout
	// and, inside a run, core.RunInfo.
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed
// information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// TransientError marks a failure as retryable (network error, rate limit,
// provider 5xx). The invoker retries transient failures with exponential
// backoff and fails fast on everything else.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

// Unwrap exposes the underlying error to errors.Is/As.
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
