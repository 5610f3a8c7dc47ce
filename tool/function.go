package tool

import (
	"context"
	"errors"

	"github.com/hupe1980/archivist/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Invokes the wrapped function with the call context
//   - Normalizes error handling so callers receive *ToolError with
//     consistent codes:
//     EXECUTION_ERROR -> underlying function returned an error (non-ToolError)
//     (custom codes and transient marks preserved if returned directly)
//
// Argument validation happens in the Invoker before dispatch, so the
// function receives already-validated args.
//
// Concurrency: a FunctionTool has no internal mutable state after
// construction and is safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	// Tool identifier (snake_case recommended)
	name string
	// Human-readable description shown to models
	description string
	// JSON schema describing accepted arguments
	parameters map[string]any
	// User supplied implementation
	fn func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and
// function.
//
// Example:
//
//	lookupTool := NewFunctionTool(
//	  "label_lookup",
//	  "Look up a record label in the local catalogue",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "label": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"label"},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return catalogue[args["label"].(string)], nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct
// using reflection. It is a convenience for simple argument containers and
// produces a schema equivalent to util.CreateSchema(structType).
//
// Example:
//
//	type LookupArgs struct {
//	  Label string `json:"label" description:"Record label name"`
//	}
//
//	lookupTool := NewFunctionToolFromStruct(
//	  "label_lookup",
//	  "Look up a record label in the local catalogue",
//	  LookupArgs{},
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return catalogue[args["label"].(string)], nil
//	  },
//	)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	schema := util.CreateSchema(structType)
	return NewFunctionTool(name, description, schema, fn)
}

// Name returns the unique tool name used in capability declarations and
// routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to
// models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the (minimal) JSON schema describing expected
// arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Invoke runs the underlying function. Failures are wrapped (or passed
// through) as *ToolError for uniform downstream handling.
//
// Error semantics:
//
//	*ToolError (returned directly)      -> forwarded unchanged
//	*TransientError (returned directly) -> forwarded unchanged (retryable)
//	other error                         -> *ToolError{Code: "EXECUTION_ERROR"}
func (t *FunctionTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) || IsTransient(err) {
			return nil, err
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}
