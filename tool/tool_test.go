package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/archivist/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Registry Tests --------------------

func echoTool(name string) *FunctionTool {
	return NewFunctionTool(name, "Echo "+name, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})
}

func TestRegistryResolve(t *testing.T) {
	reg, err := NewRegistry(echoTool("web_search"), echoTool("fetch_page"))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	tl, err := reg.Resolve("web_search")
	require.NoError(t, err)
	assert.Equal(t, "web_search", tl.Name())

	_, err = reg.Resolve("nope")
	assert.ErrorIs(t, err, core.ErrUnknownTool)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(echoTool("web_search"), echoTool("web_search"))
	assert.Error(t, err)
}

func TestRegistryCapabilitiesOrdered(t *testing.T) {
	reg, err := NewRegistry(echoTool("b_tool"), echoTool("a_tool"))
	require.NoError(t, err)

	caps := reg.Capabilities()
	require.Len(t, caps, 2)
	assert.Equal(t, "b_tool", caps[0].Name)
	assert.Equal(t, "a_tool", caps[1].Name)
	assert.Equal(t, "Echo b_tool", caps[0].Description)
	assert.NotNil(t, caps[0].Parameters)
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionToolSuccess(t *testing.T) {
	sum := NewFunctionTool("sum", "Add numbers", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sum.Invoke(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionToolWrapsErrors(t *testing.T) {
	failing := NewFunctionTool("fail", "Always fails", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("boom")
		})

	_, err := failing.Invoke(context.Background(), nil)
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

func TestFunctionToolPreservesTransient(t *testing.T) {
	flaky := NewFunctionTool("flaky", "Transient failure", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, Transient(errors.New("rate limited"))
		})

	_, err := flaky.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"Search query"`
		Limit *int   `json:"limit,omitempty" description:"Result limit"`
	}

	tl := NewFunctionToolFromStruct("search", "Search", args{},
		func(_ context.Context, a map[string]any) (any, error) { return a["query"], nil })

	schema := tl.Parameters()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"query"}, req)
}

// -------------------- Invoker Tests --------------------

// fastInvoker keeps retry delays negligible for tests.
func fastInvoker(maxAttempts int) *Invoker {
	return NewInvoker(func(o *InvokerOptions) {
		o.MaxAttempts = maxAttempts
		o.BaseDelay = time.Millisecond
		o.MaxDelay = 5 * time.Millisecond
		o.Timeout = time.Second
	})
}

// flakyTool fails with a transient error until failures is exhausted.
type flakyTool struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyTool) Name() string               { return "flaky_search" }
func (f *flakyTool) Description() string        { return "Flaky search" }
func (f *flakyTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}
}

func (f *flakyTool) Invoke(_ context.Context, args map[string]any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, Transient(fmt.Errorf("timeout on attempt %d", f.calls))
	}
	return fmt.Sprintf("results for %v", args["query"]), nil
}

func TestInvokerRetriesTransientThenSucceeds(t *testing.T) {
	tl := &flakyTool{failures: 2}
	inv := fastInvoker(3)

	res := inv.Invoke(context.Background(), tl, map[string]any{"query": "deep house"})
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "results for deep house", res.Payload)
}

func TestInvokerIdempotentResult(t *testing.T) {
	// A retried success yields the same payload as a first-attempt success
	// (modulo latency/attempts).
	retried := fastInvoker(3).Invoke(context.Background(), &flakyTool{failures: 1}, map[string]any{"query": "acid"})
	direct := fastInvoker(3).Invoke(context.Background(), &flakyTool{}, map[string]any{"query": "acid"})

	require.True(t, retried.Success)
	require.True(t, direct.Success)
	assert.Equal(t, direct.Payload, retried.Payload)
}

func TestInvokerExhaustsRetries(t *testing.T) {
	tl := &flakyTool{failures: 10}
	inv := fastInvoker(3)

	res := inv.Invoke(context.Background(), tl, map[string]any{"query": "x"})
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Contains(t, res.Error, "tool invocation failed")
	assert.Equal(t, 3, tl.calls)
}

func TestInvokerFailsFastOnPermanentError(t *testing.T) {
	calls := 0
	bad := NewFunctionTool("bad", "Bad request", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (any, error) {
			calls++
			return nil, errors.New("400 bad request")
		})

	res := fastInvoker(3).Invoke(context.Background(), bad, map[string]any{})
	assert.False(t, res.Success)
	assert.Equal(t, 1, calls)
}

func TestInvokerValidatesBeforeDispatch(t *testing.T) {
	tl := &flakyTool{}
	res := fastInvoker(3).Invoke(context.Background(), tl, map[string]any{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "VALIDATION_ERROR")
	assert.Equal(t, 0, tl.calls)
}

func TestInvokerStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tl := &flakyTool{failures: 10}
	res := fastInvoker(3).Invoke(ctx, tl, map[string]any{"query": "x"})
	assert.False(t, res.Success)
	assert.LessOrEqual(t, tl.calls, 1)
}

// -------------------- Transient marker --------------------

func TestTransientMarker(t *testing.T) {
	assert.Nil(t, Transient(nil))

	base := errors.New("socket closed")
	wrapped := Transient(base)
	assert.True(t, IsTransient(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsTransient(base))

	// Survives further wrapping.
	assert.True(t, IsTransient(fmt.Errorf("outer: %w", wrapped)))
}
