package runner

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/archivist/agent"
	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/model"
	"github.com/hupe1980/archivist/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var querySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{"type": "string"},
	},
	"required": []string{"query"},
}

func newLoop(t *testing.T, m model.Model, tools ...tool.Tool) *agent.Loop {
	t.Helper()

	registry, err := tool.NewRegistry(tools...)
	require.NoError(t, err)

	invoker := tool.NewInvoker(func(o *tool.InvokerOptions) {
		o.BaseDelay = time.Millisecond
	})

	return agent.NewLoop(m, registry, invoker)
}

func TestStartDeliversResult(t *testing.T) {
	mock := model.NewMockModel(model.DecideFinal("the answer"))
	r := New(newLoop(t, mock, tool.NewFunctionTool("noop", "noop", querySchema,
		func(context.Context, map[string]any) (any, error) { return "ok", nil })))

	id, results, err := r.Start(context.Background(), "question")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, core.StatusCompleted, res.Outcome.Status)
	assert.Equal(t, "the answer", res.Outcome.Answer)
	assert.Equal(t, 0, r.Active())
}

func TestStartEmptyQuestion(t *testing.T) {
	r := New(newLoop(t, model.NewMockModel()))

	_, _, err := r.Start(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrEmptyQuestion)
}

func TestCancelAbortsRun(t *testing.T) {
	started := make(chan struct{})

	blocker := tool.NewFunctionTool("slow", "blocks until cancelled", querySchema,
		func(ctx context.Context, _ map[string]any) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	mock := model.NewMockModel(
		model.DecideToolCall("slow", map[string]any{"query": "q"}),
		model.DecideToolCall("slow", map[string]any{"query": "q"}),
	)

	r := New(newLoop(t, mock, blocker))

	id, results, err := r.Start(context.Background(), "question")
	require.NoError(t, err)

	<-started
	assert.True(t, r.Cancel(id))

	res := <-results
	require.Error(t, res.Err)
	assert.Equal(t, core.StatusFailed, res.Outcome.Status)

	// A second cancel is a no-op.
	assert.False(t, r.Cancel(id))
}

func TestCancelAll(t *testing.T) {
	blocker := tool.NewFunctionTool("slow", "blocks until cancelled", querySchema,
		func(ctx context.Context, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	// Enough scripted tool calls for two concurrent runs.
	mock := model.NewMockModel(
		model.DecideToolCall("slow", map[string]any{"query": "q"}),
		model.DecideToolCall("slow", map[string]any{"query": "q"}),
		model.DecideToolCall("slow", map[string]any{"query": "q"}),
		model.DecideToolCall("slow", map[string]any{"query": "q"}),
	)

	r := New(newLoop(t, mock, blocker))

	_, res1, err := r.Start(context.Background(), "q1")
	require.NoError(t, err)
	_, res2, err := r.Start(context.Background(), "q2")
	require.NoError(t, err)

	r.CancelAll()

	out1 := <-res1
	out2 := <-res2
	assert.Equal(t, core.StatusFailed, out1.Outcome.Status)
	assert.Equal(t, core.StatusFailed, out2.Outcome.Status)
	assert.Equal(t, 0, r.Active())
}
