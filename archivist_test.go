package archivist

import (
	"context"
	"testing"
	"time"

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

func fastOptions(o *Options) {
	o.RetryBaseDelay = time.Millisecond
	o.RetryMaxDelay = 2 * time.Millisecond
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestResearchEndToEnd(t *testing.T) {
	mock := model.NewMockModel(
		model.DecideToolCall("web_search", map[string]any{"query": "Aphex Twin first release"}),
		model.DecideToolCall("save_note", map[string]any{"content": "Analogue Bubblebath came out in 1991 on Mighty Force."}),
		model.DecideFinal("Aphex Twin's first release was Analogue Bubblebath (1991)."),
	)

	search := tool.NewFunctionTool("web_search", "test search", querySchema,
		func(context.Context, map[string]any) (any, error) {
			return "Analogue Bubblebath, Mighty Force Records, 1991", nil
		})

	a, err := New(mock, fastOptions, func(o *Options) {
		o.Tools = []tool.Tool{search}
	})
	require.NoError(t, err)

	outcome, err := a.Research(context.Background(), "What was Aphex Twin's first release?")
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, outcome.Status)
	assert.Contains(t, outcome.Answer, "Analogue Bubblebath")
	assert.Equal(t, 2, outcome.Iterations)

	// The saved note is scoped to the run's session.
	notes, err := a.Evidence().Search(outcome.SessionID, "Mighty Force", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	// The session trace was persisted.
	sess, err := a.Session(outcome.SessionID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, sess.Status)
	assert.Len(t, sess.Steps(), 5)
}

func TestResearchProfile(t *testing.T) {
	answer := "```json\n" + `{
		"name": "Aphex Twin",
		"aliases": ["AFX", "Polygon Window"],
		"genres": ["IDM", "acid techno"]
	}` + "\n```"

	mock := model.NewMockModel(model.DecideFinal(answer))

	a, err := New(mock, fastOptions)
	require.NoError(t, err)

	profile, outcome, err := a.ResearchProfile(context.Background(), "Aphex Twin")
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, outcome.Status)
	assert.Equal(t, "Aphex Twin", profile.Name)
	assert.Contains(t, profile.Aliases, "AFX")
}

func TestResearchProfileMalformedAnswer(t *testing.T) {
	mock := model.NewMockModel(model.DecideFinal("no json here"))

	a, err := New(mock, fastOptions)
	require.NoError(t, err)

	profile, outcome, err := a.ResearchProfile(context.Background(), "Unknown Artist")
	require.Error(t, err)
	assert.Nil(t, profile)
	require.NotNil(t, outcome)
	assert.Equal(t, core.StatusCompleted, outcome.Status)
}

func TestBackgroundResearchAndCancel(t *testing.T) {
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

	a, err := New(mock, fastOptions, func(o *Options) {
		o.Tools = []tool.Tool{blocker}
	})
	require.NoError(t, err)

	id, results, err := a.StartResearch(context.Background(), "question")
	require.NoError(t, err)

	<-started
	assert.Equal(t, 1, a.ActiveRuns())
	assert.True(t, a.Cancel(id))

	res := <-results
	require.Error(t, res.Err)
	assert.Equal(t, core.StatusFailed, res.Outcome.Status)
	assert.Equal(t, 0, a.ActiveRuns())
}

func TestDisableNoteTools(t *testing.T) {
	mock := model.NewMockModel(
		model.DecideToolCall("save_note", map[string]any{"content": "x"}),
		model.DecideFinal("done"),
	)

	a, err := New(mock, fastOptions, func(o *Options) {
		o.DisableNoteTools = true
	})
	require.NoError(t, err)

	outcome, err := a.Research(context.Background(), "question")
	require.NoError(t, err)

	// save_note is not registered, so the call surfaces as an error
	// observation and the run still completes.
	obs := outcome.Steps[1].(core.ObservationStep)
	assert.True(t, obs.Failed())
	assert.Equal(t, core.StatusCompleted, outcome.Status)
}
