package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/archivist/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionValidate(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		wantErr  bool
	}{
		{"tool call", DecideToolCall("web_search", map[string]any{"query": "x"}), false},
		{"final answer", DecideFinal("done"), false},
		{"empty", Decision{}, true},
		{"both variants", Decision{ToolCall: &ToolCall{Name: "x"}, Final: &FinalAnswer{Text: "y"}}, true},
		{"tool call without name", Decision{ToolCall: &ToolCall{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decision.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrMalformedDecision)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMockModelReplaysDecisions(t *testing.T) {
	m := NewMockModel(
		DecideToolCall("web_search", map[string]any{"query": "Frankie Knuckles"}),
		DecideFinal("The Godfather of House"),
	)

	req := Request{Question: "Who is Frankie Knuckles?"}

	d1, err := m.Decide(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, d1.ToolCall)
	assert.Equal(t, "web_search", d1.ToolCall.Name)

	d2, err := m.Decide(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, d2.Final)
	assert.Equal(t, "The Godfather of House", d2.Final.Text)

	// Script exhausted.
	_, err = m.Decide(context.Background(), req)
	assert.Error(t, err)

	assert.Len(t, m.Requests(), 3)
}

func TestMockModelRejectsEmptyHistory(t *testing.T) {
	m := NewMockModel(DecideFinal("x"))
	_, err := m.Decide(context.Background(), Request{})
	assert.Error(t, err)
}

func TestMockModelFailWith(t *testing.T) {
	m := NewMockModel(DecideFinal("x"))
	sentinel := errors.New("backend down")
	m.FailWith(sentinel)

	_, err := m.Decide(context.Background(), Request{Question: "q"})
	assert.ErrorIs(t, err, sentinel)
}
