// Package model defines the decision contract between the research loop
// and a language-model backend, plus a scriptable mock for tests. Provider
// adapters live in the anthropic and openai subpackages.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/archivist/core"
)

// ToolCall is the model requesting execution of a registered tool with an
// argument mapping. ID correlates the call with its observation; adapters
// fill it from the provider's call id when available.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FinalAnswer is the model concluding the research with answer text.
type FinalAnswer struct {
	Text string `json:"text"`
}

// Decision is the tagged outcome of a single model call: exactly one of
// ToolCall or Final is set. Adapters never return an empty decision; a
// provider response carrying neither a tool call nor text is surfaced as
// core.ErrMalformedDecision instead.
type Decision struct {
	ToolCall *ToolCall
	Final    *FinalAnswer
}

// Validate checks the exactly-one-variant contract.
func (d Decision) Validate() error {
	if d.ToolCall != nil && d.Final != nil {
		return fmt.Errorf("%w: both tool call and final answer set", core.ErrMalformedDecision)
	}
	if d.ToolCall == nil && d.Final == nil {
		return fmt.Errorf("%w: neither tool call nor final answer set", core.ErrMalformedDecision)
	}
	if d.ToolCall != nil && d.ToolCall.Name == "" {
		return fmt.Errorf("%w: tool call without a tool name", core.ErrMalformedDecision)
	}
	return nil
}

// Request captures the normalized model input produced by the loop: the
// system instructions, the original question, the full step history and
// the capabilities the model may call.
type Request struct {
	Instructions string
	Question     string
	Steps        []core.Step
	Capabilities []core.Capability
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the loop to drive research.
// Decide makes exactly one outbound call per invocation; it either returns
// a well-formed Decision or an error, never a silent empty decision.
// Implementations must be safe for concurrent use by multiple sessions.
type Model interface {
	Decide(ctx context.Context, req Request) (Decision, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It replays a scripted sequence of decisions and records the requests it
// received for assertions.
type MockModel struct {
	info      Info
	decisions []Decision
	requests  []Request
	err       error
	mu        sync.Mutex
}

// NewMockModel constructs a MockModel replaying the given decisions in
// order.
func NewMockModel(decisions ...Decision) *MockModel {
	return &MockModel{
		info:      Info{Name: "mock", Provider: "mock", SupportsTools: true},
		decisions: decisions,
	}
}

// FailWith makes every subsequent Decide call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Decide implements Model by popping the next scripted decision.
func (m *MockModel) Decide(_ context.Context, req Request) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(req.Steps) == 0 && req.Question == "" {
		return Decision{}, fmt.Errorf("mock: history must not be empty")
	}

	m.requests = append(m.requests, req)

	if m.err != nil {
		return Decision{}, m.err
	}
	if len(m.decisions) == 0 {
		return Decision{}, fmt.Errorf("mock: no scripted decision left")
	}

	d := m.decisions[0]
	m.decisions = m.decisions[1:]

	return d, nil
}

// Requests returns a copy of the requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// DecideToolCall is a convenience constructor for scripted tool call
// decisions.
func DecideToolCall(name string, args map[string]any) Decision {
	return Decision{ToolCall: &ToolCall{Name: name, Args: args}}
}

// DecideFinal is a convenience constructor for scripted final answers.
func DecideFinal(text string) Decision {
	return Decision{Final: &FinalAnswer{Text: text}}
}
