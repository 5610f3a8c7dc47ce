package core

import (
	"time"

	"github.com/google/uuid"
)

// Step is a single entry in a session's reasoning trace. Concrete step
// types implement the unexported isStep marker enabling a closed set.
// Steps are immutable once appended to a session.
type Step interface{ isStep() }

// ActionStep records the loop dispatching a named tool with a set of
// arguments. CallID correlates the action with its observation.
type ActionStep struct {
	CallID    string         `json:"call_id"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// isStep implements the Step interface for ActionStep.
func (ActionStep) isStep() {}

// ObservationStep records the outcome of the action step sharing its
// CallID. Exactly one of Result or Error is meaningful; Error is set for
// unknown tools, validation failures and invocations that exhausted their
// retry budget.
type ObservationStep struct {
	CallID    string        `json:"call_id"`
	Tool      string        `json:"tool"`
	Result    any           `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
	Attempts  int           `json:"attempts,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// isStep implements the Step interface for ObservationStep.
func (ObservationStep) isStep() {}

// Failed reports whether the observation records a tool failure.
func (o ObservationStep) Failed() bool { return o.Error != "" }

// FinalStep carries the model's final answer text and closes the trace.
type FinalStep struct {
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// isStep implements the Step interface for FinalStep.
func (FinalStep) isStep() {}

// NewActionStep creates an action step stamped with the current UTC time.
// An empty callID is replaced with a fresh id so observations can always
// be correlated.
func NewActionStep(callID, toolName string, args map[string]any) ActionStep {
	if callID == "" {
		callID = NewID()
	}
	return ActionStep{CallID: callID, Tool: toolName, Args: args, Timestamp: time.Now().UTC()}
}

// NewObservationStep creates an observation for a successful tool result.
func NewObservationStep(callID, toolName string, result any, latency time.Duration, attempts int) ObservationStep {
	return ObservationStep{
		CallID:    callID,
		Tool:      toolName,
		Result:    result,
		Latency:   latency,
		Attempts:  attempts,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorObservationStep creates an observation recording a tool failure.
// Used both for synthetic errors (unknown tool) and exhausted retries.
func NewErrorObservationStep(callID, toolName, errMsg string, latency time.Duration, attempts int) ObservationStep {
	return ObservationStep{
		CallID:    callID,
		Tool:      toolName,
		Error:     errMsg,
		Latency:   latency,
		Attempts:  attempts,
		Timestamp: time.Now().UTC(),
	}
}

// NewFinalStep creates the terminal answer step.
func NewFinalStep(answer string) FinalStep {
	return FinalStep{Answer: answer, Timestamp: time.Now().UTC()}
}

// NewID generates a new unique identifier for sessions, runs and tool calls.
func NewID() string { return uuid.NewString() }
