package core

import "errors"

var (
	// ErrUnknownTool is returned when a decision names a tool that is not
	// registered. The loop recovers locally by appending an error
	// observation instead of aborting.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolInvocationFailed indicates a tool call failed after its retry
	// budget was exhausted. Also recovered locally as an observation.
	ErrToolInvocationFailed = errors.New("tool invocation failed")

	// ErrModelUnavailable indicates the model backend could not be reached
	// or rejected the request. Surfaces to the caller as a failed outcome.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedDecision indicates the model returned content that is
	// neither a tool call nor a final answer. A broken orchestration
	// contract, not a research dead-end; surfaces as a failed outcome.
	ErrMalformedDecision = errors.New("malformed model decision")

	// ErrEmptyQuestion is returned when a run is started without a
	// research question.
	ErrEmptyQuestion = errors.New("research question must not be empty")

	// ErrStepOrder is returned when appending a step would violate the
	// strict action/observation alternation of the session trace.
	ErrStepOrder = errors.New("step ordering violation")

	// ErrSessionTerminal is returned when mutating a session that already
	// reached a terminal status.
	ErrSessionTerminal = errors.New("session is terminal")

	// ErrSessionNotFound is returned by session stores for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)
