package core

import (
	"fmt"
	"sync"
	"time"
)

// Status describes the lifecycle state of a research session.
type Status string

const (
	// StatusRunning is the initial, only non-terminal status.
	StatusRunning Status = "running"
	// StatusCompleted means the model produced a final answer.
	StatusCompleted Status = "completed"
	// StatusExhausted means the iteration budget was spent before a final
	// answer; a best-effort partial result, distinct from failure.
	StatusExhausted Status = "exhausted"
	// StatusFailed means the orchestration contract broke (malformed
	// decision, unreachable model) or the run was cancelled.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool { return s != StatusRunning }

// Session is the mutable record of one end-to-end research request: the
// original question, the ordered append-only step trace, the iteration
// count and the lifecycle status. A session is exclusively owned by the
// loop run that created it; the mutex guards against observers (stores,
// runners) reading while the owner appends.
//
// Trace invariant: steps strictly alternate action -> observation. Each
// action step is followed by exactly one observation step sharing its
// CallID before the next action or final step may be appended. Iterations
// increments once per completed action/observation pair.
type Session struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Status     Status    `json:"status"`
	Iterations int       `json:"iterations"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`

	steps   []Step
	pending *ActionStep // last appended action awaiting its observation
	mu      sync.RWMutex
}

// NewSession creates a running session for the given question.
func NewSession(id, question string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Question: question, Status: StatusRunning, Created: now, Updated: now}
}

// AppendStep appends a step enforcing the alternation invariant:
//   - ActionStep: rejected while an action is awaiting its observation
//   - ObservationStep: rejected unless it answers the pending action and
//     carries the same CallID; increments the iteration count
//   - FinalStep: rejected while an action is awaiting its observation
//
// Appending to a terminal session fails with ErrSessionTerminal.
func (s *Session) AppendStep(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", ErrSessionTerminal, s.ID, s.Status)
	}

	switch st := step.(type) {
	case ActionStep:
		if s.pending != nil {
			return fmt.Errorf("%w: action %q while action %q awaits observation", ErrStepOrder, st.Tool, s.pending.Tool)
		}
		s.pending = &st
	case ObservationStep:
		if s.pending == nil {
			return fmt.Errorf("%w: observation for %q without a pending action", ErrStepOrder, st.Tool)
		}
		if st.CallID != s.pending.CallID {
			return fmt.Errorf("%w: observation call id %q does not match pending action %q", ErrStepOrder, st.CallID, s.pending.CallID)
		}
		s.pending = nil
		s.Iterations++
	case FinalStep:
		if s.pending != nil {
			return fmt.Errorf("%w: final answer while action %q awaits observation", ErrStepOrder, s.pending.Tool)
		}
	default:
		return fmt.Errorf("%w: unsupported step type %T", ErrStepOrder, step)
	}

	s.steps = append(s.steps, step)
	s.Updated = time.Now().UTC()

	return nil
}

// SetStatus transitions the session status. Transitions out of a terminal
// status are rejected.
func (s *Session) SetStatus(status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.Terminal() {
		return fmt.Errorf("%w: cannot transition %s -> %s", ErrSessionTerminal, s.Status, status)
	}

	s.Status = status
	s.Updated = time.Now().UTC()

	return nil
}

// Steps returns a defensive copy of the step trace.
func (s *Session) Steps() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := make([]Step, len(s.steps))
	copy(steps, s.steps)
	return steps
}

// CurrentStatus returns the status under the read lock.
func (s *Session) CurrentStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// IterationCount returns the number of completed action/observation pairs.
func (s *Session) IterationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Iterations
}

// Clone returns a deep copy safe for independent inspection. The clone of
// a mid-pair session keeps its pending marker so the invariant carries over.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:         s.ID,
		Question:   s.Question,
		Status:     s.Status,
		Iterations: s.Iterations,
		Created:    s.Created,
		Updated:    s.Updated,
		steps:      make([]Step, len(s.steps)),
	}
	copy(clone.steps, s.steps)
	if s.pending != nil {
		pending := *s.pending
		clone.pending = &pending
	}
	return clone
}

// SessionStore persists sessions and their evolving step traces.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	Create(id, question string) (*Session, error)
	Get(id string) (*Session, error)
	AppendStep(id string, step Step) error
	SetStatus(id string, status Status) error
}
