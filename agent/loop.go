// Package agent implements the research loop: a bounded decide/act/observe
// cycle that drives a model against a registry of tools until it produces a
// final answer, exhausts its iteration budget, or fails.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/logging"
	"github.com/hupe1980/archivist/model"
	"github.com/hupe1980/archivist/tool"
)

// DefaultMaxIterations bounds a run when no explicit budget is configured.
const DefaultMaxIterations = 10

// Options configures a Loop.
type Options struct {
	// MaxIterations is the action/observation pair budget per run.
	// Values below 1 fall back to DefaultMaxIterations.
	MaxIterations int
	// Instruction is the system prompt. Defaults to the archivist persona
	// with artist profile format instructions.
	Instruction Instruction
	// SessionStore persists sessions. Optional; without it sessions live
	// only for the duration of the run.
	SessionStore core.SessionStore
	// EvidenceStore backs the note tools and partial answers on
	// exhaustion. Optional.
	EvidenceStore core.EvidenceStore
	// Logger receives run diagnostics. Defaults to a no-op.
	Logger *logging.ArchivistLogger
}

// Loop orchestrates one research conversation per Run call. A single Loop
// is safe for concurrent runs: all per-run state lives in the session.
type Loop struct {
	model         model.Model
	registry      *tool.Registry
	invoker       *tool.Invoker
	maxIterations int
	instruction   Instruction
	sessionStore  core.SessionStore
	evidenceStore core.EvidenceStore
	logger        *logging.ArchivistLogger
}

// Outcome is the result of a research run.
type Outcome struct {
	SessionID  string      `json:"session_id"`
	RunID      string      `json:"run_id"`
	Status     core.Status `json:"status"`
	Answer     string      `json:"answer,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Iterations int         `json:"iterations"`
	Steps      []core.Step `json:"steps"`
}

// NewLoop constructs a research loop over a model and a tool registry.
func NewLoop(m model.Model, registry *tool.Registry, invoker *tool.Invoker, optFns ...func(o *Options)) *Loop {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Instruction:   DefaultInstruction(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations < 1 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if invoker == nil {
		invoker = tool.NewInvoker()
	}
	if opts.Instruction.IsZero() {
		opts.Instruction = DefaultInstruction()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelError, Format: "text", Output: discard{}})
	}

	return &Loop{
		model:         m,
		registry:      registry,
		invoker:       invoker,
		maxIterations: opts.MaxIterations,
		instruction:   opts.Instruction,
		sessionStore:  opts.SessionStore,
		evidenceStore: opts.EvidenceStore,
		logger:        logger.WithComponent("loop"),
	}
}

// discard is an io.Writer for the default silenced logger.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Run executes the bounded research loop for question. It returns a
// non-nil Outcome for every started run; the error is non-nil only when
// the run ended in StatusFailed (malformed decision, unreachable model,
// cancellation) or could not start at all.
func (l *Loop) Run(ctx context.Context, question string) (*Outcome, error) {
	if strings.TrimSpace(question) == "" {
		return nil, core.ErrEmptyQuestion
	}

	info := core.RunInfo{SessionID: core.NewID(), RunID: core.NewID()}
	ctx = core.WithRunInfo(ctx, info)

	sess, err := l.newSession(info.SessionID, question)
	if err != nil {
		return nil, err
	}

	logger := l.logger.WithSession(info.SessionID, info.RunID)
	logger.Info("research run started: %q", question)

	instructions, err := l.instruction.Resolve(info)
	if err != nil {
		return l.finish(sess, info, core.StatusFailed, "", fmt.Sprintf("failed to resolve instructions: %v", err)),
			fmt.Errorf("failed to resolve instructions: %w", err)
	}

	limiter := core.NewIterationLimiter(l.maxIterations)
	capabilities := l.registry.Capabilities()
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			logger.LogResearchRun(string(core.StatusFailed), sess.IterationCount(), time.Since(start), err)
			return l.finish(sess, info, core.StatusFailed, "", fmt.Sprintf("run cancelled: %v", err)), err
		}

		decision, err := l.decide(ctx, logger, instructions, sess, capabilities)
		if err != nil {
			logger.LogResearchRun(string(core.StatusFailed), sess.IterationCount(), time.Since(start), err)
			return l.finish(sess, info, core.StatusFailed, "", err.Error()), err
		}

		if decision.Final != nil {
			if err := l.appendStep(sess, core.NewFinalStep(decision.Final.Text)); err != nil {
				return l.finish(sess, info, core.StatusFailed, "", err.Error()), err
			}
			logger.LogResearchRun(string(core.StatusCompleted), sess.IterationCount(), time.Since(start), nil)
			return l.finish(sess, info, core.StatusCompleted, decision.Final.Text, ""), nil
		}

		// Tool call path. Spend budget before dispatching so a run never
		// exceeds its configured pair count.
		if err := limiter.Increment(); err != nil {
			answer := l.partialAnswer(sess)
			logger.LogResearchRun(string(core.StatusExhausted), sess.IterationCount(), time.Since(start), nil)
			return l.finish(sess, info, core.StatusExhausted, answer,
				fmt.Sprintf("iteration budget of %d spent before a final answer", l.maxIterations)), nil
		}

		if err := l.dispatch(ctx, logger, sess, decision.ToolCall); err != nil {
			return l.finish(sess, info, core.StatusFailed, "", err.Error()), err
		}
	}
}

// newSession creates the run's local session and registers it with the
// store when one is configured. The local session stays authoritative for
// the trace; every append and status transition is mirrored through the
// store interface so durable implementations see the full history.
func (l *Loop) newSession(id, question string) (*core.Session, error) {
	if l.sessionStore != nil {
		if _, err := l.sessionStore.Create(id, question); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}
	return core.NewSession(id, question), nil
}

// appendStep appends to the local trace and writes the step through the
// session store.
func (l *Loop) appendStep(sess *core.Session, step core.Step) error {
	if err := sess.AppendStep(step); err != nil {
		return err
	}
	if l.sessionStore != nil {
		if err := l.sessionStore.AppendStep(sess.ID, step); err != nil {
			return fmt.Errorf("failed to persist step: %w", err)
		}
	}
	return nil
}

// decide makes one model call and validates the returned decision.
func (l *Loop) decide(ctx context.Context, logger *logging.ArchivistLogger, instructions string, sess *core.Session, capabilities []core.Capability) (model.Decision, error) {
	start := time.Now()

	decision, err := l.model.Decide(ctx, model.Request{
		Instructions: instructions,
		Question:     sess.Question,
		Steps:        sess.Steps(),
		Capabilities: capabilities,
	})
	if err != nil {
		logger.LogModelCall(l.model.Info().Name, time.Since(start), false, err)
		return model.Decision{}, err
	}

	if err := decision.Validate(); err != nil {
		logger.LogModelCall(l.model.Info().Name, time.Since(start), false, err)
		return model.Decision{}, err
	}

	logger.LogModelCall(l.model.Info().Name, time.Since(start), true, nil)
	return decision, nil
}

// dispatch resolves and invokes the requested tool, appending the
// action/observation pair. Unknown tools and failed invocations become
// error observations the model can react to; only trace corruption is
// returned as an error.
func (l *Loop) dispatch(ctx context.Context, logger *logging.ArchivistLogger, sess *core.Session, call *model.ToolCall) error {
	action := core.NewActionStep(call.ID, call.Name, call.Args)
	if err := l.appendStep(sess, action); err != nil {
		return err
	}

	t, err := l.registry.Resolve(call.Name)
	if err != nil {
		// The model named a tool we never offered. Tell it and move on.
		logger.Warn("unknown tool requested: %s", call.Name)
		return l.appendStep(sess, core.NewErrorObservationStep(action.CallID, call.Name, err.Error(), 0, 0))
	}

	result := l.invoker.Invoke(ctx, t, call.Args)

	if !result.Success {
		logger.LogToolCall(call.Name, result.Attempts, result.Latency, false, fmt.Errorf("%s", result.Error))
		return l.appendStep(sess, core.NewErrorObservationStep(action.CallID, call.Name, result.Error, result.Latency, result.Attempts))
	}

	logger.LogToolCall(call.Name, result.Attempts, result.Latency, true, nil)

	return l.appendStep(sess, core.NewObservationStep(action.CallID, call.Name, result.Payload, result.Latency, result.Attempts))
}

// partialAnswer assembles a best-effort summary from the evidence gathered
// so far, used when the iteration budget runs out.
func (l *Loop) partialAnswer(sess *core.Session) string {
	var fragments []string

	if l.evidenceStore != nil {
		// Empty query returns the newest notes regardless of content.
		if notes, err := l.evidenceStore.Search(sess.ID, "", 3); err == nil {
			for _, note := range notes {
				fragments = append(fragments, note.Content)
			}
		}
	}

	if len(fragments) == 0 {
		for _, step := range sess.Steps() {
			if obs, ok := step.(core.ObservationStep); ok && !obs.Failed() {
				fragments = append(fragments, fmt.Sprintf("%s: %v", obs.Tool, obs.Result))
			}
		}
		if len(fragments) > 3 {
			fragments = fragments[len(fragments)-3:]
		}
	}

	if len(fragments) == 0 {
		return "Research did not complete within the iteration budget and no evidence was gathered."
	}

	return "Research did not complete within the iteration budget. Evidence gathered so far:\n- " +
		strings.Join(fragments, "\n- ")
}

// finish transitions the session, mirrors the terminal status through the
// store and snapshots the outcome.
func (l *Loop) finish(sess *core.Session, info core.RunInfo, status core.Status, answer, reason string) *Outcome {
	_ = sess.SetStatus(status)

	if l.sessionStore != nil {
		if err := l.sessionStore.SetStatus(sess.ID, status); err != nil {
			l.logger.Warn("failed to persist session status %s: %v", status, err)
		}
	}

	return &Outcome{
		SessionID:  info.SessionID,
		RunID:      info.RunID,
		Status:     status,
		Answer:     answer,
		Reason:     reason,
		Iterations: sess.IterationCount(),
		Steps:      sess.Steps(),
	}
}
