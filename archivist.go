// Package archivist is a small framework for tool-using research agents
// focused on electronic music history. It wires a language model, a tool
// registry and a retry-hardened invoker into a bounded research loop, with
// session persistence, an evidence notebook and background run management.
//
// Minimal usage:
//
//	m := openai.NewModel()
//	search, _ := serper.New()
//
//	a, err := archivist.New(m, func(o *archivist.Options) {
//		o.Tools = []tool.Tool{search, webfetch.New()}
//	})
//	if err != nil { ... }
//
//	outcome, err := a.Research(ctx, "Who pioneered acid house?")
package archivist

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/archivist/agent"
	"github.com/hupe1980/archivist/artist"
	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/evidence"
	"github.com/hupe1980/archivist/logging"
	"github.com/hupe1980/archivist/model"
	"github.com/hupe1980/archivist/runner"
	"github.com/hupe1980/archivist/session"
	"github.com/hupe1980/archivist/tool"
)

// Options configures an Archivist.
type Options struct {
	// Tools the model may call, next to the built-in note tools.
	Tools []tool.Tool
	// DisableNoteTools drops the built-in save_note/search_notes tools.
	DisableNoteTools bool
	// MaxIterations bounds the action/observation pairs per run.
	// Defaults to agent.DefaultMaxIterations.
	MaxIterations int
	// ToolTimeout bounds each individual tool attempt.
	ToolTimeout time.Duration
	// RetryMaxAttempts is the total tries per tool invocation.
	RetryMaxAttempts int
	// RetryBaseDelay is the initial backoff delay between tool retries.
	RetryBaseDelay time.Duration
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration
	// Instruction overrides the archivist system prompt.
	Instruction agent.Instruction
	// SessionStore persists research sessions. Defaults to in-memory.
	SessionStore core.SessionStore
	// EvidenceStore backs the note tools. Defaults to in-memory.
	EvidenceStore core.EvidenceStore
	// Logger receives diagnostics from all components. Optional.
	Logger *logging.ArchivistLogger
}

// Archivist is the top-level entry point bundling the loop, the runner
// and the stores. Safe for concurrent use.
type Archivist struct {
	loop     *agent.Loop
	runner   *runner.Runner
	sessions core.SessionStore
	evidence core.EvidenceStore
}

// New wires an Archivist around the given model.
func New(m model.Model, optFns ...func(o *Options)) (*Archivist, error) {
	if m == nil {
		return nil, fmt.Errorf("model must not be nil")
	}

	opts := Options{
		MaxIterations:    agent.DefaultMaxIterations,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   500 * time.Millisecond,
		RetryMaxDelay:    5 * time.Second,
		ToolTimeout:      30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.EvidenceStore == nil {
		opts.EvidenceStore = evidence.NewInMemoryStore()
	}

	tools := make([]tool.Tool, 0, len(opts.Tools)+2)
	tools = append(tools, opts.Tools...)
	if !opts.DisableNoteTools {
		tools = append(tools,
			tool.NewSaveNoteTool(opts.EvidenceStore),
			tool.NewSearchNotesTool(opts.EvidenceStore),
		)
	}

	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	invoker := tool.NewInvoker(func(o *tool.InvokerOptions) {
		o.MaxAttempts = opts.RetryMaxAttempts
		o.BaseDelay = opts.RetryBaseDelay
		o.MaxDelay = opts.RetryMaxDelay
		o.Timeout = opts.ToolTimeout
		if opts.Logger != nil {
			o.Logger = opts.Logger.WithComponent("invoker")
		}
	})

	loop := agent.NewLoop(m, registry, invoker, func(o *agent.Options) {
		o.MaxIterations = opts.MaxIterations
		o.Instruction = opts.Instruction
		o.SessionStore = opts.SessionStore
		o.EvidenceStore = opts.EvidenceStore
		o.Logger = opts.Logger
	})

	return &Archivist{
		loop: loop,
		runner: runner.New(loop, func(o *runner.Options) {
			if opts.Logger != nil {
				o.Logger = opts.Logger.WithComponent("runner")
			}
		}),
		sessions: opts.SessionStore,
		evidence: opts.EvidenceStore,
	}, nil
}

// Research runs one research question to completion and returns its
// outcome.
func (a *Archivist) Research(ctx context.Context, question string) (*agent.Outcome, error) {
	return a.loop.Run(ctx, question)
}

// ResearchProfile researches an artist and parses the final answer into a
// validated artist profile. The raw outcome is returned alongside so
// callers can inspect the trace even when parsing fails.
func (a *Archivist) ResearchProfile(ctx context.Context, artistName string) (*artist.Profile, *agent.Outcome, error) {
	question := fmt.Sprintf("Research the electronic music artist %q and compile their profile.", artistName)

	outcome, err := a.loop.Run(ctx, question)
	if err != nil {
		return nil, outcome, err
	}
	if outcome.Status != core.StatusCompleted {
		return nil, outcome, fmt.Errorf("research ended %s: %s", outcome.Status, outcome.Reason)
	}

	profile, err := artist.Parse(outcome.Answer)
	if err != nil {
		return nil, outcome, fmt.Errorf("final answer is not a valid profile: %w", err)
	}

	return profile, outcome, nil
}

// StartResearch launches a background run. See runner.Runner.Start.
func (a *Archivist) StartResearch(ctx context.Context, question string) (string, <-chan runner.Result, error) {
	return a.runner.Start(ctx, question)
}

// Cancel aborts a background run by its handle id.
func (a *Archivist) Cancel(id string) bool { return a.runner.Cancel(id) }

// CancelAll aborts every background run.
func (a *Archivist) CancelAll() { a.runner.CancelAll() }

// ActiveRuns returns the number of background runs in flight.
func (a *Archivist) ActiveRuns() int { return a.runner.Active() }

// Session returns a snapshot of a persisted session by id.
func (a *Archivist) Session(id string) (*core.Session, error) {
	return a.sessions.Get(id)
}

// Evidence exposes the evidence store for inspection.
func (a *Archivist) Evidence() core.EvidenceStore { return a.evidence }
