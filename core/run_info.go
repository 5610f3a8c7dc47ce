package core

import "context"

// RunInfo identifies the research run a tool invocation belongs to.
// The loop attaches it to the context before dispatching so session-scoped
// tools (e.g. evidence notes) can address the right partition without the
// registry becoming per-session.
type RunInfo struct {
	SessionID string
	RunID     string
}

type runInfoKey struct{}

// WithRunInfo returns a context carrying the given run info.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFromContext extracts run info attached by the loop. The second
// return value is false for contexts outside a run.
func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}
