package core

import "time"

// ToolResult is the normalized outcome of a retry-hardened tool
// invocation. Success=false carries a descriptive Error instead of
// raising; the loop folds either shape into an observation step.
type ToolResult struct {
	Success  bool          `json:"success"`
	Payload  any           `json:"payload,omitempty"`
	Error    string        `json:"error,omitempty"`
	Latency  time.Duration `json:"latency"`
	Attempts int           `json:"attempts"`
}
