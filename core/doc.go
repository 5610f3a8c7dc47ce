// Package core contains the shared primitives of the archivist research
// loop: the session and its append-only step trace, the capability and
// tool-result shapes exchanged between loop, registry and invoker, the
// iteration limiter, the error taxonomy and the store interfaces.
//
// Nothing in core performs I/O; the package exists so that model, tool
// and agent can depend on one stable vocabulary without import cycles.
package core
