// Package evidence provides storage for the evidence fragments a
// research session accumulates: facts the model saves through the
// save_note tool and recalls through search_notes. The in-memory
// implementation is suitable for tests and single-process runs.
package evidence
