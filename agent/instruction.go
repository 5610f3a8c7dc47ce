package agent

import (
	"time"

	"github.com/hupe1980/archivist/artist"
	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from run identifiers, environment, etc.
type Provider interface {
	Instruction(info core.RunInfo) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(info core.RunInfo) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(info core.RunInfo) (string, error) { return f(info) }

// Instruction represents either a static instruction string or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(info core.RunInfo) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero returns true if neither text nor provider is set.
func (i Instruction) IsZero() bool { return i.text == "" && i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(info core.RunInfo) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(info)
	}
	return i.text, nil
}

const archivistPersona = `You are an Electronic Music Archivist, a meticulous researcher
specializing in the history of house, techno and the wider electronic music scene.
Today is {{.Today}}.

Research the user's question step by step. Use web_search to find sources,
fetch_page to read promising results, and save_note to record facts worth
keeping. Search your saved notes with search_notes before repeating research.
Cross-check dates, aliases and discography details across sources; prefer
primary sources such as label pages and artist interviews over aggregators.

When you have gathered enough information, stop calling tools and reply with
your final answer.`

// DefaultInstruction returns the archivist system prompt, dated at resolve
// time and carrying the artist profile output format.
func DefaultInstruction() Instruction {
	return NewInstructionFromFunc(func(core.RunInfo) (string, error) {
		persona, err := util.RenderTemplate(archivistPersona, map[string]any{
			"Today": time.Now().UTC().Format("January 2, 2006"),
		})
		if err != nil {
			return "", err
		}

		return persona + "\n\n" + artist.FormatInstructions(), nil
	})
}
