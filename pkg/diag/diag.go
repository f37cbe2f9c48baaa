// Package diag implements the error taxonomy of spec.md §7: user-visible
// compile errors carrying a source position and note chain, an out-of-time
// cancellation signal, fatal internal-error assertions, and linker errors
// that carry the symbolic locator and numeric distance that overflowed.
package diag

import "fmt"

// Pos is a source position, carried on CompileError when the caller has
// one; the zero value means "no position available".
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Note is one entry in a CompileError's context chain — e.g. "in function
// foo", "while evaluating constant bar" — added as the error unwinds
// through nested compile phases.
type Note struct {
	Pos     Pos
	Message string
}

// CompileError is a user-visible diagnostic: type mismatch, out-of-range
// literal, unresolved symbol, invalid cast, duplicate label, unsupported
// mirroring/ROM/RAM size, and similar — every case spec.md §7 calls a
// "compile error".
type CompileError struct {
	Pos     Pos
	Message string
	Notes   []Note
}

func (e *CompileError) Error() string {
	if e.Pos.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// WithNote appends a context note and returns e, for building up a chain as
// an error unwinds through nested phases.
func (e *CompileError) WithNote(pos Pos, message string) *CompileError {
	e.Notes = append(e.Notes, Note{Pos: pos, Message: message})
	return e
}

// ErrOutOfTime is returned by the expression evaluator when divergent
// compile-time constant evaluation exceeds its configured wall-clock
// budget. It is not a CompileError: time-outs don't carry a note chain, and
// callers distinguish the two with errors.Is.
var ErrOutOfTime = fmt.Errorf("diag: out of time")

// InternalError marks a bug, not a user-facing mistake: a missing label
// during link, a ⊤ constraint propagated where soundness forbids it, a
// scheduler that found no ready node, a peephole invariant broken. These
// are fatal — the idiomatic response is to panic with one, not to recover.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "internal error: " + e.Message }

// NewInternalError constructs an InternalError with a formatted message.
// It does not panic itself: the call sites spec.md §7 says must abort
// unconditionally panic with its result.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// RelocateError is raised when a branch's displacement after relocation
// overflows the signed-byte range a relative branch can encode. It carries
// both the symbolic operand and the numeric distance so a caller can format
// precise source context, per spec.md §7's "bubble up from link" policy.
type RelocateError struct {
	Locator  fmt.Stringer
	Distance int
}

func (e *RelocateError) Error() string {
	return fmt.Sprintf("diag: branch displacement %d out of range for %v", e.Distance, e.Locator)
}
