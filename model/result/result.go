// Package result holds the per-pair records an entanglement session writes
// for its process, and the fixed-size buffer a waiting instruction polls.
package result

import (
	"errors"
	"fmt"
)

// Unset fills every optional cell of a record that the delivered kind does
// not populate.
const Unset = -1

var (
	// ErrOutOfRange signals a write outside the buffer reserved for the
	// request.
	ErrOutOfRange = errors.New("result: pair index out of range")
	// ErrRewrite signals a second write to an already populated cell;
	// records are write-once.
	ErrRewrite = errors.New("result: record already written")
)

// PairResult is the fixed-width record for one delivered pair.
type PairResult struct {
	Pair       int   `json:"pair" yaml:"pair"`
	Success    bool  `json:"success" yaml:"success"`
	BellLabel  int   `json:"bellLabel" yaml:"bellLabel"`
	GoodnessUS int64 `json:"goodnessUS" yaml:"goodnessUS"`
	Outcome    int   `json:"outcome" yaml:"outcome"`
	Basis      int   `json:"basis" yaml:"basis"`
}

// New returns a record for pair i with every optional cell Unset.
func New(i int) PairResult {
	return PairResult{Pair: i, BellLabel: Unset, GoodnessUS: Unset, Outcome: Unset, Basis: Unset}
}

// Buffer collects the records of one request, one cell per pair. Cells are
// write-once and the buffer remembers which have been populated, so a
// waiting process instruction can ask whether a contiguous range is ready.
type Buffer struct {
	cells   []PairResult
	written []bool
}

// NewBuffer sizes a buffer for n pairs, each cell pre-filled with Unset
// values.
func NewBuffer(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	b := &Buffer{cells: make([]PairResult, n), written: make([]bool, n)}
	for i := range b.cells {
		b.cells[i] = New(i)
	}
	return b
}

// Size returns the number of cells.
func (b *Buffer) Size() int { return len(b.cells) }

// Write stores the record for pair r.Pair.
func (b *Buffer) Write(r PairResult) error {
	if r.Pair < 0 || r.Pair >= len(b.cells) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, r.Pair, len(b.cells))
	}
	if b.written[r.Pair] {
		return fmt.Errorf("%w: pair %d", ErrRewrite, r.Pair)
	}
	b.cells[r.Pair] = r
	b.written[r.Pair] = true
	return nil
}

// At returns the record for pair i and whether it has been written.
func (b *Buffer) At(i int) (PairResult, bool) {
	if i < 0 || i >= len(b.cells) {
		return PairResult{}, false
	}
	return b.cells[i], b.written[i]
}

// WrittenCount returns how many cells have been populated.
func (b *Buffer) WrittenCount() int {
	n := 0
	for _, w := range b.written {
		if w {
			n++
		}
	}
	return n
}

// Complete reports whether every cell in [from, to) has been written.
func (b *Buffer) Complete(from, to int) bool {
	if from < 0 || to > len(b.cells) || from > to {
		return false
	}
	for i := from; i < to; i++ {
		if !b.written[i] {
			return false
		}
	}
	return true
}

// CompleteAll reports whether every cell has been written.
func (b *Buffer) CompleteAll() bool { return b.Complete(0, len(b.cells)) }

// Records returns a copy of all cells, written or not.
func (b *Buffer) Records() []PairResult {
	out := make([]PairResult, len(b.cells))
	copy(out, b.cells)
	return out
}
