package blocks

import (
	"fmt"
	"sync"
)

// Editor is the mutable arrangement an editing front end works on. Runs
// never read it directly; they take a Snapshot.
type Editor struct {
	mu  sync.Mutex
	seq Sequence
}

// NewEditor starts from a copy of seq.
func NewEditor(seq Sequence) *Editor {
	return &Editor{seq: seq.Clone()}
}

// Snapshot returns the current arrangement as an independent copy.
func (e *Editor) Snapshot() Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.Clone()
}

// CurrentBlocks makes Editor usable as a session source.
func (e *Editor) CurrentBlocks() Sequence { return e.Snapshot() }

func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seq)
}

// Append validates and adds blocks at the end.
func (e *Editor) Append(ins ...Instruction) error {
	for _, in := range ins {
		if err := Validate(in); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq = append(e.seq, ins...)
	return nil
}

// Insert places in before position i (0 <= i <= Len).
func (e *Editor) Insert(i int, in Instruction) error {
	if err := Validate(in); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i > len(e.seq) {
		return fmt.Errorf("insert position %d out of range", i)
	}
	e.seq = append(e.seq, nil)
	copy(e.seq[i+1:], e.seq[i:])
	e.seq[i] = in
	return nil
}

// Remove deletes the block at i and returns it.
func (e *Editor) Remove(i int) (Instruction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.seq) {
		return nil, fmt.Errorf("block %d out of range", i)
	}
	in := e.seq[i]
	e.seq = append(e.seq[:i], e.seq[i+1:]...)
	return in, nil
}

// Move reorders: the block at from ends up at index to.
func (e *Editor) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if from < 0 || from >= len(e.seq) || to < 0 || to >= len(e.seq) {
		return fmt.Errorf("move %d -> %d out of range", from, to)
	}
	in := e.seq[from]
	e.seq = append(e.seq[:from], e.seq[from+1:]...)
	e.seq = append(e.seq, nil)
	copy(e.seq[to+1:], e.seq[to:])
	e.seq[to] = in
	return nil
}

// Set replaces the block at i, e.g. after a parameter edit.
func (e *Editor) Set(i int, in Instruction) error {
	if err := Validate(in); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.seq) {
		return fmt.Errorf("block %d out of range", i)
	}
	e.seq[i] = in
	return nil
}

// Replace swaps in a whole new arrangement.
func (e *Editor) Replace(seq Sequence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq = seq.Clone()
}

func (e *Editor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq = nil
}
