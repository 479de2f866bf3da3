// Package stack implements the assignment history the first-pass
// parser builds while walking a document: an ordered log of
// (absolute path, value snapshot) entries used to resolve self-
// references, "+=" accumulation and duplicate-key history during the
// resolver's second pass.
package stack

import "github.com/strataconf/confcore/tree"

// Entry is a single push onto the history stack: the absolute path
// assigned at this point in the document, and a deep snapshot of the
// value assigned there at that moment.
type Entry struct {
	Path  []string
	Value *tree.Node
}

// Stack is the ordered assignment history for one parse. It is never
// mutated in place except by Push: earlier entries are never edited,
// so any previously captured index into the stack remains meaningful
// for the lifetime of the parse.
type Stack struct {
	entries []Entry
}

// New returns an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push appends a snapshot of value at path. Before snapshotting, any
// reachable reference piece or "+=" op still carrying
// tree.PendingStackCounter has its StackCounter fixed to the stack's
// current length — the length as it stands the instant this exact
// value is pushed, not whenever the piece was first parsed. value is
// then deep-copied so later mutation of the live tree cannot
// retroactively alter this entry.
func (s *Stack) Push(path []string, value *tree.Node) {
	tree.AssignPendingStackCounters(value, len(s.entries))
	s.entries = append(s.entries, Entry{Path: path, Value: tree.DeepCopy(value)})
}

// Len returns the number of entries currently on the stack.
func (s *Stack) Len() int {
	return len(s.entries)
}

// At returns the entry at index i.
func (s *Stack) At(i int) Entry {
	return s.entries[i]
}

// Entries returns the full history in push order. Callers must treat
// the result as read-only.
func (s *Stack) Entries() []Entry {
	return s.entries
}

// LastValueForPath scans entries [0, upTo) from the end backwards and
// returns the most recent snapshot recorded for path, if any. upTo lets
// a self-reference search only the history that existed at the moment
// it was first encountered, rather than the full stack as it stands by
// the time resolution actually runs.
func (s *Stack) LastValueForPath(path []string, upTo int) (*tree.Node, bool) {
	if upTo > len(s.entries) {
		upTo = len(s.entries)
	}
	for i := upTo - 1; i >= 0; i-- {
		if tree.EqualPath(s.entries[i].Path, path) {
			return s.entries[i].Value, true
		}
	}
	return nil, false
}
