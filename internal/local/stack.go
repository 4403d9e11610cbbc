// internal/local/stack.go
//
// Goroutine-local LIFO stack, layered on a Store.
//
// Context
// -------
// The request machinery keeps the active RequestContext(s) for each
// goroutine on a Stack.  The sequence lives inside a Store under the
// single reserved name "stack", so releasing the store entry and
// emptying the stack are the same event: once the last element is
// popped, a later lookup reports "unbound", not "empty sequence".  The
// two states are deliberately indistinguishable to callers.
//
// Notes
// -----
// • Pop on an empty stack returns nil rather than failing, so teardown
//   paths can call Pop unconditionally.
// • Oxford commas, two spaces after periods.

package local

import "errors"

// stackName is the one reserved binding a Stack uses in its Store.
const stackName = "stack"

// Stack is a per-goroutine LIFO.  Create with NewStack.
type Stack struct {
	local *Store
}

// NewStack returns a Stack backed by a fresh Store.
func NewStack() *Stack {
	return &Stack{local: NewStore()}
}

// Push appends v to the calling goroutine's sequence, creating it when
// absent, and returns the resulting depth.
func (s *Stack) Push(v any) int {
	seq, _ := s.current()
	seq = append(seq, v)
	s.local.Set(stackName, seq)
	return len(seq)
}

// Pop removes and returns the most recently pushed element, or nil when
// the calling goroutine has no stack.  Removing the sole element
// releases the underlying store entry entirely.
func (s *Stack) Pop() any {
	seq, ok := s.current()
	switch {
	case !ok || len(seq) == 0:
		return nil
	case len(seq) == 1:
		s.local.Release()
		return seq[0]
	default:
		v := seq[len(seq)-1]
		s.local.Set(stackName, seq[:len(seq)-1])
		return v
	}
}

// Top returns the most recently pushed element not yet popped, or nil.
// It never fails.
func (s *Stack) Top() any {
	seq, ok := s.current()
	if !ok || len(seq) == 0 {
		return nil
	}
	return seq[len(seq)-1]
}

// Depth reports the calling goroutine's stack depth.
func (s *Stack) Depth() int {
	seq, _ := s.current()
	return len(seq)
}

// Release drops the calling goroutine's sequence outright.  Used by
// test helpers that need to unwind regardless of depth.
func (s *Stack) Release() { s.local.Release() }

// Size reports how many goroutines currently hold a stack.
func (s *Stack) Size() int { return s.local.Len() }

// current fetches the calling goroutine's sequence.  A Get miss means
// the goroutine has no stack yet; that is the only way Get can fail.
func (s *Stack) current() ([]any, bool) {
	v, err := s.local.Get(stackName)
	if errors.Is(err, ErrNotBound) {
		return nil, false
	}
	return v.([]any), true
}
