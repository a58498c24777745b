package codec

import (
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// entry pairs a staged value with its ownership mark. An owned entry
// holds a counted heap reference the stack must release unless it is
// folded into an aggregate or claimed as the final result.
type entry struct {
	v     value.Value
	owned bool
}

// stack is the staging area for partially built values. At any point
// the topmost entries are the elements collected so far for the
// aggregate under construction, left to right; a fold removes exactly
// those entries and pushes one owning entry in their place. release is
// deferred by every top-level operation so that owned entries left
// behind by an abort are reclaimed exactly once.
type stack struct {
	heap *value.Heap
	ents []entry
}

func (s *stack) len() int { return len(s.ents) }

func (s *stack) push(v value.Value) {
	s.ents = append(s.ents, entry{v: v})
}

func (s *stack) pushOwned(v value.Value) {
	s.ents = append(s.ents, entry{v: v, owned: true})
}

// top returns a pointer to the topmost staged value for in-place
// mutation (unary minus).
func (s *stack) top() *value.Value {
	return &s.ents[len(s.ents)-1].v
}

// discard removes the top n entries without releasing them. Valid only
// when their references were just transferred into a new aggregate.
func (s *stack) discard(n int) {
	s.ents = s.ents[:len(s.ents)-n]
}

// drop releases and removes the top n entries. Used for lexical
// elements beyond an aggregate's declared arity, which are decoded and
// then thrown away.
func (s *stack) drop(n int) {
	for i := 0; i < n; i++ {
		e := s.ents[len(s.ents)-1-i]
		if e.owned {
			s.heap.Release(e.v)
		}
	}
	s.discard(n)
}

// claim pops the final result, transferring ownership to the caller so
// the guard no longer sees it.
func (s *stack) claim() value.Value {
	e := s.ents[len(s.ents)-1]
	s.ents = s.ents[:len(s.ents)-1]
	return e.v
}

// release reclaims every entry still marked owning. Runs on each exit
// path; on success the result has been claimed and nothing remains.
func (s *stack) release() {
	for i := len(s.ents) - 1; i >= 0; i-- {
		if s.ents[i].owned {
			s.heap.Release(s.ents[i].v)
		}
	}
	s.ents = s.ents[:0]
}

// foldVector collapses the entries above start into one vector of
// logical length flat/width, transferring their references.
func (s *stack) foldVector(t registry.TypeID, width, start int) {
	flat := len(s.ents) - start
	elems := make([]value.Value, flat)
	for i := range elems {
		elems[i] = s.ents[start+i].v
	}
	v := s.heap.NewVector(t, width, flat/width, elems)
	s.discard(flat)
	s.pushOwned(v)
}

// foldObject collapses the entries above start into one class
// instance, transferring their references.
func (s *stack) foldObject(t registry.TypeID, start int) {
	flat := len(s.ents) - start
	fields := make([]value.Value, flat)
	for i := range fields {
		fields[i] = s.ents[start+i].v
	}
	v := s.heap.NewObject(t, fields)
	s.discard(flat)
	s.pushOwned(v)
}
