package gateway

import "sync/atomic"

// Store is the single shared handle to the current configuration
// snapshot. Reads are lock-free; a reload publishes a whole new snapshot
// with one pointer swap, so in-flight requests keep the snapshot they
// started with.
type Store struct {
	ptr atomic.Pointer[Snapshot]
}

func NewStore(s *Snapshot) *Store {
	st := &Store{}
	st.ptr.Store(s)
	return st
}

func (st *Store) Load() *Snapshot { return st.ptr.Load() }

func (st *Store) Swap(next *Snapshot) { st.ptr.Store(next) }
