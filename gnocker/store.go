package gnocker

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zerbitx/gnockdir/spec"
)

type (
	// ResolveFunc produces a fresh resolution of the fixture root.
	ResolveFunc func() spec.ResolvedMocks

	// Snapshot is one published resolution.
	Snapshot struct {
		Version uuid.UUID
		Mocks   spec.ResolvedMocks
	}

	// Store publishes snapshots. Reloads build a new resolution and swap it in whole,
	// readers never see a table being filled.
	Store struct {
		resolve ResolveFunc
		current atomic.Value
	}
)

// NewStore resolves once and publishes the result.
func NewStore(resolve ResolveFunc) *Store {
	s := &Store{resolve: resolve}
	s.Reload()
	return s
}

// Reload resolves again and publishes the new snapshot.
func (s *Store) Reload() Snapshot {
	snap := Snapshot{
		Version: uuid.New(),
		Mocks:   s.resolve(),
	}
	s.current.Store(snap)
	return snap
}

// Current returns the latest published snapshot.
func (s *Store) Current() Snapshot {
	return s.current.Load().(Snapshot)
}
