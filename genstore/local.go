package genstore

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	gen    uint64
	bumped time.Time
}

// Local keeps generations in process memory. Entries that have not been
// bumped for longer than the retention are pruned by an optional background
// loop; a pruned key reads as generation 0 again, which only ever causes a
// cache miss.
type Local struct {
	mu   sync.RWMutex
	gens map[string]localEntry

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

var _ GenStore = (*Local)(nil)

// NewLocal returns an in-process store. The cleanup loop runs only when both
// cleanupInterval and retention are positive.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{gens: make(map[string]localEntry)}
	if cleanupInterval <= 0 || retention <= 0 {
		return s
	}
	s.stop = make(chan struct{})
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		t := time.NewTicker(cleanupInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Cleanup(retention)
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *Local) Snapshot(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[key]
	s.mu.RUnlock()
	return e.gen, nil
}

func (s *Local) Bump(_ context.Context, key string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[key]
	e.gen++
	e.bumped = now
	s.gens[key] = e
	s.mu.Unlock()
	return e.gen, nil
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if e.bumped.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *Local) Close(context.Context) error {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
			s.done.Wait()
		}
	})
	return nil
}
