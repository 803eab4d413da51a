// Package memory is the in-process kvstore backend used for dev mode and
// tests. A Bus holds the data; each Open handle gets its own identity so the
// change feed can skip the writer's own events.
package memory

import (
	"context"
	"strings"
	"sync"

	"restodash/backend/internal/kvstore"
)

type Bus struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[int]*watcher
	nextID   int
	closed   bool
}

type watcher struct {
	handle int
	ch     chan kvstore.Event
}

func NewBus() *Bus {
	return &Bus{
		data:     make(map[string][]byte),
		watchers: make(map[int]*watcher),
	}
}

// Open creates a new handle on the bus. Writes through one handle are
// announced to watchers opened on every other handle.
func (b *Bus) Open() *Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return &Store{bus: b, handle: b.nextID}
}

// Seed loads initial documents without generating change events.
func (b *Bus) Seed(docs map[string][]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range docs {
		b.data[k] = append([]byte(nil), v...)
	}
}

func (b *Bus) notify(origin int, key string) {
	for _, w := range b.watchers {
		if w.handle == origin {
			continue
		}
		select {
		case w.ch <- kvstore.Event{Key: key}:
		default:
			// Watcher is behind; it refreshes on its next event anyway.
		}
	}
}

type Store struct {
	bus    *Bus
	handle int
}

var _ kvstore.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	v, ok := s.bus.data[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.bus.mu.Lock()
	s.bus.data[key] = append([]byte(nil), value...)
	s.bus.notify(s.handle, key)
	s.bus.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.bus.mu.Lock()
	if _, ok := s.bus.data[key]; ok {
		delete(s.bus.data, key)
		s.bus.notify(s.handle, key)
	}
	s.bus.mu.Unlock()
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	keys := make([]string, 0)
	for k := range s.bus.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) Watch(ctx context.Context) (<-chan kvstore.Event, error) {
	s.bus.mu.Lock()
	if s.bus.closed {
		s.bus.mu.Unlock()
		ch := make(chan kvstore.Event)
		close(ch)
		return ch, nil
	}
	s.bus.nextID++
	id := s.bus.nextID
	w := &watcher{handle: s.handle, ch: make(chan kvstore.Event, 16)}
	s.bus.watchers[id] = w
	s.bus.mu.Unlock()

	out := make(chan kvstore.Event)
	go func() {
		defer func() {
			s.bus.mu.Lock()
			delete(s.bus.watchers, id)
			s.bus.mu.Unlock()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.ch:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

// Close shuts the bus down and stops every watcher.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, w := range b.watchers {
		close(w.ch)
		delete(b.watchers, id)
	}
}
