package gotrue

import (
	"sync"

	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"
)

// eventBus fans auth-state changes out to subscribers.
// Callbacks run outside the bus lock so they may unsubscribe.
type eventBus struct {
	mu     sync.Mutex
	subs   map[uint64]service.AuthStateChangeFunc
	nextID uint64
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[uint64]service.AuthStateChangeFunc)}
}

func (b *eventBus) subscribe(fn service.AuthStateChangeFunc) service.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return &subscription{bus: b, id: id}
}

func (b *eventBus) publish(event entity.AuthEvent, session *entity.Session) {
	b.mu.Lock()
	fns := make([]service.AuthStateChangeFunc, 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

func (b *eventBus) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

type subscription struct {
	bus  *eventBus
	id   uint64
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}
