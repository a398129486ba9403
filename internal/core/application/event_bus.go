package application

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// OptimizationListener receives the events of optimization runs.
type OptimizationListener interface {
	OnOptimizationEvent(event OptimizationEvent)
}

const listenerBufferSize = 32

// OptimizationEventBus fans optimization events out to registered
// listeners. Every listener gets its own dispatch goroutine so a slow or
// panicking listener never stalls the optimizer nor the other listeners.
type OptimizationEventBus struct {
	mtx       sync.RWMutex
	listeners map[string]chan OptimizationEvent
}

func NewOptimizationEventBus() *OptimizationEventBus {
	return &OptimizationEventBus{
		listeners: make(map[string]chan OptimizationEvent),
	}
}

// AddListener registers the listener and returns its opaque id.
func (b *OptimizationEventBus) AddListener(
	listener OptimizationListener,
) string {
	id := uuid.New().String()
	ch := make(chan OptimizationEvent, listenerBufferSize)

	b.mtx.Lock()
	b.listeners[id] = ch
	b.mtx.Unlock()

	log.Debugf("added optimization listener %s", id)

	go func() {
		for event := range ch {
			notifyListener(id, listener, event)
		}
	}()

	return id
}

// RemoveListener unregisters the listener with the given id, returning
// whether it was actually registered.
func (b *OptimizationEventBus) RemoveListener(id string) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	ch, ok := b.listeners[id]
	if !ok {
		return false
	}
	delete(b.listeners, id)
	close(ch)

	log.Debugf("removed optimization listener %s", id)
	return true
}

// Publish delivers the event to every registered listener. The send never
// blocks the caller: if a listener's buffer is full the delivery falls
// back to a dedicated goroutine.
func (b *OptimizationEventBus) Publish(event OptimizationEvent) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	for id, ch := range b.listeners {
		select {
		case ch <- event:
		default:
			log.Debugf(
				"optimization listener %s is not keeping up, sending async", id,
			)
			go sendAsync(ch, event)
		}
	}
}

func notifyListener(
	id string, listener OptimizationListener, event OptimizationEvent,
) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("optimization listener %s panicked: %v", id, r)
		}
	}()
	listener.OnOptimizationEvent(event)
}

func sendAsync(ch chan OptimizationEvent, event OptimizationEvent) {
	// The channel may get closed by RemoveListener while this goroutine
	// is in flight.
	defer func() { recover() }()
	ch <- event
}
