package notifications

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultListenerCapacity is the number of undelivered events a listener buffers
// before further events to it are dropped
const DefaultListenerCapacity = 100

// ErrListenerNotFound is returned when unsubscribing an unknown listener
var ErrListenerNotFound = errors.New("listener not found")

// Manager fans out events to the listeners subscribed to their types
type Manager struct {
	sync.RWMutex
	listeners map[uuid.UUID]*Listener
}

// Listener receives the events of the types it subscribed to
type Listener struct {
	id         uuid.UUID
	eventTypes map[EventType]struct{}
	channel    chan Event
}

// ID returns the listener's ID
func (l *Listener) ID() uuid.UUID {
	return l.id
}

// Channel returns the channel events are delivered on. It is closed
// once the listener unsubscribes.
func (l *Listener) Channel() <-chan Event {
	return l.channel
}

// IsSubscribedTo returns whether the listener receives events of eventType
func (l *Listener) IsSubscribedTo(eventType EventType) bool {
	_, ok := l.eventTypes[eventType]
	return ok
}

// NewManager creates a new Manager
func NewManager() *Manager {
	return &Manager{
		listeners: make(map[uuid.UUID]*Listener),
	}
}

// Subscribe registers a listener for the given event types
func (m *Manager) Subscribe(eventTypes ...EventType) *Listener {
	return m.SubscribeWithCapacity(DefaultListenerCapacity, eventTypes...)
}

// SubscribeWithCapacity registers a listener for the given event types
// whose channel buffers up to capacity events
func (m *Manager) SubscribeWithCapacity(capacity int, eventTypes ...EventType) *Listener {
	m.Lock()
	defer m.Unlock()

	listener := &Listener{
		id:         uuid.New(),
		eventTypes: make(map[EventType]struct{}, len(eventTypes)),
		channel:    make(chan Event, capacity),
	}
	for _, eventType := range eventTypes {
		listener.eventTypes[eventType] = struct{}{}
	}
	m.listeners[listener.id] = listener

	log.Debugf("Listener %s subscribed to %v (%d listeners)", listener.id, eventTypes, len(m.listeners))
	return listener
}

// Unsubscribe removes the listener with the given ID and closes its channel
func (m *Manager) Unsubscribe(id uuid.UUID) error {
	m.Lock()
	defer m.Unlock()

	listener, ok := m.listeners[id]
	if !ok {
		return errors.Wrapf(ErrListenerNotFound, "cannot unsubscribe %s", id)
	}
	delete(m.listeners, id)
	close(listener.channel)

	log.Debugf("Listener %s unsubscribed (%d listeners)", id, len(m.listeners))
	return nil
}

// ListenerCount returns the number of subscribed listeners
func (m *Manager) ListenerCount() int {
	m.RLock()
	defer m.RUnlock()

	return len(m.listeners)
}

// Notify delivers event to every listener subscribed to its type.
// Listeners whose channel is full miss the event.
func (m *Manager) Notify(event Event) error {
	eventType, err := TypeOf(event)
	if err != nil {
		return err
	}

	m.RLock()
	defer m.RUnlock()

	for id, listener := range m.listeners {
		if !listener.IsSubscribedTo(eventType) {
			continue
		}
		select {
		case listener.channel <- event:
		default:
			log.Warnf("Listener %s is full, dropping a %s event", id, eventType)
		}
	}
	return nil
}
