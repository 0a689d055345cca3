// Package events is the in-process bus the console uses to fan out toasts,
// editing-session transitions and store refreshes to whoever is listening.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventToast          EventType = "toast"
	EventSessionChanged EventType = "session_changed" // editing session opened or closed
	EventEntitySaved    EventType = "entity_saved"
	EventEntityDeleted  EventType = "entity_deleted"
	EventStoreRefreshed EventType = "store_refreshed"
)

// ToastLevel mirrors the notifier kinds so the bus does not depend on notify.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// ToastEvent carries a user-facing notification.
type ToastEvent struct {
	BaseEvent
	Level   ToastLevel
	Message string
}

// SessionChangedEvent is published when the editing controller opens or closes a modal.
type SessionChangedEvent struct {
	BaseEvent
	Kind   models.Kind
	Open   bool
	ItemID int64 // 0 when creating
}

// EntitySavedEvent is published after a successful create or update.
type EntitySavedEvent struct {
	BaseEvent
	Kind    models.Kind
	ID      int64 // 0 when the backend did not echo the record
	Created bool
}

// EntityDeletedEvent is published after a successful delete.
type EntityDeletedEvent struct {
	BaseEvent
	Kind models.Kind
	ID   int64
	Name string
}

// StoreRefreshedEvent is published after a store re-fetched its items.
type StoreRefreshedEvent struct {
	BaseEvent
	Kind  models.Kind
	Count int
	Error error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking. Events that do
// not fit a subscriber's buffer are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishToast is a convenience method for publishing toast events
func (eb *EventBus) PublishToast(level ToastLevel, message string) {
	eb.Publish(&ToastEvent{BaseEvent: newBase(EventToast), Level: level, Message: message})
}

// PublishSessionChanged is a convenience method for publishing editing-session transitions
func (eb *EventBus) PublishSessionChanged(kind models.Kind, open bool, itemID int64) {
	eb.Publish(&SessionChangedEvent{BaseEvent: newBase(EventSessionChanged), Kind: kind, Open: open, ItemID: itemID})
}

// PublishEntitySaved is a convenience method for publishing save events
func (eb *EventBus) PublishEntitySaved(kind models.Kind, id int64, created bool) {
	eb.Publish(&EntitySavedEvent{BaseEvent: newBase(EventEntitySaved), Kind: kind, ID: id, Created: created})
}

// PublishEntityDeleted is a convenience method for publishing delete events
func (eb *EventBus) PublishEntityDeleted(kind models.Kind, id int64, name string) {
	eb.Publish(&EntityDeletedEvent{BaseEvent: newBase(EventEntityDeleted), Kind: kind, ID: id, Name: name})
}

// PublishStoreRefreshed is a convenience method for publishing refresh results
func (eb *EventBus) PublishStoreRefreshed(kind models.Kind, count int, err error) {
	eb.Publish(&StoreRefreshedEvent{BaseEvent: newBase(EventStoreRefreshed), Kind: kind, Count: count, Error: err})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}

// ResetDroppedEventCount resets the dropped event counter to zero
func (eb *EventBus) ResetDroppedEventCount() int64 {
	return eb.droppedEvents.Swap(0)
}
