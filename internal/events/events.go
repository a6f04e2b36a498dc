package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	// Connectivity transitions published by the monitor.
	EventWentOnline  = "went_online"
	EventWentOffline = "went_offline"

	// EventSyncRequested is the manual "Sync Now" trigger.
	EventSyncRequested = "sync_requested"

	// Task lifecycle events published by the task service.
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
)

// TaskEventPayload is the minimal task snapshot for event consumers.
type TaskEventPayload struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	ChangedBy string `json:"changed_by,omitempty"`
}

// SyncRequestPayload carries who asked for a manual sync.
type SyncRequestPayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// Event represents a lightweight in-process event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. The host environment's connectivity
// flag and manual-sync broadcast flow through here so the reconciler never
// reads ambient global state.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously;
// the caller decides the concurrency model.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
