package ws

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/reminder"
)

// ReminderData is the payload of a reminder frame
type ReminderData struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Time  string `json:"time"`
	Sound string `json:"sound,omitempty"`
}

// Hub tracks open connections by session so reminders reach the browser
// that set them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	logger  *zap.Logger
}

var _ reminder.Notifier = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]map[*client]struct{}), logger: logger}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.sessionID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.sessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.sessionID)
		}
	}
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// targets returns the clients for sessionID, or every client when it is empty
func (h *Hub) targets(sessionID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*client
	for id, set := range h.clients {
		if sessionID != "" && id != sessionID {
			continue
		}
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}

// Notify pushes a fired reminder to its session's connections. Reminders
// without a session go to everyone.
func (h *Hub) Notify(_ context.Context, r reminder.Reminder) error {
	msg := OutgoingMessage{
		Type:    TypeReminder,
		Content: r.Message,
		Data: ReminderData{
			ID:    r.ID,
			Title: reminder.Title,
			Time:  r.TimeOfDay,
			Sound: r.SoundRef,
		},
	}

	targets := h.targets(r.SessionID)
	if len(targets) == 0 {
		h.logger.Debug("no open connection for reminder",
			zap.String("id", r.ID),
			zap.String("session_id", r.SessionID))
		return nil
	}

	var errs []error
	for _, c := range targets {
		if err := c.write(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
