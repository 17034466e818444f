// Package events carries status updates to subscribed clients.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type Kind string

const (
	KindMessage Kind = "message"
	KindRoadmap Kind = "roadmap"
	KindResume  Kind = "resume"
	KindChat    Kind = "chat"
)

type Update struct {
	Kind      Kind            `json:"kind"`
	UserID    string          `json:"user_id"`
	ChatID    string          `json:"chat_id,omitempty"`
	ResumeID  string          `json:"resume_id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, u Update) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, u Update) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hub delivers updates to in-process subscribers of a user. Slow subscribers
// lose updates rather than blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

type subscription struct {
	ch chan Update
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[string]map[*subscription]struct{}), buffer: buffer}
}

// Subscribe returns a channel of the user's updates and a cancel func that
// closes it.
func (h *Hub) Subscribe(userID string) (<-chan Update, func()) {
	sub := &subscription{ch: make(chan Update, h.buffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (h *Hub) Publish(_ context.Context, u Update) error {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[u.UserID] {
		select {
		case sub.ch <- u:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
