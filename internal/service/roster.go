package service

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/playbud/booking/internal/domain"
)

const defaultRosterBuffer = 16

// Subscription receives roster events for one game until unsubscribed.
type Subscription struct {
	ID     uuid.UUID
	GameID uuid.UUID
	events chan domain.RosterEvent
}

// Events is closed when the subscription is removed from its hub.
func (s *Subscription) Events() <-chan domain.RosterEvent {
	return s.events
}

// RosterHub fans roster changes out to live watchers of a game.
type RosterHub struct {
	log    *slog.Logger
	buffer int

	mu   sync.RWMutex
	subs map[uuid.UUID]map[uuid.UUID]*Subscription
}

func NewRosterHub(buffer int, log *slog.Logger) *RosterHub {
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = defaultRosterBuffer
	}
	return &RosterHub{
		log:    log,
		buffer: buffer,
		subs:   make(map[uuid.UUID]map[uuid.UUID]*Subscription),
	}
}

func (h *RosterHub) Subscribe(gameID uuid.UUID) *Subscription {
	sub := &Subscription{
		ID:     uuid.New(),
		GameID: gameID,
		events: make(chan domain.RosterEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	watchers, ok := h.subs[gameID]
	if !ok {
		watchers = make(map[uuid.UUID]*Subscription)
		h.subs[gameID] = watchers
	}
	watchers[sub.ID] = sub
	return sub
}

func (h *RosterHub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	watchers, ok := h.subs[sub.GameID]
	if !ok {
		return
	}
	if _, ok := watchers[sub.ID]; !ok {
		return
	}
	delete(watchers, sub.ID)
	close(sub.events)
	if len(watchers) == 0 {
		delete(h.subs, sub.GameID)
	}
}

// Publish never blocks; a watcher whose buffer is full misses the event.
func (h *RosterHub) Publish(event domain.RosterEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[event.GameID] {
		select {
		case sub.events <- event:
		default:
			h.log.Debug("dropping roster event",
				slog.String("subscription", sub.ID.String()),
				slog.String("type", string(event.Type)),
			)
		}
	}
}

func (h *RosterHub) Subscribers(gameID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}
