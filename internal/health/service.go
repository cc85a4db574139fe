// Package health tracks the state of cinescope's upstream dependencies.
// All state is in-memory and resets on restart.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Service manages the health state of all tracked items.
type Service struct {
	items       map[string]*Item
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		items:  make(map[string]*Item),
		logger: logger.With().Str("component", "health").Logger(),
		now:    time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// RegisterItem adds an item with OK status. Registering an existing id
// keeps its state.
func (s *Service) RegisterItem(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return
	}
	s.items[id] = &Item{ID: id, Name: name, Status: StatusOK}

	s.logger.Debug().Str("id", id).Str("name", name).Msg("Registered health item")
}

// SetError sets an item to Error status with a message.
func (s *Service) SetError(id, message string) {
	s.setStatus(id, StatusError, message, false)
}

// SetWarning sets an item to Warning status. An item already in Error
// stays there until cleared.
func (s *Service) SetWarning(id, message string) {
	s.setStatus(id, StatusWarning, message, true)
}

// ClearStatus resets an item to OK status.
func (s *Service) ClearStatus(id string) {
	s.setStatus(id, StatusOK, "", false)
}

func (s *Service) setStatus(id string, status Status, message string, keepWorse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		s.logger.Warn().Str("id", id).Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		return
	}
	if keepWorse && item.Status == StatusError {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := s.now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	event := s.logger.Info()
	if status == StatusError {
		event = s.logger.Warn()
	}
	event.
		Str("id", id).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(MessageHealthUpdated, *item)
	}
}

// GetItem returns a copy of one item, or nil.
func (s *Service) GetItem(id string) *Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		c := *item
		return &c
	}
	return nil
}

// IsHealthy returns true if the item exists and is OK.
func (s *Service) IsHealthy(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	return exists && item.Status == StatusOK
}

// GetSummary returns every item, ordered by id, with status counts.
func (s *Service) GetSummary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{Items: make([]Item, 0, len(s.items))}
	for _, item := range s.items {
		summary.Items = append(summary.Items, *item)
		switch item.Status {
		case StatusOK:
			summary.OK++
		case StatusWarning:
			summary.Warning++
		case StatusError:
			summary.Error++
		}
	}
	sort.Slice(summary.Items, func(i, j int) bool { return summary.Items[i].ID < summary.Items[j].ID })
	summary.HasIssues = summary.Warning > 0 || summary.Error > 0

	return summary
}
