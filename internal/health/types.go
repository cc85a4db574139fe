package health

import (
	"encoding/json"
	"time"
)

// Status represents the health state of an item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// MessageHealthUpdated is the WebSocket message type for status changes.
const MessageHealthUpdated = "health:updated"

// Item represents a single health-tracked dependency.
type Item struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MarshalJSON omits the message and timestamp for OK items.
func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	a := alias(i)

	if i.Status == StatusOK {
		a.Timestamp = nil
		a.Message = ""
	}

	return json.Marshal(a)
}

// Summary provides an overview of system health.
type Summary struct {
	Items     []Item `json:"items"`
	OK        int    `json:"ok"`
	Warning   int    `json:"warning"`
	Error     int    `json:"error"`
	HasIssues bool   `json:"hasIssues"`
}
