// Package audit records what was done in the admin panel.
package audit

import (
	"errors"
	"time"
)

// Category groups audit events by the part of the panel they touch.
type Category string

const (
	CategorySecurity  Category = "security"
	CategoryActividad Category = "actividad"
	CategoryOutbox    Category = "outbox"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySecurity, CategoryActividad, CategoryOutbox}

// Action is what happened.
type Action string

const (
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
	ActionLogout      Action = "logout"
	ActionCreate      Action = "create"
	ActionRetry       Action = "retry"
	ActionAbandon     Action = "abandon"
)

// Severity ranks events for review.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

var (
	ErrEmptyID       = errors.New("audit event id is required")
	ErrEmptyCategory = errors.New("audit category is required")
	ErrEmptyAction   = errors.New("audit action is required")
)

// Event is one audit trail entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
}

// NewEvent creates an info-level event.
// PRE: id, category and action are non-empty
// POST: Timestamp is now in UTC
func NewEvent(id string, now time.Time, category Category, action Action) Event {
	return Event{
		ID:        id,
		Timestamp: now.UTC(),
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource names the record the event acted on.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets a short human-readable note.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest records where the request came from.
// POST: userAgent is capped at MaxUserAgentLength bytes
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	if len(userAgent) > MaxUserAgentLength {
		userAgent = userAgent[:MaxUserAgentLength]
	}
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// MaxUserAgentLength bounds the stored user agent.
const MaxUserAgentLength = 256

// Validate checks the required fields.
// POST: An empty severity is defaulted to info
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.Category == "" {
		return ErrEmptyCategory
	}
	if e.Action == "" {
		return ErrEmptyAction
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	return nil
}
