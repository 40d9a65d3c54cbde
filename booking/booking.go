package booking

import (
	"strconv"
	"time"

	"github.com/pawsuite/bookingrules/rules"
)

// Booking lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusInProgress = "inProgress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Booking is a service booking: the entity the rule engine evaluates.
// The engine reads it through the rules.Entity interface and never mutates
// it; status and sitter changes come back through the Store as directives.
type Booking struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"clientId"`
	ServiceType     string    `json:"serviceType"`
	Status          string    `json:"status"`
	Price           float64   `json:"price"`
	SitterID        string    `json:"sitterId,omitempty"`
	SitterName      string    `json:"sitterName,omitempty"`
	Address         string    `json:"address"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// EntityID implements rules.Entity.
func (b *Booking) EntityID() string {
	return b.ID
}

// FieldValue implements rules.Entity. Every defined field resolves to a
// string: prices render with two decimals, the scheduled date renders as
// RFC3339 UTC so comparisons are stable, and optional fields (an unassigned
// sitter, an unscheduled date) resolve to the empty string.
func (b *Booking) FieldValue(field rules.FieldRef) string {
	switch field {
	case rules.FieldStatus:
		return b.Status
	case rules.FieldPrice:
		return strconv.FormatFloat(b.Price, 'f', 2, 64)
	case rules.FieldServiceType:
		return b.ServiceType
	case rules.FieldSitterName:
		return b.SitterName
	case rules.FieldAddress:
		return b.Address
	case rules.FieldClientID:
		return b.ClientID
	case rules.FieldScheduledDate:
		if b.ScheduledAt.IsZero() {
			return ""
		}
		return b.ScheduledAt.UTC().Format(time.RFC3339)
	case rules.FieldDuration:
		return strconv.Itoa(b.DurationMinutes)
	default:
		return ""
	}
}
