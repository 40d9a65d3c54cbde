// Package dispatch carries notification and email directives from the rule
// engine to their delivery collaborators. The engine records only whether a
// directive was accepted; delivery itself happens downstream.
package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects the NATS dispatcher publishes directives on.
const (
	SubjectNotify = "bookings.rules.notify"
	SubjectEmail  = "bookings.rules.email"
)

// NotifyDirective is the payload published for a notify action.
type NotifyDirective struct {
	Message   string    `json:"message"`
	EmittedAt time.Time `json:"emittedAt"`
}

// EmailDirective is the payload published for a sendEmail action.
type EmailDirective struct {
	Template  string    `json:"template"`
	Recipient string    `json:"recipient"`
	EmittedAt time.Time `json:"emittedAt"`
}

// NATSDispatcher publishes directives to NATS subjects, where delivery
// workers pick them up. Implements rules.Notifier and rules.Mailer.
// nats.Conn is safe for concurrent use, so one dispatcher can serve many
// evaluations at once.
type NATSDispatcher struct {
	nc *nats.Conn
}

// Connect dials NATS and returns a dispatcher over the connection.
func Connect(url string) (*NATSDispatcher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSDispatcher{nc: nc}, nil
}

// NewNATSDispatcher wraps an existing connection.
func NewNATSDispatcher(nc *nats.Conn) *NATSDispatcher {
	return &NATSDispatcher{nc: nc}
}

// DispatchNotification publishes a notify directive.
func (d *NATSDispatcher) DispatchNotification(message string) error {
	return d.publish(SubjectNotify, NotifyDirective{
		Message:   message,
		EmittedAt: time.Now().UTC(),
	})
}

// DispatchEmail publishes an email directive.
func (d *NATSDispatcher) DispatchEmail(template, recipient string) error {
	return d.publish(SubjectEmail, EmailDirective{
		Template:  template,
		Recipient: recipient,
		EmittedAt: time.Now().UTC(),
	})
}

func (d *NATSDispatcher) publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal directive: %w", err)
	}
	if err := d.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the underlying connection.
func (d *NATSDispatcher) Close() error {
	return d.nc.Drain()
}
