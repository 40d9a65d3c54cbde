package dispatch

import "github.com/pawsuite/bookingrules/internal/logger"

// LogDispatcher writes directives to the structured log instead of a queue.
// Used for local runs and as the fallback when no NATS URL is configured.
// Implements rules.Notifier and rules.Mailer.
type LogDispatcher struct{}

// NewLogDispatcher creates a log-backed dispatcher.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// DispatchNotification logs a notify directive.
func (d *LogDispatcher) DispatchNotification(message string) error {
	logger.Info("notification directive", "message", message)
	return nil
}

// DispatchEmail logs an email directive.
func (d *LogDispatcher) DispatchEmail(template, recipient string) error {
	logger.Info("email directive", "template", template, "recipient", recipient)
	return nil
}
