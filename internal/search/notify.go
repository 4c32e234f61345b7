package search

import (
	"context"
	"log/slog"

	"github.com/tartampluch/go-idlookup/internal/config"
)

// Severity grades a user-visible notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a toast for the user.
type Notification struct {
	Title    string
	Message  string
	Severity Severity
}

// Notifier delivers notifications. Delivery is fire-and-forget: Notify must not block
// and its outcome is never awaited or retried.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to the structured log. It is the default sink.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	level := slog.LevelInfo
	if n.Severity == SeverityError {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, n.Title,
		config.LogKeyComponent, config.CompSearch,
		config.LogKeyValue, n.Message,
		config.LogKeyReason, n.Severity.String(),
	)
}
