package host

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// LogNotifier reports notifications through a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Error logs an error notification.
func (n LogNotifier) Error(title, msg string) {
	n.Logger.Error().Str("title", title).Msg(msg)
}

// Warn logs a warning notification.
func (n LogNotifier) Warn(msg string) {
	n.Logger.Warn().Msg(msg)
}

// ConsoleNotifier prints colored notifications to a terminal.
type ConsoleNotifier struct {
	Out io.Writer
}

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel  = color.New(color.FgYellow).SprintFunc()
)

// Error prints "title: msg" in red.
func (n ConsoleNotifier) Error(title, msg string) {
	fmt.Fprintf(n.Out, "%s %s\n", errorLabel(title+":"), msg)
}

// Warn prints msg in yellow.
func (n ConsoleNotifier) Warn(msg string) {
	fmt.Fprintf(n.Out, "%s %s\n", warnLabel("warning:"), msg)
}

// Notification is a message captured by RecordingNotifier.
type Notification struct {
	Level string
	Title string
	Msg   string
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu   sync.Mutex
	list []Notification
}

// Error records an error.
func (n *RecordingNotifier) Error(title, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, Notification{Level: "error", Title: title, Msg: msg})
}

// Warn records a warning.
func (n *RecordingNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, Notification{Level: "warn", Msg: msg})
}

// All returns the recorded notifications.
func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.list...)
}

// Count returns the number of notifications at level.
func (n *RecordingNotifier) Count(level string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, item := range n.list {
		if item.Level == level {
			c++
		}
	}
	return c
}

// Multi fans notifications out to several notifiers.
type Multi []Notifier

// Error forwards to every notifier.
func (m Multi) Error(title, msg string) {
	for _, n := range m {
		n.Error(title, msg)
	}
}

// Warn forwards to every notifier.
func (m Multi) Warn(msg string) {
	for _, n := range m {
		n.Warn(msg)
	}
}
