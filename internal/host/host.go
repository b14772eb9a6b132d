// Package host defines the narrow capabilities nbm needs from the notebook
// IDE it runs inside: commands, launcher and menu entries, prompts,
// notifications, document access and a file picker.
package host

import (
	"context"
	"errors"
)

var (
	// ErrCommandExists is returned when a command id is registered twice.
	ErrCommandExists = errors.New("command already registered")
	// ErrUnknownCommand is returned when executing an unregistered command.
	ErrUnknownCommand = errors.New("unknown command")
)

// Handle is a lifetime-tied UI resource. Release must be called exactly once.
type Handle interface {
	Release()
}

// Args are the arguments a command is executed with.
type Args map[string]string

// Command is an executable entry in the host's command registry.
type Command struct {
	Label   string
	Caption string
	Icon    string
	Execute func(ctx context.Context, args Args) error
}

// Commands is the host command registry.
type Commands interface {
	AddCommand(id string, cmd Command) (Handle, error)
	HasCommand(id string) bool
	Execute(ctx context.Context, id string, args Args) error
}

// LauncherItem is a quick-launch entry pointing at a command.
type LauncherItem struct {
	Command  string
	Category string
	Args     Args
	Rank     int
}

// Launcher is the host quick-launch panel.
type Launcher interface {
	Add(item LauncherItem) (Handle, error)
}

// MenuItem is an entry in the bookmarks menu.
type MenuItem struct {
	Command string
	Args    Args
}

// Menu is the host bookmarks menu.
type Menu interface {
	AddItem(item MenuItem) (Handle, error)
}

// Prompter asks the user for decisions. ok is false when the user cancelled.
type Prompter interface {
	Choose(ctx context.Context, title string, choices []string) (choice string, ok bool, err error)
	Text(ctx context.Context, title string) (value string, ok bool, err error)
}

// Notifier reports messages to the user.
type Notifier interface {
	Error(title, msg string)
	Warn(msg string)
}

// Documents opens files in the host.
type Documents interface {
	Open(ctx context.Context, path string) error
}

// FilePicker lets the user select files under the content root.
type FilePicker interface {
	PickFiles(ctx context.Context) ([]string, error)
}

// Document is an open document that can announce saves.
type Document interface {
	Path() string
	OnSaved(fn func(path string)) Handle
}

// Host bundles every capability. Fields may be nil when a caller does not
// need them; the registry requires Commands, Launcher, Menu, Prompter and
// Notifier.
type Host struct {
	Commands  Commands
	Launcher  Launcher
	Menu      Menu
	Prompter  Prompter
	Notifier  Notifier
	Documents Documents
	Files     FilePicker
}

// HandleFunc adapts a function to a Handle.
type HandleFunc func()

// Release calls f.
func (f HandleFunc) Release() { f() }
