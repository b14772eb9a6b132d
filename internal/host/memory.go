package host

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies one of the three UI resource maps.
type Kind int

const (
	KindCommand Kind = iota
	KindLauncher
	KindMenu
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindLauncher:
		return "launcher"
	case KindMenu:
		return "menu"
	default:
		return "unknown"
	}
}

// Memory is an in-process command registry, launcher and menu.
// It counts releases per handle so callers can verify each resource is
// released exactly once.
type Memory struct {
	mu       sync.Mutex
	seq      int
	commands map[string]memoryCommand
	launcher map[string]memoryLauncher
	menu     map[string]memoryMenu
	released map[string]int
	failures map[Kind][]error
}

type memoryCommand struct {
	handle string
	cmd    Command
}

type memoryLauncher struct {
	seq  int
	item LauncherItem
}

type memoryMenu struct {
	seq  int
	item MenuItem
}

// NewMemory creates an empty in-memory host.
func NewMemory() *Memory {
	return &Memory{
		commands: make(map[string]memoryCommand),
		launcher: make(map[string]memoryLauncher),
		menu:     make(map[string]memoryMenu),
		released: make(map[string]int),
		failures: make(map[Kind][]error),
	}
}

// FailNext makes the next registration of kind return err.
func (m *Memory) FailNext(kind Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind] = append(m.failures[kind], err)
}

func (m *Memory) takeFailure(kind Kind) error {
	queue := m.failures[kind]
	if len(queue) == 0 {
		return nil
	}
	m.failures[kind] = queue[1:]
	return queue[0]
}

func (m *Memory) handle(remove func()) Handle {
	id := uuid.NewString()
	return HandleFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.released[id]++
		if m.released[id] == 1 {
			remove()
		}
	})
}

// AddCommand registers cmd under id.
func (m *Memory) AddCommand(id string, cmd Command) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(KindCommand); err != nil {
		return nil, err
	}
	if _, ok := m.commands[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandExists, id)
	}
	token := uuid.NewString()
	m.commands[id] = memoryCommand{handle: token, cmd: cmd}
	return m.handle(func() {
		if c, ok := m.commands[id]; ok && c.handle == token {
			delete(m.commands, id)
		}
	}), nil
}

// HasCommand reports whether id is registered.
func (m *Memory) HasCommand(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.commands[id]
	return ok
}

// Execute runs the command registered under id.
func (m *Memory) Execute(ctx context.Context, id string, args Args) error {
	m.mu.Lock()
	c, ok := m.commands[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if c.cmd.Execute == nil {
		return nil
	}
	return c.cmd.Execute(ctx, args)
}

// Label returns the label of the command registered under id.
func (m *Memory) Label(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands[id].cmd.Label
}

// Add registers a launcher entry.
func (m *Memory) Add(item LauncherItem) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(KindLauncher); err != nil {
		return nil, err
	}
	key := uuid.NewString()
	m.seq++
	m.launcher[key] = memoryLauncher{seq: m.seq, item: item}
	return m.handle(func() { delete(m.launcher, key) }), nil
}

// AddItem registers a menu entry.
func (m *Memory) AddItem(item MenuItem) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(KindMenu); err != nil {
		return nil, err
	}
	key := uuid.NewString()
	m.seq++
	m.menu[key] = memoryMenu{seq: m.seq, item: item}
	return m.handle(func() { delete(m.menu, key) }), nil
}

// CommandIDs returns registered command ids, sorted.
func (m *Memory) CommandIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.commands))
	for id := range m.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LauncherItems returns live launcher entries in registration order.
func (m *Memory) LauncherItems() []LauncherItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]memoryLauncher, 0, len(m.launcher))
	for _, e := range m.launcher {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	items := make([]LauncherItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items
}

// MenuItems returns live menu entries in registration order.
func (m *Memory) MenuItems() []MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]memoryMenu, 0, len(m.menu))
	for _, e := range m.menu {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	items := make([]MenuItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items
}

// Count returns how many live entries of kind reference command id.
func (m *Memory) Count(kind Kind, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	switch kind {
	case KindCommand:
		if _, ok := m.commands[id]; ok {
			n = 1
		}
	case KindLauncher:
		for _, e := range m.launcher {
			if e.item.Command == id {
				n++
			}
		}
	case KindMenu:
		for _, e := range m.menu {
			if e.item.Command == id {
				n++
			}
		}
	}
	return n
}

// OverReleased returns the number of handles released more than once.
func (m *Memory) OverReleased() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, count := range m.released {
		if count > 1 {
			n++
		}
	}
	return n
}

// Releases returns the total number of release calls observed.
func (m *Memory) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, count := range m.released {
		n += count
	}
	return n
}

// MemoryDocuments records opened paths.
type MemoryDocuments struct {
	mu     sync.Mutex
	opened []string
}

// Open records path.
func (d *MemoryDocuments) Open(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, path)
	return nil
}

// Opened returns every path opened so far.
func (d *MemoryDocuments) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}

// StaticFiles is a FilePicker that always returns the same selection.
type StaticFiles []string

// PickFiles returns the static selection.
func (f StaticFiles) PickFiles(context.Context) ([]string, error) {
	return append([]string(nil), f...), nil
}

// MemoryDocument is a Document whose saves are triggered by Save.
type MemoryDocument struct {
	mu    sync.Mutex
	path  string
	hooks map[string]func(string)
}

// NewMemoryDocument creates a document at path.
func NewMemoryDocument(path string) *MemoryDocument {
	return &MemoryDocument{path: path, hooks: make(map[string]func(string))}
}

// Path returns the document path.
func (d *MemoryDocument) Path() string { return d.path }

// OnSaved attaches fn until the returned handle is released.
func (d *MemoryDocument) OnSaved(fn func(path string)) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := uuid.NewString()
	d.hooks[id] = fn
	return HandleFunc(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.hooks, id)
	})
}

// Hooks returns the number of attached save hooks.
func (d *MemoryDocument) Hooks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hooks)
}

// Save invokes every attached hook.
func (d *MemoryDocument) Save() {
	d.mu.Lock()
	hooks := make([]func(string), 0, len(d.hooks))
	for _, fn := range d.hooks {
		hooks = append(hooks, fn)
	}
	d.mu.Unlock()
	for _, fn := range hooks {
		fn(d.path)
	}
}
