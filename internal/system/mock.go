package system

import (
	"context"
	"sync"
)

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []Command

	// Responses maps a command name to the error Run returns for it.
	Responses map[string]error

	// OnRun, if set, is called with each command before it is recorded.
	// Tests use it to inspect state while the "child" is running.
	OnRun func(cmd Command)

	// DefaultErr is returned when no response matches.
	DefaultErr error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]Command, 0),
		Responses: make(map[string]error),
	}
}

// AddResponse sets the error returned for commands named name.
func (m *MockExecutor) AddResponse(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[name] = err
}

func (m *MockExecutor) Run(ctx context.Context, cmd Command) error {
	if m.OnRun != nil {
		m.OnRun(cmd)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, cmd)

	if err, ok := m.Responses[cmd.Name]; ok {
		return err
	}
	return m.DefaultErr
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (Command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return Command{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]Command, 0)
}
