package undogo

import "fmt"

// Command is the contract every undoable operation must implement to
// plug into UndoSystem. A Command holds (outside this interface, in
// the concrete type) a non-owning reference to the caller's data and
// its own argument parser/schema; the engine never reaches into either.
type Command interface {
	// Name returns the command's stable, space-free identifier, e.g. "Move".
	Name() string

	// Help returns a human-readable description of the command.
	Help() string

	// Parse parses the full command string, including the leading
	// command name (e.g. "Move -T 10 20"), against the command's own
	// schema. A non-nil error is surfaced to the caller of Execute
	// verbatim.
	Parse(cmdStr string) error

	// HelpRequested reports whether the most recent Parse saw a
	// help flag. When true, Execute prints help and records nothing.
	HelpRequested() bool

	// Redo applies the effect described by the most recently parsed
	// arguments to the caller-owned data. Called once per Execute and
	// once per Redo.
	Redo() error

	// Undo reverses the effect by consuming the payload previously
	// produced by BackupCurrentState. Invoked while the owning entry's
	// mutex is held.
	Undo(file *UndoFile) error

	// BackupCurrentState captures enough state to reverse the redo
	// that is about to run. Invoked under no lock, against a fresh
	// entry not yet visible to anyone else.
	BackupCurrentState(file *UndoFile) error
}

// commandRegistry maps command names to live command objects.
// Registration is one-time: re-registering a name is an error.
type commandRegistry struct {
	commands map[string]Command
}

func newCommandRegistry() *commandRegistry {
	return &commandRegistry{commands: make(map[string]Command)}
}

func (r *commandRegistry) register(cmd Command) error {
	name := cmd.Name()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("%w: %q", ErrCommandNameTaken, name)
	}
	r.commands[name] = cmd
	return nil
}

func (r *commandRegistry) lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// commandName extracts the leading, space-free command name from a
// command string such as "Move -T 10 20".
func commandName(cmdStr string) string {
	for i, c := range cmdStr {
		if c == ' ' {
			return cmdStr[:i]
		}
	}
	return cmdStr
}
