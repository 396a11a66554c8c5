package undogo

import (
	"errors"
	"testing"
)

type stubCommand struct {
	name string
}

func (s *stubCommand) Name() string                                { return s.name }
func (s *stubCommand) Help() string                                { return "stub" }
func (s *stubCommand) Parse(cmdStr string) error                   { return nil }
func (s *stubCommand) HelpRequested() bool                         { return false }
func (s *stubCommand) Redo() error                                 { return nil }
func (s *stubCommand) Undo(file *UndoFile) error                   { return nil }
func (s *stubCommand) BackupCurrentState(file *UndoFile) error     { return nil }

func TestCommandRegistryRegisterAndLookup(t *testing.T) {
	r := newCommandRegistry()
	cmd := &stubCommand{name: "Move"}

	if err := r.register(cmd); err != nil {
		t.Fatalf("register() error = %v", err)
	}

	got, ok := r.lookup("Move")
	if !ok || got != cmd {
		t.Fatalf("lookup() = %v, %v, want cmd, true", got, ok)
	}

	if _, ok := r.lookup("Nope"); ok {
		t.Fatal("lookup() found a name that was never registered")
	}
}

func TestCommandRegistryDuplicateName(t *testing.T) {
	r := newCommandRegistry()
	if err := r.register(&stubCommand{name: "Move"}); err != nil {
		t.Fatalf("first register() error = %v", err)
	}

	err := r.register(&stubCommand{name: "Move"})
	if !errors.Is(err, ErrCommandNameTaken) {
		t.Fatalf("register() error = %v, want ErrCommandNameTaken", err)
	}
}

func TestCommandName(t *testing.T) {
	cases := map[string]string{
		"Move -T 1 2": "Move",
		"Move":        "Move",
		"":            "",
	}
	for in, want := range cases {
		if got := commandName(in); got != want {
			t.Errorf("commandName(%q) = %q, want %q", in, got, want)
		}
	}
}
