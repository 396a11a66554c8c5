// Package movecmd is a demonstration command used to exercise
// UndoSystem end to end: it moves a two-field position in an
// otherwise arbitrary caller-owned data model, and is the command the
// testable-properties scenarios are written against.
package movecmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/undogo/undogo"
)

// DataBase is the toy data model Move operates on, standing in for
// whatever structure a real embedding application manipulates.
type DataBase struct {
	X, Y int
}

// Move implements undogo.Command, translating DataBase.X/Y to an
// absolute position given by "-T X Y".
type Move struct {
	db *DataBase

	helpRequested bool
	hasPos        bool
	x, y          int
}

// New returns a Move command bound to db. Bind one Move per
// UndoSystem; multiple Move commands may share the same db, matching
// the original example's two MoveCursor instances over one fake_dbase.
func New(db *DataBase) *Move {
	return &Move{db: db}
}

func (m *Move) Name() string { return "Move" }

func (m *Move) Help() string { return "Move the cursor to a new position" }

// Parse accepts "Move -T X Y" or "Move -h"/"Move --help".
func (m *Move) Parse(cmdStr string) error {
	m.helpRequested = false
	m.hasPos = false

	fields := strings.Fields(cmdStr)
	if len(fields) == 0 {
		return errors.New("movecmd: empty command string")
	}
	args := fields[1:]

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			m.helpRequested = true
			return nil
		case "-T":
			if i+2 >= len(args) {
				return errors.New("movecmd: -T requires two integers")
			}
			x, err := strconv.Atoi(args[i+1])
			if err != nil {
				return fmt.Errorf("movecmd: invalid X: %w", err)
			}
			y, err := strconv.Atoi(args[i+2])
			if err != nil {
				return fmt.Errorf("movecmd: invalid Y: %w", err)
			}
			m.x, m.y = x, y
			m.hasPos = true
			i += 2
		default:
			return fmt.Errorf("movecmd: unrecognized argument %q", args[i])
		}
	}
	return nil
}

func (m *Move) HelpRequested() bool { return m.helpRequested }

// Redo applies the parsed position to the bound DataBase.
func (m *Move) Redo() error {
	if !m.hasPos {
		return errors.New("Expecting -T x y but found nothing")
	}
	m.db.X = m.x
	m.db.Y = m.y
	return nil
}

// moveBackup is the fixed-size payload shape written by
// BackupCurrentState and read back by Undo.
type moveBackup struct {
	X, Y int32
}

func (m *Move) Undo(file *undogo.UndoFile) error {
	var backup moveBackup
	if err := file.ReadFixed(&backup); err != nil {
		return err
	}
	m.db.X = int(backup.X)
	m.db.Y = int(backup.Y)
	return nil
}

func (m *Move) BackupCurrentState(file *undogo.UndoFile) error {
	return file.WriteFixed(moveBackup{X: int32(m.db.X), Y: int32(m.db.Y)})
}

// MoveTo is a convenience wrapper mirroring the original's
// MoveCursor::Move: it formats the "-T X Y" command string and
// dispatches through sys.ExecuteTyped so callers don't have to know
// the wire syntax.
func (m *Move) MoveTo(sys *undogo.UndoSystem, x, y, userID int) error {
	return sys.ExecuteTyped(m, fmt.Sprintf("Move -T %d %d", x, y), userID)
}
