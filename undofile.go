package undogo

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// UndoFile is a typed cursor bound to one HistoryEntry's payload
// buffer. It carries no I/O of its own; it only manipulates the
// in-memory byte slice the entry already owns. Callers obtain a fresh
// UndoFile for every backup or undo operation — the cursor is never
// reused across calls.
type UndoFile struct {
	entry *HistoryEntry
	pos   int
}

// newUndoFile returns a cursor positioned at the start of entry's
// payload. Command.BackupCurrentState and Command.Undo each receive a
// fresh cursor like this one.
func newUndoFile(entry *HistoryEntry) *UndoFile {
	return &UndoFile{entry: entry}
}

// Write inserts data at the cursor position and advances the cursor
// by len(data).
func (f *UndoFile) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	buf := f.entry.payload
	grown := make([]byte, 0, len(buf)+len(data))
	grown = append(grown, buf[:f.pos]...)
	grown = append(grown, data...)
	grown = append(grown, buf[f.pos:]...)
	f.entry.payload = grown
	f.pos += len(data)
}

// Read copies n bytes starting at the cursor and advances the cursor
// by n. Reading past the end of the payload is a logic error and
// panics, matching the original contract's assert-on-overrun.
func (f *UndoFile) Read(n int) []byte {
	buf := f.entry.payload
	if f.pos+n > len(buf) {
		panic(fmt.Sprintf("undogo: UndoFile.Read(%d) at pos %d exceeds payload length %d", n, f.pos, len(buf)))
	}
	out := make([]byte, n)
	copy(out, buf[f.pos:f.pos+n])
	f.pos += n
	return out
}

// WriteFixed encodes a fixed-size value with encoding/binary and
// writes it at the cursor. v must be a type binary.Write accepts
// (a fixed-size value, pointer to one, or slice of such).
func (f *UndoFile) WriteFixed(v any) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("undogo: WriteFixed: %w", err)
	}
	f.Write(buf.Bytes())
	return nil
}

// ReadFixed decodes a fixed-size value with encoding/binary from the
// cursor. v must be a pointer to a type binary.Read accepts.
func (f *UndoFile) ReadFixed(v any) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("undogo: ReadFixed: unsupported type %T", v)
	}
	data := f.Read(size)
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, v)
}

// Len returns the total length of the underlying payload.
func (f *UndoFile) Len() int {
	return len(f.entry.payload)
}

// Pos returns the cursor's current offset.
func (f *UndoFile) Pos() int {
	return f.pos
}
