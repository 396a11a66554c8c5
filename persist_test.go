package undogo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPersistStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewPersistStore(dir)

	entry := newHistoryEntry(7, 12345, "Move -T 1 2")
	entry.payload = []byte{9, 8, 7, 6}

	if err := store.save(entry); err != nil {
		t.Fatalf("save() error = %v", err)
	}

	loaded := newHistoryEntry(0, 12345, "")
	if err := store.load(loaded, true, true); err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if loaded.UserID != entry.UserID {
		t.Errorf("UserID = %d, want %d", loaded.UserID, entry.UserID)
	}
	if loaded.Timestamp != entry.Timestamp {
		t.Errorf("Timestamp = %d, want %d", loaded.Timestamp, entry.Timestamp)
	}
	if loaded.CommandString != entry.CommandString {
		t.Errorf("CommandString = %q, want %q", loaded.CommandString, entry.CommandString)
	}
	if string(loaded.payload) != string(entry.payload) {
		t.Errorf("payload = %v, want %v", loaded.payload, entry.payload)
	}
}

func TestPersistStoreLoadKeyDataOnlySkipsPayload(t *testing.T) {
	dir := t.TempDir()
	store := NewPersistStore(dir)

	entry := newHistoryEntry(1, 555, "Move -T 3 4")
	entry.payload = []byte{1, 2, 3, 4, 5}
	if err := store.save(entry); err != nil {
		t.Fatalf("save() error = %v", err)
	}

	loaded := newHistoryEntry(0, 555, "")
	if err := store.load(loaded, true, false); err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if loaded.CommandString != entry.CommandString {
		t.Errorf("CommandString = %q, want %q", loaded.CommandString, entry.CommandString)
	}
	if loaded.payload != nil {
		t.Errorf("payload = %v, want nil when loadPayload is false", loaded.payload)
	}
}

func TestPersistStoreDeleteToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	store := NewPersistStore(dir)
	if err := store.delete(999); err != nil {
		t.Fatalf("delete() on missing file error = %v, want nil", err)
	}
}

func TestPersistStoreIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewPersistStore(dir)

	want := []int64{10, 20, 30}
	path := filepath.Join(dir, indexFileName)
	if err := store.saveIndexTo(path, want); err != nil {
		t.Fatalf("saveIndexTo() error = %v", err)
	}

	got, err := store.loadIndexFrom(path)
	if err != nil {
		t.Fatalf("loadIndexFrom() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loadIndexFrom() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("timestamp[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPersistStoreIndexExists(t *testing.T) {
	dir := t.TempDir()
	store := NewPersistStore(dir)

	if store.indexExists() {
		t.Fatal("indexExists() = true before any index written")
	}

	if err := store.saveIndexTo(store.indexPath(), []int64{1}); err != nil {
		t.Fatalf("saveIndexTo() error = %v", err)
	}
	if !store.indexExists() {
		t.Fatal("indexExists() = false after writing index")
	}
}

func TestPersistStoreEntryPathIsUnderDir(t *testing.T) {
	dir := t.TempDir()
	store := NewPersistStore(dir)
	path := store.entryPath(42)
	if filepath.Dir(path) != dir {
		t.Errorf("entryPath() = %q, want directory %q", path, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("temp dir vanished: %v", err)
	}
}
