package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	in := record{Name: "alpha", Count: 3}
	if err := store.Set("rec", in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out record
	found, err := store.Get("rec", &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected record to be found")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	var out string
	found, err := store.Get("nothing", &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected missing key to report not found")
	}
}

func TestFileStoreCorruptRecordTreatedAsMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	var out map[string]any
	found, err := store.Get("bad", &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("corrupt record should be treated as missing")
	}
}

func TestFileStoreRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.Set("gone", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Remove("gone"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	var out string
	if found, _ := store.Get("gone", &out); found {
		t.Error("removed key should not be found")
	}

	// Removing a key twice is not an error.
	if err := store.Remove("gone"); err != nil {
		t.Errorf("Remove of missing key: %v", err)
	}
}

func TestFileStoreKeysPrefix(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, key := range []string{"chat-session-b", "chat-session-a", "other"} {
		if err := store.Set(key, key); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	keys, err := store.Keys("chat-session-")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"chat-session-a", "chat-session-b"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("got %v, want %v", keys, want)
	}
}

func TestFileStoreKeySanitized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.Set("../escape", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "..", "escape.json")); !os.IsNotExist(err) {
		t.Error("key must not write outside the store directory")
	}
}
