package session

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gabi/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewRegistry(store, testLogger()), dir
}

func TestCreateMakesSessionActive(t *testing.T) {
	r, _ := newTestRegistry(t)

	sess, err := r.Create(ModeAgent, "research-agent")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(sess.ID, "session-") {
		t.Errorf("unexpected session id %q", sess.ID)
	}
	if sess.Title != "New Chat" {
		t.Errorf("got title %q, want %q", sess.Title, "New Chat")
	}

	active, ok := r.Active()
	if !ok || active != sess.ID {
		t.Errorf("active = %q, %v; want %q", active, ok, sess.ID)
	}
}

func TestAppendDerivesTitleFromFirstUserMessage(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "a1")

	if err := r.Append(sess.ID, NewUserMessage(sess.ID, "Quem é você?")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := r.Get(sess.ID)
	if got.Title != "Quem é você?" {
		t.Errorf("got title %q, want %q", got.Title, "Quem é você?")
	}

	// A later message does not change the title again.
	if err := r.Append(sess.ID, NewUserMessage(sess.ID, "second message")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, _ = r.Get(sess.ID)
	if got.Title != "Quem é você?" {
		t.Errorf("title changed to %q", got.Title)
	}
}

func TestDeriveTitleTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("ab", 40)
	title := DeriveTitle(long)
	if len([]rune(title)) != 51 {
		t.Errorf("got %d runes, want 51", len([]rune(title)))
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("truncated title %q should end with ellipsis", title)
	}

	short := "hello"
	if DeriveTitle(short) != short {
		t.Errorf("short content should be kept verbatim")
	}
}

func TestAppendClampsEarlierTimestamps(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "a1")

	now := time.Now()
	first := NewUserMessage(sess.ID, "first")
	first.Timestamp = now
	if err := r.Append(sess.ID, first); err != nil {
		t.Fatalf("Append: %v", err)
	}

	second := Message{ID: "reply-1", Content: "reply", SpeakerRef: "a1", Timestamp: now.Add(-time.Minute)}
	if err := r.Append(sess.ID, second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := r.Get(sess.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[1].Timestamp.Before(got.Messages[0].Timestamp) {
		t.Error("timestamps must be non-decreasing")
	}
	if got.Messages[1].SessionID != sess.ID {
		t.Errorf("message session id = %q, want %q", got.Messages[1].SessionID, sess.ID)
	}
}

func TestAppendUnknownSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	if err := r.Append("session-nope", NewUserMessage("session-nope", "x")); err != ErrSessionNotFound {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}

func TestBindEntityOnlyFillsEmptyBinding(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "")

	if err := r.BindEntity(sess.ID, "research-agent"); err != nil {
		t.Fatalf("BindEntity: %v", err)
	}
	got, _ := r.Get(sess.ID)
	if got.EntityRef != "research-agent" {
		t.Errorf("got entity %q, want %q", got.EntityRef, "research-agent")
	}

	if err := r.BindEntity(sess.ID, "other-agent"); err != nil {
		t.Fatalf("BindEntity: %v", err)
	}
	got, _ = r.Get(sess.ID)
	if got.EntityRef != "research-agent" {
		t.Error("existing binding must not be overwritten")
	}
}

func TestRenameIgnoresEmptyTitleAndUnknownID(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "a1")

	if err := r.Rename(sess.ID, "  "); err != nil {
		t.Fatalf("Rename blank: %v", err)
	}
	got, _ := r.Get(sess.ID)
	if got.Title != "New Chat" {
		t.Errorf("blank rename changed title to %q", got.Title)
	}

	if err := r.Rename("session-unknown", "anything"); err != nil {
		t.Errorf("rename of unknown id should be a no-op, got %v", err)
	}

	if err := r.Rename(sess.ID, "Research notes"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ = r.Get(sess.ID)
	if got.Title != "Research notes" {
		t.Errorf("got title %q", got.Title)
	}
}

func TestClearMessagesResetsLogAndTitle(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "a1")
	r.Append(sess.ID, NewUserMessage(sess.ID, "hello there"))

	if err := r.ClearMessages(sess.ID); err != nil {
		t.Fatalf("ClearMessages: %v", err)
	}
	got, _ := r.Get(sess.ID)
	if len(got.Messages) != 0 {
		t.Errorf("got %d messages, want 0", len(got.Messages))
	}
	if got.Title != "New Chat" {
		t.Errorf("got title %q, want %q", got.Title, "New Chat")
	}
	if got.ID != sess.ID {
		t.Error("session id must survive a clear")
	}
}

func TestDeleteClearsActivePointer(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "a1")

	if err := r.Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := r.Get(sess.ID); ok {
		t.Error("deleted session still readable")
	}
	if _, ok := r.Active(); ok {
		t.Error("deleting the active session must clear the active pointer")
	}
}

func TestDeleteInactiveKeepsActivePointer(t *testing.T) {
	r, _ := newTestRegistry(t)
	first, _ := r.Create(ModeAgent, "a1")
	second, _ := r.Create(ModeAgent, "a1")

	if err := r.Delete(first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	active, ok := r.Active()
	if !ok || active != second.ID {
		t.Errorf("active = %q, %v; want %q", active, ok, second.ID)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	r, _ := newTestRegistry(t)
	first, _ := r.Create(ModeAgent, "a1")
	time.Sleep(5 * time.Millisecond)
	second, _ := r.Create(ModeTeam, "t1")
	time.Sleep(5 * time.Millisecond)

	// Touching the older session moves it to the front.
	if err := r.Append(first.ID, NewUserMessage(first.ID, "bump")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	summaries := r.List()
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != first.ID || summaries[1].ID != second.ID {
		t.Errorf("got order [%s %s], want [%s %s]",
			summaries[0].ID, summaries[1].ID, first.ID, second.ID)
	}
	if summaries[0].MessageCount != 1 {
		t.Errorf("got message count %d, want 1", summaries[0].MessageCount)
	}
}

func TestListSkipsCorruptedRecords(t *testing.T) {
	r, dir := newTestRegistry(t)
	sess, _ := r.Create(ModeAgent, "a1")

	bad := filepath.Join(dir, "chat-session-broken.json")
	if err := os.WriteFile(bad, []byte("{broken"), 0644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}

	summaries := r.List()
	if len(summaries) != 1 || summaries[0].ID != sess.ID {
		t.Errorf("corrupted record should be skipped, got %d summaries", len(summaries))
	}
}

func TestRegistryReloadsFromStore(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	r := NewRegistry(store, testLogger())
	sess, _ := r.Create(ModeAgent, "a1")
	r.Append(sess.ID, NewUserMessage(sess.ID, "persisted"))

	// A fresh registry over the same store sees the session.
	r2 := NewRegistry(store, testLogger())
	got, ok := r2.Get(sess.ID)
	if !ok {
		t.Fatal("session not found after reload")
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "persisted" {
		t.Errorf("reloaded session lost its messages: %+v", got.Messages)
	}
	active, ok := r2.Active()
	if !ok || active != sess.ID {
		t.Errorf("active pointer not persisted: %q, %v", active, ok)
	}
}

func TestSetActiveUnknownSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	if err := r.SetActive("session-ghost"); err != ErrSessionNotFound {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}
