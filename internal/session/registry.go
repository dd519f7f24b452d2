package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gabi/internal/storage"
)

const (
	sessionKeyPrefix  = "chat-session-"
	currentSessionKey = "current-session-id"
)

// ErrSessionNotFound reports an operation against an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Summary is the listing view of a session, without the full message log.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Mode         Mode      `json:"mode"`
	EntityRef    string    `json:"entity_ref,omitempty"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Registry is the single owner of session records. It keeps loaded
// sessions in memory and writes through to the store after every change,
// so a failed write leaves working state intact.
type Registry struct {
	store  storage.Store
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*Session
}

// NewRegistry returns a registry over the given store.
func NewRegistry(store storage.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		logger: logger,
		cache:  make(map[string]*Session),
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create allocates a new session with the mode and entity binding fixed
// for its lifetime, persists it and makes it active.
func (r *Registry) Create(mode Mode, entityRef string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	sess := &Session{
		ID:        "session-" + uuid.NewString(),
		Title:     "New Chat",
		Mode:      mode,
		EntityRef: entityRef,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.cache[sess.ID] = sess

	if err := r.persist(sess); err != nil {
		return sess, err
	}
	if err := r.store.Set(currentSessionKey, sess.ID); err != nil {
		return sess, err
	}

	r.logger.Info("created session", "session_id", sess.ID, "mode", mode, "entity", entityRef)
	return sess, nil
}

// Get returns the session with the given id, loading it from the store on
// first access.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.lookup(id)
	return sess, ok
}

// lookup must be called with the mutex held.
func (r *Registry) lookup(id string) (*Session, bool) {
	if sess, ok := r.cache[id]; ok {
		return sess, true
	}
	var sess Session
	found, err := r.store.Get(sessionKey(id), &sess)
	if err != nil {
		r.logger.Warn("failed to load session", "session_id", id, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	r.cache[id] = &sess
	return &sess, true
}

// Append adds a message to the session log and persists the full updated
// record. Message order is authoritative: a timestamp earlier than the
// current tail is clamped so the log stays non-decreasing.
func (r *Registry) Append(id string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}

	if n := len(sess.Messages); n > 0 {
		if tail := sess.Messages[n-1].Timestamp; msg.Timestamp.Before(tail) {
			msg.Timestamp = tail
		}
	}
	msg.SessionID = id
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = time.Now()

	if sess.Title == "New Chat" && msg.SpeakerRef == SpeakerUser {
		sess.Title = DeriveTitle(msg.Content)
	}

	return r.persist(sess)
}

// BindEntity fills in the entity reference of a session that was created
// before any entity was selected. A session already bound keeps its
// binding.
func (r *Registry) BindEntity(id, entityRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	if sess.EntityRef != "" || entityRef == "" {
		return nil
	}
	sess.EntityRef = entityRef
	return r.persist(sess)
}

// ClearMessages empties a session's log in place, keeping the session id.
func (r *Registry) ClearMessages(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Messages = []Message{}
	sess.Title = "New Chat"
	sess.UpdatedAt = time.Now()
	return r.persist(sess)
}

// Rename updates a session title. An empty title or unknown id is a
// silent no-op.
func (r *Registry) Rename(id, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.lookup(id)
	if !ok {
		return nil
	}
	sess.Title = title
	sess.UpdatedAt = time.Now()
	return r.persist(sess)
}

// Delete removes the session and its persisted record. If it was the
// active session, no session becomes active.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cache, id)
	if err := r.store.Remove(sessionKey(id)); err != nil {
		return err
	}

	if active, ok := r.activeLocked(); ok && active == id {
		if err := r.store.Remove(currentSessionKey); err != nil {
			return err
		}
	}

	r.logger.Info("deleted session", "session_id", id)
	return nil
}

// List enumerates all persisted sessions, most recently active first. It
// rescans the store on every call; a record that fails to decode is
// skipped, never fatal.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.store.Keys(sessionKeyPrefix)
	if err != nil {
		r.logger.Warn("failed to scan sessions", "error", err)
		return nil
	}

	summaries := make([]Summary, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, sessionKeyPrefix)
		sess, ok := r.lookup(id)
		if !ok {
			continue
		}
		summaries = append(summaries, Summary{
			ID:           sess.ID,
			Title:        sess.Title,
			Mode:         sess.Mode,
			EntityRef:    sess.EntityRef,
			MessageCount: len(sess.Messages),
			UpdatedAt:    sess.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries
}

// Active returns the id of the currently active session, if any.
func (r *Registry) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

func (r *Registry) activeLocked() (string, bool) {
	var id string
	found, err := r.store.Get(currentSessionKey, &id)
	if err != nil || !found || id == "" {
		return "", false
	}
	return id, true
}

// SetActive points the registry at an existing session.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup(id); !ok {
		return ErrSessionNotFound
	}
	return r.store.Set(currentSessionKey, id)
}

// ClearActive drops the active-session pointer. The session record itself
// is kept.
func (r *Registry) ClearActive() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Remove(currentSessionKey)
}

func (r *Registry) persist(sess *Session) error {
	if err := r.store.Set(sessionKey(sess.ID), sess); err != nil {
		return fmt.Errorf("persist session %s: %w", sess.ID, err)
	}
	return nil
}
