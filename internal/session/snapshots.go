package session

import (
	"fmt"
	"time"
)

const savedChatsKey = "gabi-saved-chats"

// Snapshot is a saved copy of a conversation: the listing summary plus
// the full message array, stored together under one key.
type Snapshot struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"lastMessage"`
	Timestamp    time.Time `json:"timestamp"`
	AgentID      string    `json:"agentId,omitempty"`
	TeamID       string    `json:"teamId,omitempty"`
	MessageCount int       `json:"messageCount"`
	Mode         Mode      `json:"mode"`
	Messages     []Message `json:"messages"`
}

// SaveSnapshot stores a copy of the given session at the head of the
// saved-chats list. Sessions with no messages are rejected.
func (r *Registry) SaveSnapshot(id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.lookup(id)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	if len(sess.Messages) == 0 {
		return Snapshot{}, fmt.Errorf("session %s has no messages to save", id)
	}

	snap := Snapshot{
		ID:           fmt.Sprintf("chat-%d", time.Now().UnixMilli()),
		Title:        sess.Title,
		LastMessage:  sess.Messages[len(sess.Messages)-1].Content,
		Timestamp:    time.Now(),
		MessageCount: len(sess.Messages),
		Mode:         sess.Mode,
		Messages:     append([]Message(nil), sess.Messages...),
	}
	switch sess.Mode {
	case ModeTeam:
		snap.TeamID = sess.EntityRef
	default:
		snap.AgentID = sess.EntityRef
	}

	saved := r.snapshotsLocked()
	saved = append([]Snapshot{snap}, saved...)
	if err := r.store.Set(savedChatsKey, saved); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Snapshots returns all saved chats, newest first.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotsLocked()
}

func (r *Registry) snapshotsLocked() []Snapshot {
	var saved []Snapshot
	if _, err := r.store.Get(savedChatsKey, &saved); err != nil {
		r.logger.Warn("failed to load saved chats", "error", err)
	}
	return saved
}

// LoadSnapshot restores a saved chat as a live session under the
// snapshot's id and makes it active. The returned session carries the
// snapshot's mode and entity binding so the caller can restore selection.
func (r *Registry) LoadSnapshot(snapshotID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, snap := range r.snapshotsLocked() {
		if snap.ID != snapshotID {
			continue
		}

		entityRef := snap.AgentID
		if snap.Mode == ModeTeam {
			entityRef = snap.TeamID
		}
		sess := &Session{
			ID:        snap.ID,
			Title:     snap.Title,
			Mode:      snap.Mode,
			EntityRef: entityRef,
			Messages:  append([]Message(nil), snap.Messages...),
			CreatedAt: snap.Timestamp,
			UpdatedAt: time.Now(),
		}
		r.cache[sess.ID] = sess

		if err := r.persist(sess); err != nil {
			return sess, err
		}
		if err := r.store.Set(currentSessionKey, sess.ID); err != nil {
			return sess, err
		}
		return sess, nil
	}
	return nil, fmt.Errorf("saved chat %s not found", snapshotID)
}

// DeleteSnapshot removes a saved chat from the list.
func (r *Registry) DeleteSnapshot(snapshotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.snapshotsLocked()
	kept := make([]Snapshot, 0, len(saved))
	for _, snap := range saved {
		if snap.ID != snapshotID {
			kept = append(kept, snap)
		}
	}
	return r.store.Set(savedChatsKey, kept)
}

// RenameSnapshot updates a saved chat's title.
func (r *Registry) RenameSnapshot(snapshotID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.snapshotsLocked()
	for i := range saved {
		if saved[i].ID == snapshotID {
			saved[i].Title = title
		}
	}
	return r.store.Set(savedChatsKey, saved)
}
