// Package selection tracks the active interaction mode and the entity
// the user is talking to. At most one of agent/team is selected at a
// time; switching modes starts a fresh context.
package selection

import (
	"log/slog"
	"sync"

	"gabi/internal/session"
	"gabi/internal/storage"
)

const selectionKey = "selectedAgents"

// State is the persisted selection record.
type State struct {
	Mode    session.Mode `json:"mode"`
	AgentID string       `json:"agentId,omitempty"`
	TeamID  string       `json:"teamId,omitempty"`
}

// ModeListener is notified when the mode actually changes, so the active
// session reference can be dropped (history does not carry across
// incompatible entity types).
type ModeListener interface {
	OnModeSwitch(mode session.Mode)
}

// Selector holds the selection state backed by the store.
type Selector struct {
	store    storage.Store
	logger   *slog.Logger
	mu       sync.Mutex
	state    State
	listener ModeListener
}

// NewSelector loads any persisted selection and returns the selector.
// A store with no record starts in agent mode with nothing selected.
func NewSelector(store storage.Store, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{store: store, logger: logger}
	if found, err := store.Get(selectionKey, &s.state); err != nil || !found {
		s.state = State{Mode: session.ModeAgent}
	}
	if s.state.Mode != session.ModeTeam {
		s.state.Mode = session.ModeAgent
	}
	return s
}

// SetModeListener registers the hook invoked on a real mode switch.
func (s *Selector) SetModeListener(listener ModeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = listener
}

// Current returns a copy of the selection state.
func (s *Selector) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the active interaction mode.
func (s *Selector) Mode() session.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Mode
}

// EntityRef returns the selected entity id for the current mode, if any.
func (s *Selector) EntityRef() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode == session.ModeTeam {
		return s.state.TeamID, s.state.TeamID != ""
	}
	return s.state.AgentID, s.state.AgentID != ""
}

// SelectAgent selects an agent, clearing any team selection. Selecting
// the already selected agent toggles it off.
func (s *Selector) SelectAgent(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.AgentID == agentID {
		s.state.AgentID = ""
	} else {
		s.state.AgentID = agentID
	}
	s.state.TeamID = ""
	s.persist()
}

// SelectTeam selects a team, clearing any agent selection. Selecting the
// already selected team toggles it off.
func (s *Selector) SelectTeam(teamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TeamID == teamID {
		s.state.TeamID = ""
	} else {
		s.state.TeamID = teamID
	}
	s.state.AgentID = ""
	s.persist()
}

// SetMode switches the interaction mode. Switching to a different mode
// clears both selections and notifies the listener; setting the current
// mode again is a no-op.
func (s *Selector) SetMode(mode session.Mode) {
	s.mu.Lock()
	if s.state.Mode == mode {
		s.mu.Unlock()
		return
	}

	s.state = State{Mode: mode}
	s.persist()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.OnModeSwitch(mode)
	}
}

// persist must be called with the mutex held.
func (s *Selector) persist() {
	if err := s.store.Set(selectionKey, s.state); err != nil {
		s.logger.Warn("failed to persist selection", "error", err)
	}
}
