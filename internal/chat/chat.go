// Package chat binds the session registry, the entity selection and the
// backend client into the exchange flow the front end drives: optimistic
// local append, bounded backend round trip, conditional response append.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gabi/internal/agentos"
	"gabi/internal/configstore"
	"gabi/internal/selection"
	"gabi/internal/session"
	"gabi/internal/storage"
)

// Chat is the single source of truth for conversation state.
type Chat struct {
	registry *session.Registry
	selector *selection.Selector
	client   *agentos.Client
	configs  *configstore.Store
	logger   *slog.Logger
}

// New wires the components together and registers the chat as the
// selector's mode listener, so a mode switch drops the active session.
func New(registry *session.Registry, selector *selection.Selector, client *agentos.Client, configs *configstore.Store, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chat{
		registry: registry,
		selector: selector,
		client:   client,
		configs:  configs,
		logger:   logger,
	}
	selector.SetModeListener(c)
	return c
}

// OnModeSwitch implements selection.ModeListener. The underlying session
// record survives; only the active pointer is dropped.
func (c *Chat) OnModeSwitch(mode session.Mode) {
	if err := c.registry.ClearActive(); err != nil {
		c.logger.Warn("failed to clear active session on mode switch", "error", err)
	}
	c.logger.Info("mode switched", "mode", mode)
}

// Send runs one exchange: the user message is appended locally before the
// network call and is never retracted; the response message is appended
// only on success. The returned error is one of the taxonomy values
// (ErrEmptyInput, ErrTimeout, a transport error, or *BackendError).
func (c *Chat) Send(ctx context.Context, content string) (*session.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, agentos.ErrEmptyInput
	}

	sess, err := c.ensureSession()
	if err != nil {
		return nil, err
	}

	user := session.NewUserMessage(sess.ID, content)
	if err := c.registry.Append(sess.ID, user); err != nil {
		if !errors.Is(err, storage.ErrPersistenceUnavailable) {
			return nil, err
		}
		c.logger.Warn("user message not persisted", "session_id", sess.ID, "error", err)
	}

	reply, err := c.client.SendMessage(ctx, sess.ID, content)
	if err != nil {
		return nil, err
	}

	if err := c.registry.BindEntity(sess.ID, reply.SpeakerRef); err != nil {
		c.logger.Warn("failed to bind entity", "session_id", sess.ID, "error", err)
	}
	if err := c.registry.Append(sess.ID, *reply); err != nil {
		if !errors.Is(err, storage.ErrPersistenceUnavailable) {
			return reply, err
		}
		c.logger.Warn("response message not persisted", "session_id", sess.ID, "error", err)
	}
	return reply, nil
}

// ensureSession returns the active session, creating one from the current
// selection when no session is active.
func (c *Chat) ensureSession() (*session.Session, error) {
	if id, ok := c.registry.Active(); ok {
		if sess, found := c.registry.Get(id); found {
			return sess, nil
		}
	}

	state := c.selector.Current()
	entityRef, _ := c.selector.EntityRef()
	sess, err := c.registry.Create(state.Mode, entityRef)
	if err != nil && !errors.Is(err, storage.ErrPersistenceUnavailable) {
		return nil, err
	}
	if err != nil {
		c.logger.Warn("session not persisted", "session_id", sess.ID, "error", err)
	}
	return sess, nil
}

// Current returns the active session, if any.
func (c *Chat) Current() (*session.Session, bool) {
	id, ok := c.registry.Active()
	if !ok {
		return nil, false
	}
	return c.registry.Get(id)
}

// StartNew abandons the active pointer and creates a fresh session from
// the current selection.
func (c *Chat) StartNew() (*session.Session, error) {
	state := c.selector.Current()
	entityRef, _ := c.selector.EntityRef()
	return c.registry.Create(state.Mode, entityRef)
}

// ClearCurrent empties the active session's log, keeping the session.
func (c *Chat) ClearCurrent() error {
	id, ok := c.registry.Active()
	if !ok {
		return nil
	}
	return c.registry.ClearMessages(id)
}

// SelectAgent changes the agent selection and starts a fresh context:
// the active session pointer is dropped, as entity changes do not share
// history.
func (c *Chat) SelectAgent(agentID string) {
	c.selector.SelectAgent(agentID)
	if err := c.registry.ClearActive(); err != nil {
		c.logger.Warn("failed to clear active session", "error", err)
	}
}

// SelectTeam changes the team selection and starts a fresh context.
func (c *Chat) SelectTeam(teamID string) {
	c.selector.SelectTeam(teamID)
	if err := c.registry.ClearActive(); err != nil {
		c.logger.Warn("failed to clear active session", "error", err)
	}
}

// SetMode delegates to the selector; the mode listener drops the active
// session when the mode actually changes.
func (c *Chat) SetMode(mode session.Mode) {
	c.selector.SetMode(mode)
}

// CheckBackend probes the backend and persists the connection record.
func (c *Chat) CheckBackend(ctx context.Context) (*agentos.HealthInfo, error) {
	info, err := c.client.Health(ctx)

	conn := configstore.Connection{URL: c.client.Endpoint(), Connected: err == nil}
	if info != nil {
		conn.Data = map[string]any{
			"status":         info.Status,
			"version":        info.Version,
			"agents_count":   info.AgentsCount,
			"sessions_count": info.SessionsCount,
		}
	}
	if saveErr := c.configs.SaveConnection(conn); saveErr != nil {
		c.logger.Warn("failed to persist connection record", "error", saveErr)
	}
	return info, err
}
