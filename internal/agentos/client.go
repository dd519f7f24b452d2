// Package agentos is the HTTP client for the remote agent-orchestration
// backend. It owns the message exchange round trip and the catalog and
// administration endpoints the front end consumes.
package agentos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gabi/internal/session"
)

// DefaultTimeout bounds one message exchange; a backend that has not
// answered within the window is treated as timed out and the in-flight
// request is cancelled.
const DefaultTimeout = 5 * time.Second

var (
	// ErrEmptyInput rejects a blank message before any network activity.
	ErrEmptyInput = errors.New("message must not be empty")

	// ErrTimeout reports that no response arrived within the send window.
	ErrTimeout = errors.New("backend did not respond in time")
)

// BackendError carries the structured error detail of a non-2xx response.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error: %d - %s", e.Status, e.Detail)
}

// Client talks to one backend endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	timeout    time.Duration
}

// NewClient validates the endpoint URL and returns a client. A zero
// timeout falls back to DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend endpoint %q", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
		timeout:    timeout,
	}, nil
}

// Endpoint returns the configured backend base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type sendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// SendMessage posts one user message and returns the backend's response
// message. The call is bounded by the client's timeout; on expiry the
// in-flight request is cancelled and ErrTimeout is returned.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*session.Message, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyInput
	}

	ctx, span := c.tracer.Start(ctx, "chat_send_message")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp session.Message
	err := c.doJSON(ctx, http.MethodPost, "/chat/send-message", sendMessageRequest{
		Message:   strings.TrimSpace(message),
		SessionID: sessionID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthInfo is the backend's connectivity and version probe result.
type HealthInfo struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	AgentsCount   int    `json:"agents_count"`
	SessionsCount int    `json:"sessions_count"`
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	ctx, span := c.tracer.Start(ctx, "backend_health")
	defer span.End()

	var info HealthInfo
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Entity is one conversational agent or team from the backend catalog.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Model       string `json:"model,omitempty"`
	Type        string `json:"type,omitempty"`
}

type agentsResponse struct {
	Agents []Entity `json:"agents"`
}

// Agents fetches the entity catalog from GET /agents.
func (c *Client) Agents(ctx context.Context) ([]Entity, error) {
	ctx, span := c.tracer.Start(ctx, "backend_list_agents")
	defer span.End()

	var resp agentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

// Teams filters the catalog down to team entities.
func (c *Client) Teams(ctx context.Context) ([]Entity, error) {
	entities, err := c.Agents(ctx)
	if err != nil {
		return nil, err
	}
	teams := make([]Entity, 0)
	for _, e := range entities {
		if e.Type == "team" {
			teams = append(teams, e)
		}
	}
	return teams, nil
}

// ToolInfo describes one tool exposed by the backend's MCP integration.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type mcpToolsResponse struct {
	Tools []ToolInfo `json:"tools"`
}

// MCPTools lists the tools available through GET /mcp/tools.
func (c *Client) MCPTools(ctx context.Context) ([]ToolInfo, error) {
	ctx, span := c.tracer.Start(ctx, "backend_mcp_tools")
	defer span.End()

	var resp mcpToolsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/mcp/tools", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// doJSON runs one request against the backend: marshals the body, checks
// the status, decodes the response and records the request duration.
// Errors are classified per the taxonomy: timeout, transport failure, or
// a BackendError built from the response's detail field.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.recordDuration(ctx, path, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &detail) != nil || detail.Detail == "" {
			detail.Detail = strings.TrimSpace(string(data))
		}
		return &BackendError{Status: resp.StatusCode, Detail: detail.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) recordDuration(ctx context.Context, path string, start time.Time) {
	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		c.logger.Warn("failed to create histogram", "error", err)
		return
	}
	histogram.Record(ctx, float64(time.Since(start).Milliseconds()))
	c.logger.Debug("backend request", "path", path, "duration_ms", time.Since(start).Milliseconds())
}
