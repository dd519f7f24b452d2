package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// HTTPSource reaches a tool server over HTTP, posting JSON-RPC requests
// to its /rpc endpoint.
type HTTPSource struct {
	name       string
	baseURL    string
	httpClient *http.Client
	reqID      int32
	logger     *slog.Logger
}

// NewHTTPSource returns an HTTP source. No connection is made until
// Initialize.
func NewHTTPSource(name, baseURL string, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (s *HTTPSource) Name() string {
	return s.name
}

func (s *HTTPSource) Initialize(ctx context.Context) error {
	var result initializeResult
	if err := s.call(ctx, methodInitialize, newInitializeParams(), &result); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	s.logger.Info("tool source initialized", "source", result.ServerInfo.Name, "version", result.ServerInfo.Version)
	return nil
}

func (s *HTTPSource) ListTools(ctx context.Context) ([]Tool, error) {
	var result listToolsResult
	if err := s.call(ctx, methodListTools, nil, &result); err != nil {
		return nil, fmt.Errorf("list tools failed: %w", err)
	}

	tools := make([]Tool, len(result.Tools))
	for i, info := range result.Tools {
		tools[i] = Tool{
			Name:        info.Name,
			Description: info.Description,
			InputSchema: info.InputSchema,
			SourceName:  s.name,
		}
	}
	return tools, nil
}

func (s *HTTPSource) CallTool(ctx context.Context, toolName string, args map[string]any) (any, error) {
	var result CallToolResult
	err := s.call(ctx, methodCallTool, callToolParams{Name: toolName, Arguments: args}, &result)
	if err != nil {
		return nil, fmt.Errorf("call tool failed: %w", err)
	}
	s.logger.Info("called tool", "source", s.name, "tool", toolName)
	return result, nil
}

func (s *HTTPSource) Close() error {
	return nil
}

func (s *HTTPSource) call(ctx context.Context, method string, params, result any) error {
	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      int(atomic.AddInt32(&s.reqID, 1)),
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rpc", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	var response rpcResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if response.Error != nil {
		return fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	return decodeResult(response.Result, result)
}

// decodeResult re-marshals the untyped result into the caller's type.
func decodeResult(raw, result any) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}
