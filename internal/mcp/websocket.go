package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// WebSocketSource reaches a tool server over a persistent WebSocket
// connection. Requests are serialized on the connection, one at a time.
type WebSocketSource struct {
	name   string
	url    string
	conn   *websocket.Conn
	reqID  int32
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewWebSocketSource dials the server immediately.
func NewWebSocketSource(name, url string, logger *slog.Logger) (*WebSocketSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	return &WebSocketSource{
		name:   name,
		url:    url,
		conn:   conn,
		logger: logger,
	}, nil
}

func (s *WebSocketSource) Name() string {
	return s.name
}

func (s *WebSocketSource) Initialize(ctx context.Context) error {
	var result initializeResult
	if err := s.call(ctx, methodInitialize, newInitializeParams(), &result); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	s.logger.Info("tool source initialized", "source", result.ServerInfo.Name, "version", result.ServerInfo.Version)
	return nil
}

func (s *WebSocketSource) ListTools(ctx context.Context) ([]Tool, error) {
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

func (s *WebSocketSource) CallTool(ctx context.Context, toolName string, args map[string]any) (any, error) {
	var result CallToolResult
	err := s.call(ctx, methodCallTool, callToolParams{Name: toolName, Arguments: args}, &result)
	if err != nil {
		return nil, fmt.Errorf("call tool failed: %w", err)
	}
	s.logger.Info("called tool", "source", s.name, "tool", toolName)
	return result, nil
}

func (s *WebSocketSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}

func (s *WebSocketSource) call(ctx context.Context, method string, params, result any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("source is closed")
	}

	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetReadDeadline(deadline)
		s.conn.SetWriteDeadline(deadline)
	}

	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      int(atomic.AddInt32(&s.reqID, 1)),
		Method:  method,
		Params:  params,
	}
	if err := s.conn.WriteJSON(request); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	var response rpcResponse
	if err := s.conn.ReadJSON(&response); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if response.Error != nil {
		return fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	return decodeResult(response.Result, result)
}
