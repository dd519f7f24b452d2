package mcp

// JSON-RPC 2.0 framing for the Model Context Protocol.

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"` // always "2.0"
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	methodInitialize = "initialize"
	methodListTools  = "tools/list"
	methodCallTool   = "tools/call"

	protocolVersion = "2024-11-05"
)

type initializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    struct{}   `json:"capabilities"`
	ClientInfo      clientInfo `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type listToolsResult struct {
	Tools []toolInfo `json:"tools"`
}

type toolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallToolResult is the structured content a tool invocation returns.
type CallToolResult struct {
	Content []ToolContent `json:"content"`
}

// ToolContent is one block of tool output.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func newInitializeParams() initializeParams {
	params := initializeParams{ProtocolVersion: protocolVersion}
	params.ClientInfo = clientInfo{Name: "gabi", Version: "1.0.0"}
	return params
}
