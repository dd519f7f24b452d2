// Package mcp connects to remote MCP tool servers so the tools
// configuration can be populated with externally discovered tools. Only
// remote transports exist here: the client reaches tool servers over
// HTTP or WebSocket, never as local child processes.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Source is one connected tool server.
type Source interface {
	// Initialize performs the protocol handshake.
	Initialize(ctx context.Context) error

	// ListTools returns the tools this source offers.
	ListTools(ctx context.Context) ([]Tool, error)

	// CallTool invokes a tool by name.
	CallTool(ctx context.Context, toolName string, args map[string]any) (any, error)

	// Close disconnects from the source.
	Close() error

	// Name returns the source identifier.
	Name() string
}

// Tool is one invocable tool, tagged with the source that offers it.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	SourceName  string
}

// Connect picks the transport from the URL scheme and dials the source.
func Connect(url string, logger *slog.Logger) (Source, error) {
	if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
		return NewWebSocketSource(url, url, logger)
	}
	return NewHTTPSource(url, url, logger), nil
}

// Registry holds the connected sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source under its name.
func (r *Registry) Register(name string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = src
}

// Get retrieves a source by name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	return src, ok
}

// All returns every registered source.
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		sources = append(sources, src)
	}
	return sources
}

// Count returns the number of registered sources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Close disconnects every source, returning the first error seen.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, src := range r.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close source %s: %w", name, err)
		}
		delete(r.sources, name)
	}
	return firstErr
}

// Discover asks every source for its tools. A source that fails to answer
// is skipped; discovery never fails as a whole.
func (r *Registry) Discover(ctx context.Context, logger *slog.Logger) []Tool {
	var tools []Tool
	for _, src := range r.All() {
		found, err := src.ListTools(ctx)
		if err != nil {
			logger.Warn("failed to list tools from source", "source", src.Name(), "error", err)
			continue
		}
		tools = append(tools, found...)
	}
	return tools
}

// ToolNames extracts the plain names, for merging into the tools
// configuration record.
func ToolNames(tools []Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
