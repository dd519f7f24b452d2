// Package configstore persists the runtime configuration records: model
// parameters, knowledge sources, tool enablement and the backend
// connection. Each record has its own key and its own load/save pair;
// there are no cross-record invariants.
package configstore

import (
	"log/slog"

	"gabi/internal/storage"
)

const (
	modelConfigKey     = "modelConfig"
	knowledgeConfigKey = "knowledgeConfig"
	toolsConfigKey     = "toolsConfig"
	connectionURLKey   = "agentOSUrl"
	connectedKey       = "agentOSConnected"
	connectionDataKey  = "agentOSData"
)

// ModelConfig holds the LLM parameters. Values are stored as-is; range
// checking is the caller's concern, not the store's.
type ModelConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// DefaultModelConfig returns the configuration used before the user has
// saved anything.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:    "openai",
		Model:       "gpt-5",
		Temperature: 0.7,
		MaxTokens:   4000,
	}
}

// SourceType describes one knowledge source connection.
type SourceType struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"` // url | sql | document | api | file | mcp
	Name       string         `json:"name"`
	Connection string         `json:"connection"`
	Config     map[string]any `json:"config,omitempty"`
}

// KnowledgeConfig holds the knowledge-source record.
type KnowledgeConfig struct {
	Sources     []string     `json:"sources"`
	RAGEnabled  bool         `json:"ragEnabled"`
	MaxSources  int          `json:"maxSources"`
	SourceTypes []SourceType `json:"sourceTypes"`
}

// DefaultKnowledgeConfig returns the record used before the user has
// saved anything.
func DefaultKnowledgeConfig() KnowledgeConfig {
	return KnowledgeConfig{
		Sources:     []string{},
		RAGEnabled:  true,
		MaxSources:  10,
		SourceTypes: []SourceType{},
	}
}

// ToolsConfig holds the tool-enablement record.
type ToolsConfig struct {
	AvailableTools []string `json:"availableTools"`
	EnabledTools   []string `json:"enabledTools"`
	CustomTools    []string `json:"customTools"`
}

// DefaultToolsConfig returns the record used before the user has saved
// anything.
func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		AvailableTools: []string{"web_search", "calculator", "file_reader", "code_executor"},
		EnabledTools:   []string{"web_search", "calculator"},
		CustomTools:    []string{},
	}
}

// MergeAvailable adds tool names to AvailableTools, skipping duplicates.
func (t *ToolsConfig) MergeAvailable(names []string) {
	known := make(map[string]bool, len(t.AvailableTools))
	for _, name := range t.AvailableTools {
		known[name] = true
	}
	for _, name := range names {
		if !known[name] {
			t.AvailableTools = append(t.AvailableTools, name)
			known[name] = true
		}
	}
}

// Connection is the persisted backend connection: URL, connectivity flag
// and the last health payload. The three fields live under three
// independent keys, so each can survive a failed write of the others.
type Connection struct {
	URL       string         `json:"url"`
	Connected bool           `json:"connected"`
	Data      map[string]any `json:"data,omitempty"`
}

// Store reads and writes the configuration records.
type Store struct {
	kv     storage.Store
	logger *slog.Logger
}

// NewStore returns a configuration store over the key-value backend.
func NewStore(kv storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// LoadModel returns the persisted model record, or the default when none
// (or an unreadable one) is stored.
func (s *Store) LoadModel() ModelConfig {
	cfg := DefaultModelConfig()
	if _, err := s.kv.Get(modelConfigKey, &cfg); err != nil {
		s.logger.Warn("failed to load model config", "error", err)
		return DefaultModelConfig()
	}
	return cfg
}

// SaveModel overwrites the model record.
func (s *Store) SaveModel(cfg ModelConfig) error {
	return s.kv.Set(modelConfigKey, cfg)
}

// LoadKnowledge returns the persisted knowledge record or the default.
func (s *Store) LoadKnowledge() KnowledgeConfig {
	cfg := DefaultKnowledgeConfig()
	if _, err := s.kv.Get(knowledgeConfigKey, &cfg); err != nil {
		s.logger.Warn("failed to load knowledge config", "error", err)
		return DefaultKnowledgeConfig()
	}
	return cfg
}

// SaveKnowledge overwrites the knowledge record.
func (s *Store) SaveKnowledge(cfg KnowledgeConfig) error {
	return s.kv.Set(knowledgeConfigKey, cfg)
}

// LoadTools returns the persisted tools record or the default.
func (s *Store) LoadTools() ToolsConfig {
	cfg := DefaultToolsConfig()
	if _, err := s.kv.Get(toolsConfigKey, &cfg); err != nil {
		s.logger.Warn("failed to load tools config", "error", err)
		return DefaultToolsConfig()
	}
	return cfg
}

// SaveTools overwrites the tools record.
func (s *Store) SaveTools(cfg ToolsConfig) error {
	return s.kv.Set(toolsConfigKey, cfg)
}

// LoadConnection assembles the backend connection from its three keys.
func (s *Store) LoadConnection() Connection {
	var conn Connection
	if _, err := s.kv.Get(connectionURLKey, &conn.URL); err != nil {
		s.logger.Warn("failed to load connection url", "error", err)
	}
	if _, err := s.kv.Get(connectedKey, &conn.Connected); err != nil {
		s.logger.Warn("failed to load connection flag", "error", err)
	}
	if _, err := s.kv.Get(connectionDataKey, &conn.Data); err != nil {
		s.logger.Warn("failed to load connection data", "error", err)
	}
	return conn
}

// SaveConnection writes the three connection keys. Keys are independent:
// a failed write of one does not roll back the others.
func (s *Store) SaveConnection(conn Connection) error {
	if err := s.kv.Set(connectionURLKey, conn.URL); err != nil {
		return err
	}
	if err := s.kv.Set(connectedKey, conn.Connected); err != nil {
		return err
	}
	return s.kv.Set(connectionDataKey, conn.Data)
}
