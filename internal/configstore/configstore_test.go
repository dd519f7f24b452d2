package configstore

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"gabi/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := storage.NewFileStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewStore(kv, nil)
}

func TestLoadModelDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg := s.LoadModel()
	want := ModelConfig{Provider: "openai", Model: "gpt-5", Temperature: 0.7, MaxTokens: 4000}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestModelRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := ModelConfig{Provider: "anthropic", Model: "claude", Temperature: 0.2, MaxTokens: 1000}
	if err := s.SaveModel(in); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	if got := s.LoadModel(); got != in {
		t.Errorf("got %+v, want %+v", got, in)
	}
}

func TestKnowledgeDefaultsAndRoundTrip(t *testing.T) {
	s := newTestStore(t)

	cfg := s.LoadKnowledge()
	if !cfg.RAGEnabled || cfg.MaxSources != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg.Sources = append(cfg.Sources, "docs")
	cfg.SourceTypes = append(cfg.SourceTypes, SourceType{ID: "s1", Type: "url", Name: "Docs", Connection: "https://docs.example"})
	if err := s.SaveKnowledge(cfg); err != nil {
		t.Fatalf("SaveKnowledge: %v", err)
	}

	got := s.LoadKnowledge()
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}

func TestToolsDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg := s.LoadTools()
	wantAvailable := []string{"web_search", "calculator", "file_reader", "code_executor"}
	wantEnabled := []string{"web_search", "calculator"}
	if !reflect.DeepEqual(cfg.AvailableTools, wantAvailable) {
		t.Errorf("available = %v", cfg.AvailableTools)
	}
	if !reflect.DeepEqual(cfg.EnabledTools, wantEnabled) {
		t.Errorf("enabled = %v", cfg.EnabledTools)
	}
}

func TestMergeAvailableSkipsDuplicates(t *testing.T) {
	cfg := DefaultToolsConfig()
	cfg.MergeAvailable([]string{"calculator", "summarizer", "summarizer", "web_search"})

	want := []string{"web_search", "calculator", "file_reader", "code_executor", "summarizer"}
	if !reflect.DeepEqual(cfg.AvailableTools, want) {
		t.Errorf("got %v, want %v", cfg.AvailableTools, want)
	}
}

func TestConnectionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := Connection{
		URL:       "http://localhost:7777",
		Connected: true,
		Data:      map[string]any{"status": "ok", "version": "1.2.0"},
	}
	if err := s.SaveConnection(in); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}

	got := s.LoadConnection()
	if got.URL != in.URL || got.Connected != in.Connected {
		t.Errorf("got %+v, want %+v", got, in)
	}
	if got.Data["status"] != "ok" {
		t.Errorf("data = %v", got.Data)
	}
}
