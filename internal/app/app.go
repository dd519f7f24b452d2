// Package app assembles the stores, the backend client and the chat
// coordinator into the interactive terminal application.
package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gabi/internal/agentos"
	"gabi/internal/cache"
	"gabi/internal/chat"
	"gabi/internal/config"
	"gabi/internal/configstore"
	"gabi/internal/mcp"
	"gabi/internal/selection"
	"gabi/internal/session"
	"gabi/internal/storage"
	"gabi/internal/telemetry"

	"github.com/fatih/color"
)

// App owns every long-lived component of the terminal client.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store    storage.Store
	registry *session.Registry
	selector *selection.Selector
	configs  *configstore.Store
	client   *agentos.Client
	chat     *chat.Chat

	sources  *mcp.Registry
	mcpTools []mcp.Tool
	catalog  *cache.TTL[[]agentos.Entity]

	cleanup func()
	closers []func() error
}

// New builds the application from configuration. Telemetry failures are
// fatal; a missing backend is not, the client keeps working offline.
func New(cfg *config.Config) (*App, error) {
	logger, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()
	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		cleanup: cleanup,
		catalog: cache.New[[]agentos.Entity](30 * time.Second),
	}

	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := storage.NewSQLiteStore(filepath.Join(cfg.DataDir, "gabi.db"), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		a.store = db
		a.closers = append(a.closers, db.Close)
	default:
		fs, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "state"), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open state directory: %w", err)
		}
		a.store = fs
	}

	a.registry = session.NewRegistry(a.store, logger)
	a.selector = selection.NewSelector(a.store, logger)
	a.configs = configstore.NewStore(a.store, logger)

	client, err := agentos.NewClient(cfg.Endpoint, cfg.Timeout, logger, tracer, meter)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	a.client = client

	a.chat = chat.New(a.registry, a.selector, a.client, a.configs, logger)

	if cfg.SessionID != "" {
		if err := a.registry.SetActive(cfg.SessionID); err != nil {
			logger.Warn("requested session not found, keeping last active", "session_id", cfg.SessionID)
		}
	}

	a.sources = mcp.NewRegistry()
	a.connectToolServers(ctx)

	return a, nil
}

// connectToolServers dials each configured MCP server. Failures are
// logged and skipped so one dead server does not block startup.
func (a *App) connectToolServers(ctx context.Context) {
	for _, url := range a.cfg.ToolServers {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		src, err := mcp.Connect(url, a.logger)
		if err != nil {
			a.logger.Warn("failed to create tool source", "url", url, "error", err)
			continue
		}
		if err := src.Initialize(ctx); err != nil {
			a.logger.Warn("failed to initialize tool source", "url", url, "error", err)
			src.Close()
			continue
		}
		a.sources.Register(url, src)
		a.logger.Info("registered tool source", "url", url)
	}

	a.mcpTools = a.sources.Discover(ctx, a.logger)
	if len(a.mcpTools) > 0 {
		tools := a.configs.LoadTools()
		tools.MergeAvailable(mcp.ToolNames(a.mcpTools))
		if err := a.configs.SaveTools(tools); err != nil {
			a.logger.Warn("failed to persist tools config", "error", err)
		}
	}
}

// Connect probes the backend and records the connection state. The app
// stays usable when the backend is down.
func (a *App) Connect(ctx context.Context) {
	info, err := a.chat.CheckBackend(ctx)
	if err != nil {
		color.Yellow("Backend unreachable at %s (%v)", a.client.Endpoint(), err)
		return
	}
	color.Green("Connected to AgentOS at %s (status: %s, agents: %d)",
		a.client.Endpoint(), info.Status, info.AgentsCount)
}

// Run drives the interactive loop until /quit or EOF.
func (a *App) Run() error {
	color.Cyan("=== Gabi ===")
	fmt.Printf("Mode: %s\n", a.selector.Mode())
	if ref, ok := a.selector.EntityRef(); ok {
		fmt.Printf("Selected: %s\n", ref)
	}
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := a.handleCommand(ctx, input)
			if err != nil {
				color.Red("Error: %v", err)
				a.logger.Error("command error", "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		reply, err := a.chat.Send(ctx, input)
		if err != nil {
			color.Red("Error: %v", err)
			a.logger.Error("failed to send message", "error", err)
			continue
		}

		speaker := reply.SpeakerRef
		if speaker == "" {
			speaker = "agent"
		}
		color.Green("%s: %s\n", speaker, reply.Content)
	}

	fmt.Println("Goodbye!")
	return nil
}

// Close shuts down tool sources, the state store and telemetry.
func (a *App) Close() {
	if err := a.sources.Close(); err != nil {
		a.logger.Warn("failed to close tool sources", "error", err)
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("failed to close store", "error", err)
		}
	}
	if a.cleanup != nil {
		a.cleanup()
	}
}
