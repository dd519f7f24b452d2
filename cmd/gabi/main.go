package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gabi/internal/app"
	"gabi/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var toolServers string
	flag.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "AgentOS backend URL")
	flag.StringVar(&cfg.SessionID, "session-id", cfg.SessionID, "Open an existing session by ID")
	flag.StringVar(&cfg.Storage, "storage", cfg.Storage, "State store backend (file|sqlite)")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for persisted state")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Backend request timeout")
	flag.StringVar(&toolServers, "tool-servers", "", "Comma-separated URLs of MCP tool servers")
	flag.Parse()

	if toolServers != "" {
		cfg.ToolServers = strings.Split(toolServers, ",")
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a.Connect(ctx)
	cancel()

	if err := a.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
