package app

import (
	"context"
	"fmt"
	"strings"

	"gabi/internal/agentos"
	"gabi/internal/session"

	"github.com/fatih/color"
)

// handleCommand dispatches slash commands. It returns true when the
// loop should exit.
func (a *App) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new-chat":
		sess, err := a.chat.StartNew()
		if err != nil {
			return false, err
		}
		fmt.Println("Started new chat:", sess.ID)
		return false, nil

	case "/sessions":
		summaries := a.registry.List()
		if len(summaries) == 0 {
			fmt.Println("No sessions yet.")
			return false, nil
		}
		activeID, _ := a.registry.Active()
		fmt.Println("\nSessions:")
		for i, s := range summaries {
			marker := ""
			if s.ID == activeID {
				marker = " (active)"
			}
			fmt.Printf("%d. %s - %s [%s, %d messages]%s\n", i+1, s.ID, s.Title, s.Mode, s.MessageCount, marker)
		}
		fmt.Println()
		return false, nil

	case "/open":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /open <session-id>")
		}
		if err := a.registry.SetActive(parts[1]); err != nil {
			return false, err
		}
		fmt.Println("Opened session:", parts[1])
		return false, nil

	case "/rename":
		if len(parts) < 3 {
			return false, fmt.Errorf("usage: /rename <session-id> <title>")
		}
		if err := a.registry.Rename(parts[1], strings.Join(parts[2:], " ")); err != nil {
			return false, err
		}
		fmt.Println("Renamed session:", parts[1])
		return false, nil

	case "/delete":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /delete <session-id>")
		}
		if err := a.registry.Delete(parts[1]); err != nil {
			return false, err
		}
		fmt.Println("Deleted session:", parts[1])
		return false, nil

	case "/clear":
		if err := a.chat.ClearCurrent(); err != nil {
			return false, err
		}
		fmt.Println("Cleared current chat.")
		return false, nil

	case "/save-chat":
		id, ok := a.registry.Active()
		if !ok {
			return false, fmt.Errorf("no active session to save")
		}
		snap, err := a.registry.SaveSnapshot(id)
		if err != nil {
			return false, err
		}
		fmt.Printf("Saved chat %s (%d messages)\n", snap.ID, snap.MessageCount)
		return false, nil

	case "/saved":
		snaps := a.registry.Snapshots()
		if len(snaps) == 0 {
			fmt.Println("No saved chats.")
			return false, nil
		}
		fmt.Println("\nSaved chats:")
		for i, s := range snaps {
			fmt.Printf("%d. %s - %s [%s, %d messages]\n", i+1, s.ID, s.Title, s.Mode, s.MessageCount)
		}
		fmt.Println()
		return false, nil

	case "/load-chat":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /load-chat <chat-id>")
		}
		sess, err := a.registry.LoadSnapshot(parts[1])
		if err != nil {
			return false, err
		}
		fmt.Printf("Loaded chat %s (%d messages)\n", sess.ID, len(sess.Messages))
		return false, nil

	case "/rename-chat":
		if len(parts) < 3 {
			return false, fmt.Errorf("usage: /rename-chat <chat-id> <title>")
		}
		if err := a.registry.RenameSnapshot(parts[1], strings.Join(parts[2:], " ")); err != nil {
			return false, err
		}
		fmt.Println("Renamed saved chat:", parts[1])
		return false, nil

	case "/delete-chat":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /delete-chat <chat-id>")
		}
		if err := a.registry.DeleteSnapshot(parts[1]); err != nil {
			return false, err
		}
		fmt.Println("Deleted saved chat:", parts[1])
		return false, nil

	case "/mode":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /mode <agent|team>")
		}
		switch parts[1] {
		case string(session.ModeAgent):
			a.chat.SetMode(session.ModeAgent)
		case string(session.ModeTeam):
			a.chat.SetMode(session.ModeTeam)
		default:
			return false, fmt.Errorf("unknown mode: %s", parts[1])
		}
		fmt.Println("Mode:", parts[1])
		return false, nil

	case "/agents":
		return false, a.listEntities(ctx, session.ModeAgent)

	case "/teams":
		return false, a.listEntities(ctx, session.ModeTeam)

	case "/select":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /select <entity-id>")
		}
		if a.selector.Mode() == session.ModeTeam {
			a.chat.SelectTeam(parts[1])
		} else {
			a.chat.SelectAgent(parts[1])
		}
		if ref, ok := a.selector.EntityRef(); ok {
			fmt.Println("Selected:", ref)
		} else {
			fmt.Println("Selection cleared.")
		}
		return false, nil

	case "/health":
		info, err := a.chat.CheckBackend(ctx)
		if err != nil {
			return false, err
		}
		fmt.Printf("Status: %s, version: %s, agents: %d, sessions: %d\n",
			info.Status, info.Version, info.AgentsCount, info.SessionsCount)
		return false, nil

	case "/tools":
		return false, a.listTools(ctx)

	case "/workflows":
		workflows, err := a.client.Workflows(ctx)
		if err != nil {
			return false, err
		}
		if len(workflows) == 0 {
			fmt.Println("No workflows.")
			return false, nil
		}
		fmt.Println("\nWorkflows:")
		for i, w := range workflows {
			fmt.Printf("%d. %s - %s [%s]\n", i+1, w.ID, w.Name, w.Status)
		}
		fmt.Println()
		return false, nil

	case "/workflow-templates":
		templates, err := a.client.WorkflowTemplates(ctx)
		if err != nil {
			return false, err
		}
		fmt.Println("\nWorkflow templates:")
		for i, t := range templates {
			fmt.Printf("%d. %s - %s\n", i+1, t.Name, t.Description)
		}
		fmt.Println()
		return false, nil

	case "/workflow-status":
		if len(parts) < 3 {
			return false, fmt.Errorf("usage: /workflow-status <workflow-id> <status>")
		}
		if err := a.client.SetWorkflowStatus(ctx, parts[1], parts[2]); err != nil {
			return false, err
		}
		fmt.Printf("Workflow %s set to %s\n", parts[1], parts[2])
		return false, nil

	case "/workflow-delete":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /workflow-delete <workflow-id>")
		}
		if err := a.client.DeleteWorkflow(ctx, parts[1]); err != nil {
			return false, err
		}
		fmt.Println("Deleted workflow:", parts[1])
		return false, nil

	case "/models":
		models, err := a.client.AvailableModels(ctx)
		if err != nil {
			return false, err
		}
		fmt.Println("\nAvailable models:")
		for i, m := range models {
			fmt.Printf("%d. %s\n", i+1, m)
		}
		fmt.Println()
		return false, nil

	case "/agent-templates":
		templates, err := a.client.AgentTemplates(ctx)
		if err != nil {
			return false, err
		}
		fmt.Println("\nAgent templates:")
		for i, t := range templates {
			fmt.Printf("%d. %s - %s\n", i+1, t.Name, t.Description)
		}
		fmt.Println()
		return false, nil

	case "/create-agent":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /create-agent <name> [model]")
		}
		spec := agentos.AgentSpec{Name: parts[1], Model: a.configs.LoadModel().Model}
		if len(parts) > 2 {
			spec.Model = parts[2]
		}
		if err := a.client.CreateAgent(ctx, spec); err != nil {
			return false, err
		}
		a.catalog.Invalidate(string(session.ModeAgent))
		fmt.Println("Created agent:", parts[1])
		return false, nil

	case "/create-from-template":
		if len(parts) < 3 {
			return false, fmt.Errorf("usage: /create-from-template <template> <name>")
		}
		spec := agentos.AgentSpec{Template: parts[1], Name: parts[2]}
		if err := a.client.CreateAgentFromTemplate(ctx, spec); err != nil {
			return false, err
		}
		a.catalog.Invalidate(string(session.ModeAgent))
		fmt.Printf("Created agent %s from template %s\n", parts[2], parts[1])
		return false, nil

	case "/clone-agent":
		if len(parts) < 3 {
			return false, fmt.Errorf("usage: /clone-agent <agent-id> <name>")
		}
		if err := a.client.CloneAgent(ctx, parts[1], parts[2]); err != nil {
			return false, err
		}
		a.catalog.Invalidate(string(session.ModeAgent))
		fmt.Printf("Cloned agent %s as %s\n", parts[1], parts[2])
		return false, nil

	case "/delete-agent":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /delete-agent <agent-id>")
		}
		if err := a.client.DeleteAgent(ctx, parts[1]); err != nil {
			return false, err
		}
		a.catalog.Invalidate(string(session.ModeAgent))
		fmt.Println("Deleted agent:", parts[1])
		return false, nil

	case "/config":
		a.printConfig()
		return false, nil

	case "/set-model":
		if len(parts) < 3 {
			return false, fmt.Errorf("usage: /set-model <provider> <model>")
		}
		model := a.configs.LoadModel()
		model.Provider = parts[1]
		model.Model = parts[2]
		if err := a.configs.SaveModel(model); err != nil {
			return false, err
		}
		fmt.Printf("Model set to %s/%s\n", model.Provider, model.Model)
		return false, nil

	case "/help":
		printHelp()
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (try /help)", parts[0])
	}
}

func (a *App) listEntities(ctx context.Context, mode session.Mode) error {
	entities, ok := a.catalog.Get(string(mode))
	if !ok {
		var err error
		if mode == session.ModeTeam {
			entities, err = a.client.Teams(ctx)
		} else {
			entities, err = a.client.Agents(ctx)
		}
		if err != nil {
			return err
		}
		a.catalog.Put(string(mode), entities)
	}
	if len(entities) == 0 {
		fmt.Printf("No %ss available.\n", mode)
		return nil
	}

	selected, _ := a.selector.EntityRef()
	fmt.Printf("\nAvailable %ss:\n", mode)
	for i, e := range entities {
		marker := ""
		if e.ID == selected {
			marker = " (selected)"
		}
		fmt.Printf("%d. %s - %s%s\n", i+1, e.ID, e.Name, marker)
		if e.Description != "" {
			fmt.Printf("   %s\n", e.Description)
		}
	}
	fmt.Println()
	return nil
}

func (a *App) listTools(ctx context.Context) error {
	tools, err := a.client.MCPTools(ctx)
	if err != nil {
		color.Yellow("Backend tools unavailable: %v", err)
	} else if len(tools) > 0 {
		fmt.Println("\nBackend tools:")
		for i, t := range tools {
			fmt.Printf("%d. %s - %s\n", i+1, t.Name, t.Description)
		}
	}

	if len(a.mcpTools) > 0 {
		fmt.Println("\nTool server tools:")
		for i, t := range a.mcpTools {
			fmt.Printf("%d. %s (%s)\n", i+1, t.Name, t.SourceName)
		}
	}

	cfg := a.configs.LoadTools()
	fmt.Printf("\nEnabled: %s\n\n", strings.Join(cfg.EnabledTools, ", "))
	return nil
}

func (a *App) printConfig() {
	model := a.configs.LoadModel()
	knowledge := a.configs.LoadKnowledge()
	tools := a.configs.LoadTools()
	conn := a.configs.LoadConnection()

	fmt.Println("\nModel:")
	fmt.Printf("  provider: %s, model: %s, temperature: %.1f, max tokens: %d\n",
		model.Provider, model.Model, model.Temperature, model.MaxTokens)
	fmt.Println("Knowledge:")
	fmt.Printf("  rag enabled: %v, max sources: %d, sources: %d\n",
		knowledge.RAGEnabled, knowledge.MaxSources, len(knowledge.Sources))
	fmt.Println("Tools:")
	fmt.Printf("  available: %s\n", strings.Join(tools.AvailableTools, ", "))
	fmt.Printf("  enabled: %s\n", strings.Join(tools.EnabledTools, ", "))
	fmt.Println("Connection:")
	fmt.Printf("  url: %s, connected: %v\n\n", conn.URL, conn.Connected)
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  /quit, /exit                        - Exit")
	fmt.Println("  /new-chat                           - Start a new chat session")
	fmt.Println("  /sessions                           - List sessions")
	fmt.Println("  /open <id>                          - Switch to a session")
	fmt.Println("  /rename <id> <title>                - Rename a session")
	fmt.Println("  /delete <id>                        - Delete a session")
	fmt.Println("  /clear                              - Clear the current chat")
	fmt.Println("  /save-chat                          - Save the current chat")
	fmt.Println("  /saved                              - List saved chats")
	fmt.Println("  /load-chat <id>                     - Restore a saved chat")
	fmt.Println("  /rename-chat <id> <title>           - Rename a saved chat")
	fmt.Println("  /delete-chat <id>                   - Delete a saved chat")
	fmt.Println("  /mode <agent|team>                  - Switch conversation mode")
	fmt.Println("  /agents, /teams                     - List available entities")
	fmt.Println("  /select <id>                        - Select (or deselect) an entity")
	fmt.Println("  /health                             - Probe the backend")
	fmt.Println("  /tools                              - List available tools")
	fmt.Println("  /workflows                          - List workflows")
	fmt.Println("  /workflow-templates                 - List workflow templates")
	fmt.Println("  /workflow-status <id> <status>      - Update a workflow")
	fmt.Println("  /workflow-delete <id>               - Delete a workflow")
	fmt.Println("  /models                             - List models for new agents")
	fmt.Println("  /agent-templates                    - List agent templates")
	fmt.Println("  /create-agent <name> [model]        - Create a dynamic agent")
	fmt.Println("  /create-from-template <tpl> <name>  - Create an agent from a template")
	fmt.Println("  /clone-agent <id> <name>            - Clone an agent")
	fmt.Println("  /delete-agent <id>                  - Delete a dynamic agent")
	fmt.Println("  /config                             - Show stored configuration")
	fmt.Println("  /set-model <provider> <model>       - Change the model config")
	fmt.Println("  /help                               - Show this help message")
}
