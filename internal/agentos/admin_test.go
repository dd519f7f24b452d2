package agentos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWorkflowLifecycle(t *testing.T) {
	var gotStatus string
	var deleted string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/workflows/":
			json.NewEncoder(w).Encode(map[string]any{
				"workflows": []map[string]string{{"id": "w1", "name": "Daily digest", "status": "active"}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/workflows/templates":
			json.NewEncoder(w).Encode(map[string]any{
				"templates": []map[string]string{{"name": "digest", "description": "Summarize feeds"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/workflows/create":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/workflows/w1/status":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			gotStatus = body["status"]
		case r.Method == http.MethodDelete && r.URL.Path == "/workflows/w1":
			deleted = "w1"
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	ctx := context.Background()

	workflows, err := client.Workflows(ctx)
	if err != nil {
		t.Fatalf("Workflows: %v", err)
	}
	if len(workflows) != 1 || workflows[0].Name != "Daily digest" {
		t.Errorf("got %+v", workflows)
	}

	templates, err := client.WorkflowTemplates(ctx)
	if err != nil {
		t.Fatalf("WorkflowTemplates: %v", err)
	}
	if len(templates) != 1 || templates[0].Name != "digest" {
		t.Errorf("got %+v", templates)
	}

	if err := client.CreateWorkflow(ctx, Workflow{Name: "new"}); err != nil {
		t.Fatalf("CreateWorkflow: %v", err)
	}
	if err := client.SetWorkflowStatus(ctx, "w1", "paused"); err != nil {
		t.Fatalf("SetWorkflowStatus: %v", err)
	}
	if gotStatus != "paused" {
		t.Errorf("got status %q", gotStatus)
	}
	if err := client.DeleteWorkflow(ctx, "w1"); err != nil {
		t.Fatalf("DeleteWorkflow: %v", err)
	}
	if deleted != "w1" {
		t.Error("delete never reached the backend")
	}
}

func TestDynamicAgents(t *testing.T) {
	var created, fromTemplate AgentSpec
	var cloned map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/dynamic/available-models":
			json.NewEncoder(w).Encode(map[string]any{"models": []string{"gpt-5", "claude"}})
		case r.URL.Path == "/dynamic/agent-templates":
			json.NewEncoder(w).Encode(map[string]any{
				"templates": []map[string]string{{"name": "researcher", "description": "Digs deep"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/dynamic/create-agent":
			json.NewDecoder(r.Body).Decode(&created)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && r.URL.Path == "/dynamic/create-from-template":
			json.NewDecoder(r.Body).Decode(&fromTemplate)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && r.URL.Path == "/agents/a1/clone":
			json.NewDecoder(r.Body).Decode(&cloned)
		case r.Method == http.MethodDelete && r.URL.Path == "/agents/a1":
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	ctx := context.Background()

	models, err := client.AvailableModels(ctx)
	if err != nil {
		t.Fatalf("AvailableModels: %v", err)
	}
	if len(models) != 2 || models[0] != "gpt-5" {
		t.Errorf("got %v", models)
	}

	templates, err := client.AgentTemplates(ctx)
	if err != nil {
		t.Fatalf("AgentTemplates: %v", err)
	}
	if len(templates) != 1 || templates[0].Name != "researcher" {
		t.Errorf("got %+v", templates)
	}

	spec := AgentSpec{Name: "helper", Model: "gpt-5", Tools: []string{"web_search"}}
	if err := client.CreateAgent(ctx, spec); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if created.Name != "helper" || len(created.Tools) != 1 {
		t.Errorf("backend saw %+v", created)
	}

	if err := client.CreateAgentFromTemplate(ctx, AgentSpec{Template: "researcher", Name: "fresh"}); err != nil {
		t.Fatalf("CreateAgentFromTemplate: %v", err)
	}
	if fromTemplate.Template != "researcher" || fromTemplate.Name != "fresh" {
		t.Errorf("backend saw %+v", fromTemplate)
	}

	if err := client.CloneAgent(ctx, "a1", "copy"); err != nil {
		t.Fatalf("CloneAgent: %v", err)
	}
	if cloned["name"] != "copy" {
		t.Errorf("backend saw %v", cloned)
	}

	if err := client.DeleteAgent(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAgent: %v", err)
	}
}
