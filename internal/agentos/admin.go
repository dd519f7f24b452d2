package agentos

import (
	"context"
	"net/http"
	"net/url"
)

// Workflow is one orchestration workflow registered on the backend.
type Workflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Template    string `json:"template,omitempty"`
}

type workflowsResponse struct {
	Workflows []Workflow `json:"workflows"`
}

// Workflows lists registered workflows.
func (c *Client) Workflows(ctx context.Context) ([]Workflow, error) {
	ctx, span := c.tracer.Start(ctx, "backend_list_workflows")
	defer span.End()

	var resp workflowsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/workflows/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Workflows, nil
}

// WorkflowTemplates lists the workflow templates offered by the backend.
func (c *Client) WorkflowTemplates(ctx context.Context) ([]Workflow, error) {
	ctx, span := c.tracer.Start(ctx, "backend_workflow_templates")
	defer span.End()

	var resp struct {
		Templates []Workflow `json:"templates"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/workflows/templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// CreateWorkflow registers a new workflow. Only success or failure
// matters to the caller.
func (c *Client) CreateWorkflow(ctx context.Context, w Workflow) error {
	ctx, span := c.tracer.Start(ctx, "backend_create_workflow")
	defer span.End()

	return c.doJSON(ctx, http.MethodPost, "/workflows/create", w, nil)
}

// SetWorkflowStatus updates one workflow's status.
func (c *Client) SetWorkflowStatus(ctx context.Context, workflowID, status string) error {
	ctx, span := c.tracer.Start(ctx, "backend_set_workflow_status")
	defer span.End()

	body := map[string]string{"status": status}
	return c.doJSON(ctx, http.MethodPut, "/workflows/"+url.PathEscape(workflowID)+"/status", body, nil)
}

// DeleteWorkflow removes a workflow.
func (c *Client) DeleteWorkflow(ctx context.Context, workflowID string) error {
	ctx, span := c.tracer.Start(ctx, "backend_delete_workflow")
	defer span.End()

	return c.doJSON(ctx, http.MethodDelete, "/workflows/"+url.PathEscape(workflowID), nil, nil)
}

// AgentSpec is the payload for creating an agent dynamically.
type AgentSpec struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Model        string   `json:"model,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Tools        []string `json:"tools,omitempty"`
	Template     string   `json:"template,omitempty"`
}

// AvailableModels lists the models agents can be created with.
func (c *Client) AvailableModels(ctx context.Context) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "backend_available_models")
	defer span.End()

	var resp struct {
		Models []string `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/dynamic/available-models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// AgentTemplates lists the agent templates offered by the backend.
func (c *Client) AgentTemplates(ctx context.Context) ([]AgentSpec, error) {
	ctx, span := c.tracer.Start(ctx, "backend_agent_templates")
	defer span.End()

	var resp struct {
		Templates []AgentSpec `json:"templates"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/dynamic/agent-templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// CreateAgent registers a new agent from a full specification.
func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) error {
	ctx, span := c.tracer.Start(ctx, "backend_create_agent")
	defer span.End()

	return c.doJSON(ctx, http.MethodPost, "/dynamic/create-agent", spec, nil)
}

// CreateAgentFromTemplate registers a new agent based on a template name.
func (c *Client) CreateAgentFromTemplate(ctx context.Context, spec AgentSpec) error {
	ctx, span := c.tracer.Start(ctx, "backend_create_agent_from_template")
	defer span.End()

	return c.doJSON(ctx, http.MethodPost, "/dynamic/create-from-template", spec, nil)
}

// CloneAgent duplicates an existing agent under a new name.
func (c *Client) CloneAgent(ctx context.Context, agentID, name string) error {
	ctx, span := c.tracer.Start(ctx, "backend_clone_agent")
	defer span.End()

	body := map[string]string{"name": name}
	return c.doJSON(ctx, http.MethodPost, "/agents/"+url.PathEscape(agentID)+"/clone", body, nil)
}

// DeleteAgent removes an agent from the backend.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	ctx, span := c.tracer.Start(ctx, "backend_delete_agent")
	defer span.End()

	return c.doJSON(ctx, http.MethodDelete, "/agents/"+url.PathEscape(agentID), nil, nil)
}
