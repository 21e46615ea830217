// Package mcp adapts fluxlord-d to the Model Context Protocol so agents
// can run flux analyses and inspect the run archive over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/client"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Server adapts fluxlord-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance talking to the daemon at
// apiURL.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"fluxlord",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// fluxlord://runs
	s.mcpServer.AddResource(mcp.NewResource(
		"fluxlord://runs",
		"Fluxlord Run Archive",
		mcp.WithResourceDescription("Recent solve runs: method, status, objective, phenotype"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadRuns)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"solve",
		mcp.WithDescription("Run a flux analysis (fba, pfba, fva, moma, eflux, gimme, imat, made) on a metabolic model. Returns the solution as JSON."),
		mcp.WithString("method", mcp.Required(), mcp.Description("Analysis method name, e.g. 'fba'")),
		mcp.WithString("model", mcp.Required(), mcp.Description("Metabolic model as a JSON document (reactions, metabolites, genes)")),
		mcp.WithString("options", mcp.Description("Method options as a JSON document (knockouts, constraints, expression, ...)")),
	), s.handleSolve)

	s.mcpServer.AddTool(mcp.NewTool(
		"model_info",
		mcp.WithDescription("Summarize a metabolic model: reaction/metabolite/gene counts, objective, compartments."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Metabolic model as a JSON document")),
	), s.handleModelInfo)
}

// --- Handlers ---

func (s *Server) handleReadRuns(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	runs, err := s.apiClient.Runs(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal runs: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	methodName := mcp.ParseString(request, "method", "")
	modelJSON := mcp.ParseString(request, "model", "")
	optionsJSON := mcp.ParseString(request, "options", "")

	method, err := analysis.ParseMethod(methodName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var m model.Model
	if err := json.Unmarshal([]byte(modelJSON), &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid model JSON: %v", err)), nil
	}
	var opts analysis.Options
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid options JSON: %v", err)), nil
		}
	}

	sol, err := s.apiClient.Solve(ctx, method, &m, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	data, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal solution: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleModelInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelJSON := mcp.ParseString(request, "model", "")

	var m model.Model
	if err := json.Unmarshal([]byte(modelJSON), &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid model JSON: %v", err)), nil
	}

	info, err := s.apiClient.ModelInfo(ctx, &m)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal info: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
