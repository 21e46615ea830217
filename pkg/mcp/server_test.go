package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServer_ReadRuns(t *testing.T) {
	// 1. Mock API Server
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/runs" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id": 1, "method": "fba", "status": "optimal", "growth_rate": 10}]`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	// 2. Create MCP Server
	s := NewServer(ts.URL)

	// 3. Test Handler directly
	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: "fluxlord://runs",
		},
	}

	result, err := s.handleReadRuns(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadRuns failed: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}

	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}
	if content.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", content.MIMEType)
	}

	var runs []map[string]interface{}
	if err := json.Unmarshal([]byte(content.Text), &runs); err != nil {
		t.Errorf("Failed to parse result JSON: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run, got %d", len(runs))
	}
}

func TestMCPServer_SolveTool(t *testing.T) {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/solve/fba" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"method": "fba", "status": "optimal", "objective_value": 10, "growth_rate": 10, "phenotype": "viable"}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	s := NewServer(ts.URL)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "solve",
			Arguments: map[string]interface{}{
				"method": "fba",
				"model":  `{"id":"toy","reactions":[{"id":"BIOMASS","metabolites":{"C":-1},"upper_bound":10,"objective_coefficient":1}],"metabolites":[{"id":"C"}]}`,
			},
		},
	}

	result, err := s.handleSolve(context.Background(), req)
	if err != nil {
		t.Fatalf("handleSolve failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success result, got error: %+v", result)
	}

	if len(result.Content) == 0 {
		t.Fatalf("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content")
	}
	var sol map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &sol); err != nil {
		t.Fatalf("Failed to parse solution JSON: %v", err)
	}
	if sol["status"] != "optimal" {
		t.Errorf("Expected optimal status, got %v", sol["status"])
	}
}

func TestMCPServer_SolveToolUnknownMethod(t *testing.T) {
	s := NewServer("http://127.0.0.1:1") // never reached

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "solve",
			Arguments: map[string]interface{}{
				"method": "quantum",
				"model":  `{}`,
			},
		},
	}

	result, err := s.handleSolve(context.Background(), req)
	if err != nil {
		t.Fatalf("handleSolve failed: %v", err)
	}
	if !result.IsError {
		t.Fatalf("Expected error result for unknown method")
	}
}
