package client

import (
	"time"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// SolveRequest is the body every /solve/<method> endpoint accepts.
type SolveRequest struct {
	Model   *model.Model     `json:"model"`
	Options analysis.Options `json:"options"`
}

// Status is the daemon health response.
type Status struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Run is one archived solve, as served by /v1/runs.
type Run struct {
	ID          int64     `json:"id"`
	Method      string    `json:"method"`
	Strategy    string    `json:"strategy"`
	Status      string    `json:"status"`
	Objective   float64   `json:"objective"`
	GrowthRate  float64   `json:"growth_rate"`
	Phenotype   string    `json:"phenotype"`
	ModelID     string    `json:"model_id"`
	Reactions   int       `json:"reactions"`
	Metabolites int       `json:"metabolites"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
