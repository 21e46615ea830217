package api

import (
	"encoding/json"
	"net/http"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// SolveRequest is the body of every /solve/<method> endpoint. Exactly one
// of Model and ModelDigest must be set; a digest references a model
// previously uploaded to /models.
type SolveRequest struct {
	Model       *model.Model     `json:"model,omitempty"`
	ModelDigest string           `json:"model_digest,omitempty"`
	Options     analysis.Options `json:"options"`
}

// ModelUploadResponse acknowledges a /models upload.
type ModelUploadResponse struct {
	Digest string     `json:"digest"`
	Info   model.Info `json:"info"`
}

// RunsPruneResponse acknowledges a DELETE /v1/runs sweep.
type RunsPruneResponse struct {
	Pruned int64 `json:"pruned"`
}

// HealthResponse is the /health document.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
