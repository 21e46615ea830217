package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/store"
)

// RunsReport renders archived solve runs, newest first, matching the order
// the archive returns them in.
type RunsReport struct {
	runs []store.Run
}

// NewRunsReport creates a report over archived runs.
func NewRunsReport(runs []store.Run) *RunsReport {
	return &RunsReport{runs: runs}
}

func (r *RunsReport) Generate() (io.Reader, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"id", "method", "strategy", "status", "objective", "growth_rate", "phenotype", "model_id", "reactions", "metabolites", "duration_ms", "created_at"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, run := range r.runs {
		row := []string{
			strconv.FormatInt(run.ID, 10),
			run.Method,
			run.Strategy,
			run.Status,
			formatFloat(run.Objective),
			formatFloat(run.GrowthRate),
			run.Phenotype,
			run.ModelID,
			strconv.Itoa(run.Reactions),
			strconv.Itoa(run.Metabolites),
			strconv.FormatInt(run.DurationMS, 10),
			run.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row for run %d: %w", run.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf, nil
}
