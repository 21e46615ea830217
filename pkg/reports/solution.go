package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
)

// FluxReport renders a solution's flux distribution, one reaction per row,
// sorted by reaction id for stable diffs.
type FluxReport struct {
	solution analysis.Solution
}

// NewFluxReport creates a flux distribution report for a solution.
func NewFluxReport(sol analysis.Solution) *FluxReport {
	return &FluxReport{solution: sol}
}

func (r *FluxReport) Generate() (io.Reader, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"reaction", "flux"}); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, id := range sortedKeys(r.solution.Fluxes) {
		row := []string{id, formatFloat(r.solution.Fluxes[id])}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", id, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf, nil
}

// RangeReport renders flux variability ranges, one reaction per row.
type RangeReport struct {
	solution analysis.Solution
}

// NewRangeReport creates a variability-range report for an FVA solution.
func NewRangeReport(sol analysis.Solution) *RangeReport {
	return &RangeReport{solution: sol}
}

func (r *RangeReport) Generate() (io.Reader, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"reaction", "min", "max"}); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	ids := make([]string, 0, len(r.solution.Ranges))
	for id := range r.solution.Ranges {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rng := r.solution.Ranges[id]
		row := []string{id, formatFloat(rng.Min), formatFloat(rng.Max)}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", id, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
