package reports

import (
	"fmt"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
)

// ForSolution picks the report type matching what the solution carries:
// ranges for FVA results, the flux distribution otherwise.
func ForSolution(sol analysis.Solution) (Generator, error) {
	switch {
	case len(sol.Ranges) > 0:
		return NewRangeReport(sol), nil
	case sol.Fluxes != nil:
		return NewFluxReport(sol), nil
	default:
		return nil, fmt.Errorf("solution has no fluxes to report (status %s)", sol.Status)
	}
}
