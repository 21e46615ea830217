// Package reports renders solve results and the run archive as CSV, the
// format downstream notebooks and spreadsheets ingest.
package reports

import (
	"io"
)

type ReportType string

const (
	ReportTypeFluxes ReportType = "fluxes"
	ReportTypeRanges ReportType = "ranges"
	ReportTypeRuns   ReportType = "runs"
)

// Generator renders one report into a reader.
type Generator interface {
	Generate() (io.Reader, error)
}
