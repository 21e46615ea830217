// Package screen runs gene deletion screens: every candidate gene is knocked
// out in turn and the mutant's growth is compared against the wild type to
// classify essentiality.
package screen

import (
	"time"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/lp"
)

const (
	// DefaultWorkers bounds concurrent knockout solves.
	DefaultWorkers = 4
	// DefaultEssentialFraction: a gene is essential when its knockout grows
	// at less than this fraction of the wild type.
	DefaultEssentialFraction = 0.05
)

// Screen configures one gene deletion screen.
type Screen struct {
	// Method is the per-knockout analysis, typically FBA or MOMA. MOMA
	// screens use the wild-type distribution as the reference.
	Method analysis.Method `json:"method"`
	// Genes to knock out, one at a time. Empty means every declared gene.
	Genes []string `json:"genes,omitempty"`
	// Options applies to every knockout solve. Its Knockouts field is the
	// screen's baseline: genes already listed there stay knocked out in
	// the wild type and every mutant.
	Options analysis.Options `json:"options"`
	// Workers bounds concurrency. Zero means DefaultWorkers.
	Workers int `json:"workers,omitempty"`
	// EssentialFraction overrides DefaultEssentialFraction when positive.
	EssentialFraction float64 `json:"essential_fraction,omitempty"`
}

// GeneResult is the outcome of one single-gene knockout.
type GeneResult struct {
	Gene       string    `json:"gene"`
	Status     lp.Status `json:"status"`
	GrowthRate float64   `json:"growth_rate"`
	// GrowthRatio is knockout growth over wild-type growth, zero when the
	// wild type itself does not grow.
	GrowthRatio float64 `json:"growth_ratio"`
	Phenotype   string  `json:"phenotype"`
	Essential   bool    `json:"essential"`
	Err         string  `json:"error,omitempty"`
}

// Result aggregates a finished screen.
type Result struct {
	ModelID        string                `json:"model_id"`
	Method         string                `json:"method"`
	WildTypeGrowth float64               `json:"wild_type_growth"`
	Genes          map[string]GeneResult `json:"genes"`
	EssentialGenes []string              `json:"essential_genes"`
	ScreenedCount  int                   `json:"screened_count"`
	EssentialCount int                   `json:"essential_count"`
	ErrorCount     int                   `json:"error_count"`
	Elapsed        time.Duration         `json:"elapsed_ns"`
}
