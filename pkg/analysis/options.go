package analysis

import (
	"time"

	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Defaults for the algorithm knobs. Values follow the published method
// descriptions; all are overridable per request.
const (
	DefaultFractionOfOptimum   = 0.9
	DefaultGimmeThreshold      = 0.25
	DefaultRequiredFraction    = 0.9
	DefaultHighThreshold       = 0.75
	DefaultLowThreshold        = 0.25
	DefaultImatEpsilon         = 1e-3
	DefaultOptimalityTolerance = 1e-6
)

// Options is the recognized per-request configuration surface. Fields are
// method-specific where noted; unrelated fields are ignored by a method.
// The JSON tags define the solve-service wire format.
type Options struct {
	// Overrides replaces reaction bounds for environmental conditions.
	Overrides model.Overrides `json:"constraints,omitempty"`
	// Knockouts lists deactivated gene ids (discrete GPR evaluation).
	Knockouts []string `json:"knockouts,omitempty"`
	// Objective optionally names the objective reaction, overriding the
	// model's declared coefficients.
	Objective string `json:"objective,omitempty"`

	// Expression maps gene id to a [0,1]-normalized level (E-Flux, GIMME,
	// iMAT; MADE control condition when Control is unset).
	Expression map[string]float64 `json:"expression,omitempty"`

	// FVA.
	FractionOfOptimum float64  `json:"fraction_of_optimum,omitempty"`
	Reactions         []string `json:"reactions,omitempty"`

	// MOMA. Nil means "use the wild-type optimum as reference".
	ReferenceFluxes map[string]float64 `json:"reference_fluxes,omitempty"`

	// GIMME.
	Threshold        float64 `json:"threshold,omitempty"`
	RequiredFraction float64 `json:"required_fraction,omitempty"`

	// iMAT. BigM zero derives the constant from the model's own bound
	// magnitudes; an undersized M cuts off feasible solutions.
	HighThreshold float64 `json:"high_threshold,omitempty"`
	LowThreshold  float64 `json:"low_threshold,omitempty"`
	Epsilon       float64 `json:"epsilon,omitempty"`
	BigM          float64 `json:"big_m,omitempty"`

	// pFBA optimality window: stage 2 requires objective >= Z*·(1-tol).
	OptimalityTolerance float64 `json:"optimality_tolerance,omitempty"`

	// MADE comparison conditions.
	Control   map[string]float64 `json:"control,omitempty"`
	Treatment map[string]float64 `json:"treatment,omitempty"`

	// Solver tuning. Threads is carried on the wire for remote backends;
	// the in-process simplex is single-threaded and ignores it.
	TimeLimitSeconds float64 `json:"time_limit_seconds,omitempty"`
	MipGap           float64 `json:"mip_gap,omitempty"`
	Threads          int     `json:"threads,omitempty"`

	// Progress receives per-reaction completion events during a
	// variability scan. Not serialized; worker and remote strategies wire
	// their own transport for it.
	Progress func(ProgressEvent) `json:"-"`
}

// ProgressEvent reports incremental completion of a long-running scan.
type ProgressEvent struct {
	Method    Method `json:"-"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Reaction  string `json:"reaction,omitempty"`
}

func (o Options) fractionOfOptimum() float64 {
	if o.FractionOfOptimum > 0 {
		return o.FractionOfOptimum
	}
	return DefaultFractionOfOptimum
}

func (o Options) gimmeThreshold() float64 {
	if o.Threshold > 0 {
		return o.Threshold
	}
	return DefaultGimmeThreshold
}

func (o Options) requiredFraction() float64 {
	if o.RequiredFraction > 0 {
		return o.RequiredFraction
	}
	return DefaultRequiredFraction
}

func (o Options) highThreshold() float64 {
	if o.HighThreshold > 0 {
		return o.HighThreshold
	}
	return DefaultHighThreshold
}

func (o Options) lowThreshold() float64 {
	if o.LowThreshold > 0 {
		return o.LowThreshold
	}
	return DefaultLowThreshold
}

func (o Options) imatEpsilon() float64 {
	if o.Epsilon > 0 {
		return o.Epsilon
	}
	return DefaultImatEpsilon
}

func (o Options) optimalityTolerance() float64 {
	if o.OptimalityTolerance > 0 {
		return o.OptimalityTolerance
	}
	return DefaultOptimalityTolerance
}

func (o Options) report(ev ProgressEvent) {
	if o.Progress != nil {
		o.Progress(ev)
	}
}

// LPOptions maps the solver-tuning fields onto in-process solver options.
// The deadline is anchored at call time.
func (o Options) LPOptions() lp.Options {
	out := lp.Options{MipGap: o.MipGap}
	if o.TimeLimitSeconds > 0 {
		out.Deadline = time.Now().Add(time.Duration(o.TimeLimitSeconds * float64(time.Second)))
	}
	return out
}
