package screen

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Solver abstracts where knockout solves run. engine.Dispatcher satisfies it.
type Solver interface {
	Solve(ctx context.Context, method analysis.Method, m *model.Model, opts analysis.Options) (analysis.Solution, error)
}

// Run executes the screen: one wild-type solve, then one knockout solve per
// gene, fanned out over s.Workers goroutines. The error return covers setup
// failures only; per-gene solve failures land in the gene's result.
func Run(ctx context.Context, solver Solver, m *model.Model, s Screen) (Result, error) {
	start := time.Now()

	genes := s.Genes
	if len(genes) == 0 {
		for _, g := range m.Genes {
			genes = append(genes, g.ID)
		}
	}
	if len(genes) == 0 {
		return Result{}, fmt.Errorf("model %s declares no genes to screen", m.ID)
	}
	genes = dedupe(genes)

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(genes) {
		workers = len(genes)
	}
	essentialFraction := s.EssentialFraction
	if essentialFraction <= 0 {
		essentialFraction = DefaultEssentialFraction
	}

	// Wild type first: the growth baseline every knockout is judged against.
	wildType, err := solver.Solve(ctx, analysis.MethodFBA, m, s.Options)
	if err != nil {
		return Result{}, fmt.Errorf("wild-type solve: %w", err)
	}
	if wildType.Status != lp.StatusOptimal {
		return Result{}, fmt.Errorf("wild-type solve is %s, cannot screen", wildType.Status)
	}

	log.Printf("screen: %d genes via %s, %d workers", len(genes), s.Method, workers)

	res := Result{
		ModelID:        m.ID,
		Method:         s.Method.String(),
		WildTypeGrowth: wildType.GrowthRate,
		Genes:          make(map[string]GeneResult, len(genes)),
		ScreenedCount:  len(genes),
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gene := range jobs {
				gr := screenGene(ctx, solver, m, s, gene, wildType.GrowthRate, essentialFraction)
				mu.Lock()
				res.Genes[gene] = gr
				mu.Unlock()
			}
		}()
	}

	for _, gene := range genes {
		jobs <- gene
	}
	close(jobs)
	wg.Wait()

	for gene, gr := range res.Genes {
		if gr.Err != "" {
			res.ErrorCount++
			continue
		}
		if gr.Essential {
			res.EssentialCount++
			res.EssentialGenes = append(res.EssentialGenes, gene)
		}
	}
	sort.Strings(res.EssentialGenes)

	res.Elapsed = time.Since(start)
	return res, nil
}

func screenGene(ctx context.Context, solver Solver, m *model.Model, s Screen, gene string, wildTypeGrowth, essentialFraction float64) GeneResult {
	if err := ctx.Err(); err != nil {
		return GeneResult{Gene: gene, Err: err.Error()}
	}

	opts := s.Options
	opts.Knockouts = append(append([]string{}, s.Options.Knockouts...), gene)

	sol, err := solver.Solve(ctx, s.Method, m, opts)
	if err != nil {
		return GeneResult{Gene: gene, Err: err.Error()}
	}

	gr := GeneResult{
		Gene:       gene,
		Status:     sol.Status,
		GrowthRate: sol.GrowthRate,
		Phenotype:  sol.Phenotype,
	}
	if sol.Err != "" {
		gr.Err = sol.Err
		return gr
	}
	if wildTypeGrowth > 0 {
		gr.GrowthRatio = sol.GrowthRate / wildTypeGrowth
	}
	gr.Essential = sol.Phenotype == analysis.PhenotypeLethal || gr.GrowthRatio < essentialFraction
	return gr
}

func dedupe(genes []string) []string {
	seen := make(map[string]struct{}, len(genes))
	out := genes[:0]
	for _, g := range genes {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
