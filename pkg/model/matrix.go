package model

// Entry is one nonzero of the stoichiometric matrix: coefficient of a
// metabolite (row) in a reaction (column).
type Entry struct {
	Row int
	Col int
	Val float64
}

// Matrix is the metabolite-by-reaction stoichiometric matrix in sparse
// triplet form. For any steady-state flux vector v the invariant S·v = 0
// holds row by row.
//
// Row and column indices are assigned in model-declaration order, so repeated
// builds of the same model produce identical indices and downstream variable
// names are reproducible.
type Matrix struct {
	Metabolites []string
	Reactions   []string

	MetaboliteIndex map[string]int
	ReactionIndex   map[string]int

	Entries []Entry

	rows [][]Entry // per-metabolite view of Entries
}

// BuildMatrix indexes the model's reactions and metabolites and collects the
// nonzero stoichiometric coefficients. References to metabolites that are not
// declared in the model are treated as zero-impact and skipped; heterogeneous
// real-world model files carry them and rejecting the model would be worse.
func BuildMatrix(m *Model) *Matrix {
	x := &Matrix{
		Metabolites:     make([]string, 0, len(m.Metabolites)),
		Reactions:       make([]string, 0, len(m.Reactions)),
		MetaboliteIndex: make(map[string]int, len(m.Metabolites)),
		ReactionIndex:   make(map[string]int, len(m.Reactions)),
	}
	for _, met := range m.Metabolites {
		if _, dup := x.MetaboliteIndex[met.ID]; dup {
			continue
		}
		x.MetaboliteIndex[met.ID] = len(x.Metabolites)
		x.Metabolites = append(x.Metabolites, met.ID)
	}
	for _, rxn := range m.Reactions {
		if _, dup := x.ReactionIndex[rxn.ID]; dup {
			continue
		}
		x.ReactionIndex[rxn.ID] = len(x.Reactions)
		x.Reactions = append(x.Reactions, rxn.ID)
	}

	x.rows = make([][]Entry, len(x.Metabolites))
	for _, rxn := range m.Reactions {
		col := x.ReactionIndex[rxn.ID]
		// Iterate metabolites in declaration order for deterministic entry
		// ordering; map iteration over Stoichiometry would not be stable.
		for _, met := range m.Metabolites {
			coeff, ok := rxn.Stoichiometry[met.ID]
			if !ok || coeff == 0 {
				continue
			}
			row := x.MetaboliteIndex[met.ID]
			e := Entry{Row: row, Col: col, Val: coeff}
			x.Entries = append(x.Entries, e)
			x.rows[row] = append(x.rows[row], e)
		}
	}
	return x
}

// Coefficient returns S[metabolite][reaction], 0 if absent.
func (x *Matrix) Coefficient(metaboliteID, reactionID string) float64 {
	row, ok := x.MetaboliteIndex[metaboliteID]
	if !ok {
		return 0
	}
	col, ok := x.ReactionIndex[reactionID]
	if !ok {
		return 0
	}
	for _, e := range x.rows[row] {
		if e.Col == col {
			return e.Val
		}
	}
	return 0
}

// Row returns the nonzero entries of a metabolite's row.
func (x *Matrix) Row(metaboliteID string) []Entry {
	row, ok := x.MetaboliteIndex[metaboliteID]
	if !ok {
		return nil
	}
	return x.rows[row]
}

// Residual computes S·v per metabolite row for a flux assignment. Missing
// reactions count as zero flux. Used to verify mass balance of solutions.
func (x *Matrix) Residual(fluxes map[string]float64) []float64 {
	res := make([]float64, len(x.Metabolites))
	for _, e := range x.Entries {
		res[e.Row] += e.Val * fluxes[x.Reactions[e.Col]]
	}
	return res
}
