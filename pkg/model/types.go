// Package model holds the declarative metabolic network shape shared by every
// solver path: reactions with stoichiometry, bounds and gene-reaction rules,
// plus the sparse stoichiometric matrix built from them.
//
// The JSON tags follow the COBRA model interchange format so parsed model
// files map onto these types without translation. The package performs no
// file I/O or format detection; ingestion is a caller concern.
package model

import "strings"

// Reaction is a single network reaction. Stoichiometry maps metabolite id to
// coefficient: negative consumes, positive produces.
type Reaction struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name,omitempty"`
	Stoichiometry        map[string]float64 `json:"metabolites"`
	LowerBound           float64            `json:"lower_bound"`
	UpperBound           float64            `json:"upper_bound"`
	GeneRule             string             `json:"gene_reaction_rule,omitempty"`
	ObjectiveCoefficient float64            `json:"objective_coefficient,omitempty"`
	Subsystem            string             `json:"subsystem,omitempty"`
}

// Metabolite is a network species participating in reactions.
type Metabolite struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Compartment string `json:"compartment,omitempty"`
}

// Gene is referenced by reactions' gene-reaction rules.
type Gene struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Model is an immutable metabolic network. Callers own it; the solver core
// never mutates a Model it is handed.
type Model struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Reactions   []Reaction   `json:"reactions"`
	Metabolites []Metabolite `json:"metabolites"`
	Genes       []Gene       `json:"genes,omitempty"`
	// Objective optionally names the objective reaction, overriding the
	// per-reaction objective coefficients.
	Objective string `json:"objective,omitempty"`
}

// Bounds overrides a reaction's native flux bounds. Nil fields keep the
// model's value. The JSON keys match the solve-service wire format.
type Bounds struct {
	Lower *float64 `json:"lb,omitempty"`
	Upper *float64 `json:"ub,omitempty"`
}

// Overrides maps reaction id to transient bound overrides, typically
// representing environmental conditions such as nutrient availability.
type Overrides map[string]Bounds

// Reaction returns the reaction with the given id, or nil.
func (m *Model) Reaction(id string) *Reaction {
	for i := range m.Reactions {
		if m.Reactions[i].ID == id {
			return &m.Reactions[i]
		}
	}
	return nil
}

// ObjectiveReactions returns the ids of reactions carrying the objective, in
// declaration order. When the model names an Objective reaction explicitly it
// wins; otherwise reactions with nonzero objective coefficients; otherwise the
// first reaction whose id contains "biomass" case-insensitively.
func (m *Model) ObjectiveReactions() []string {
	if m.Objective != "" && m.Reaction(m.Objective) != nil {
		return []string{m.Objective}
	}
	var ids []string
	for i := range m.Reactions {
		if m.Reactions[i].ObjectiveCoefficient != 0 {
			ids = append(ids, m.Reactions[i].ID)
		}
	}
	if len(ids) > 0 {
		return ids
	}
	for i := range m.Reactions {
		if strings.Contains(strings.ToLower(m.Reactions[i].ID), "biomass") {
			return []string{m.Reactions[i].ID}
		}
	}
	return nil
}

// ObjectiveCoefficient returns the effective objective coefficient for a
// reaction, honoring the explicit Objective name and the biomass fallback.
func (m *Model) ObjectiveCoefficient(reactionID string) float64 {
	objs := m.ObjectiveReactions()
	for _, id := range objs {
		if id != reactionID {
			continue
		}
		r := m.Reaction(id)
		if r.ObjectiveCoefficient != 0 {
			return r.ObjectiveCoefficient
		}
		return 1.0
	}
	return 0
}

// GeneIDs returns the declared gene ids as a set.
func (m *Model) GeneIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(m.Genes))
	for _, g := range m.Genes {
		set[g.ID] = struct{}{}
	}
	return set
}

// Info is a summary of model statistics, served by /model/info.
type Info struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	NumReactions   int      `json:"num_reactions"`
	NumMetabolites int      `json:"num_metabolites"`
	NumGenes       int      `json:"num_genes"`
	Objective      string   `json:"objective,omitempty"`
	Compartments   []string `json:"compartments"`
	Subsystems     []string `json:"subsystems"`
}

// Info summarizes the model. Compartments and subsystems are distinct values
// in first-appearance order.
func (m *Model) Info() Info {
	info := Info{
		ID:             m.ID,
		Name:           m.Name,
		NumReactions:   len(m.Reactions),
		NumMetabolites: len(m.Metabolites),
		NumGenes:       len(m.Genes),
	}
	if objs := m.ObjectiveReactions(); len(objs) > 0 {
		info.Objective = objs[0]
	}
	seenComp := make(map[string]struct{})
	for _, met := range m.Metabolites {
		if met.Compartment == "" {
			continue
		}
		if _, ok := seenComp[met.Compartment]; !ok {
			seenComp[met.Compartment] = struct{}{}
			info.Compartments = append(info.Compartments, met.Compartment)
		}
	}
	seenSub := make(map[string]struct{})
	for _, rxn := range m.Reactions {
		if rxn.Subsystem == "" {
			continue
		}
		if _, ok := seenSub[rxn.Subsystem]; !ok {
			seenSub[rxn.Subsystem] = struct{}{}
			info.Subsystems = append(info.Subsystems, rxn.Subsystem)
		}
	}
	return info
}
