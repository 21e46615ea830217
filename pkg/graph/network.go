package graph

import (
	"sort"

	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Build projects a model onto its bipartite metabolite/reaction network.
// Reaction nodes point at the metabolites they consume and produce as
// written; reversibility lives on the reaction node, not the edges.
func Build(m *model.Model) *Network {
	n := NewNetwork()

	for i := range m.Metabolites {
		met := &m.Metabolites[i]
		node := &Node{
			ID:    met.ID,
			Type:  NodeMetabolite,
			Label: met.Name,
		}
		if met.Compartment != "" {
			node.Properties = map[string]string{"compartment": met.Compartment}
		}
		n.AddNode(node)
	}

	for i := range m.Reactions {
		rxn := &m.Reactions[i]
		node := &Node{
			ID:    rxn.ID,
			Type:  NodeReaction,
			Label: rxn.Name,
		}
		if rxn.LowerBound < 0 {
			node.Properties = map[string]string{"reversible": "true"}
		}
		n.AddNode(node)

		for met, coeff := range rxn.Stoichiometry {
			edgeType := EdgeProduces
			if coeff < 0 {
				edgeType = EdgeConsumes
			}
			n.AddEdge(&Edge{FromID: rxn.ID, ToID: met, Type: edgeType, Coeff: coeff})
		}
	}

	return n
}

// Report lists the structural defects found in a model. Empty slices mean a
// clean model; every finding is advisory, none blocks a solve.
type Report struct {
	DeadEndMetabolites []string `json:"dead_end_metabolites"`
	OrphanMetabolites  []string `json:"orphan_metabolites"`
	EmptyReactions     []string `json:"empty_reactions"`
	FixedZeroReactions []string `json:"fixed_zero_reactions"`
}

// Clean reports whether no defects were found.
func (r Report) Clean() bool {
	return len(r.DeadEndMetabolites) == 0 && len(r.OrphanMetabolites) == 0 &&
		len(r.EmptyReactions) == 0 && len(r.FixedZeroReactions) == 0
}

// Diagnose checks the model's connectivity. A metabolite is a dead end when
// the network can produce it but never consume it (or the reverse), taking
// reaction reversibility into account; mass balance then forces zero flux
// through every reaction touching it.
func Diagnose(m *model.Model) Report {
	var report Report

	producible := make(map[string]bool)
	consumable := make(map[string]bool)
	referenced := make(map[string]bool)

	for i := range m.Reactions {
		rxn := &m.Reactions[i]
		if len(rxn.Stoichiometry) == 0 {
			report.EmptyReactions = append(report.EmptyReactions, rxn.ID)
		}
		if rxn.LowerBound == 0 && rxn.UpperBound == 0 {
			report.FixedZeroReactions = append(report.FixedZeroReactions, rxn.ID)
			continue
		}
		forward := rxn.UpperBound > 0
		backward := rxn.LowerBound < 0
		for met, coeff := range rxn.Stoichiometry {
			referenced[met] = true
			switch {
			case coeff > 0:
				producible[met] = producible[met] || forward
				consumable[met] = consumable[met] || backward
			case coeff < 0:
				consumable[met] = consumable[met] || forward
				producible[met] = producible[met] || backward
			}
		}
	}

	for i := range m.Metabolites {
		id := m.Metabolites[i].ID
		if !referenced[id] {
			report.OrphanMetabolites = append(report.OrphanMetabolites, id)
			continue
		}
		if producible[id] != consumable[id] {
			report.DeadEndMetabolites = append(report.DeadEndMetabolites, id)
		}
	}

	sort.Strings(report.DeadEndMetabolites)
	sort.Strings(report.OrphanMetabolites)
	sort.Strings(report.EmptyReactions)
	sort.Strings(report.FixedZeroReactions)
	return report
}
