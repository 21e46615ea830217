package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toyModel() *Model {
	return &Model{
		ID: "toy",
		Reactions: []Reaction{
			{ID: "EX_A", Stoichiometry: map[string]float64{"A": 1}, LowerBound: 0, UpperBound: 10},
			{ID: "R1", Stoichiometry: map[string]float64{"A": -1, "B": 1}, LowerBound: 0, UpperBound: 1000},
			{ID: "R2", Stoichiometry: map[string]float64{"B": -1, "C": 1}, LowerBound: 0, UpperBound: 1000, GeneRule: "g2"},
			{ID: "BIOMASS", Stoichiometry: map[string]float64{"C": -1}, LowerBound: 0, UpperBound: 1000, ObjectiveCoefficient: 1},
		},
		Metabolites: []Metabolite{{ID: "A", Compartment: "c"}, {ID: "B", Compartment: "c"}, {ID: "C", Compartment: "c"}},
		Genes:       []Gene{{ID: "g2"}},
	}
}

func TestBuildMatrixDeterministicOrdering(t *testing.T) {
	m := toyModel()
	first := BuildMatrix(m)
	second := BuildMatrix(m)

	assert.Equal(t, first.Reactions, second.Reactions)
	assert.Equal(t, first.Metabolites, second.Metabolites)
	assert.Equal(t, first.Entries, second.Entries)

	assert.Equal(t, 0, first.MetaboliteIndex["A"])
	assert.Equal(t, 2, first.MetaboliteIndex["C"])
	assert.Equal(t, 3, first.ReactionIndex["BIOMASS"])
}

func TestMatrixCoefficients(t *testing.T) {
	x := BuildMatrix(toyModel())

	assert.Equal(t, 1.0, x.Coefficient("A", "EX_A"))
	assert.Equal(t, -1.0, x.Coefficient("A", "R1"))
	assert.Equal(t, 0.0, x.Coefficient("A", "R2"))
	assert.Equal(t, -1.0, x.Coefficient("C", "BIOMASS"))
}

func TestMatrixResidualSteadyState(t *testing.T) {
	x := BuildMatrix(toyModel())

	// A balanced flux vector down the linear pathway.
	balanced := map[string]float64{"EX_A": 10, "R1": 10, "R2": 10, "BIOMASS": 10}
	for _, r := range x.Residual(balanced) {
		assert.InDelta(t, 0, r, 1e-10)
	}

	// Break the balance and metabolite B accumulates.
	broken := map[string]float64{"EX_A": 10, "R1": 10, "R2": 4, "BIOMASS": 4}
	res := x.Residual(broken)
	assert.InDelta(t, 6, res[x.MetaboliteIndex["B"]], 1e-10)
}

func TestUnknownMetaboliteIsZeroImpact(t *testing.T) {
	m := toyModel()
	m.Reactions[1].Stoichiometry["ghost"] = 2.5

	x := BuildMatrix(m)
	assert.Equal(t, 0.0, x.Coefficient("ghost", "R1"))
	assert.NotContains(t, x.MetaboliteIndex, "ghost")
}

func TestObjectiveReactions(t *testing.T) {
	m := toyModel()
	assert.Equal(t, []string{"BIOMASS"}, m.ObjectiveReactions())
	assert.Equal(t, 1.0, m.ObjectiveCoefficient("BIOMASS"))
	assert.Equal(t, 0.0, m.ObjectiveCoefficient("R1"))

	// Biomass fallback when no coefficient is declared.
	m.Reactions[3].ObjectiveCoefficient = 0
	assert.Equal(t, []string{"BIOMASS"}, m.ObjectiveReactions())
	assert.Equal(t, 1.0, m.ObjectiveCoefficient("BIOMASS"))

	// Explicit objective name wins over coefficients.
	m.Objective = "R1"
	assert.Equal(t, []string{"R1"}, m.ObjectiveReactions())
}

func TestModelJSONRoundTrip(t *testing.T) {
	m := toyModel()
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Model
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m.Reactions, back.Reactions)
	assert.Equal(t, m.Metabolites, back.Metabolites)
}

func TestInfo(t *testing.T) {
	m := toyModel()
	m.Reactions[0].Subsystem = "Exchange"
	m.Reactions[1].Subsystem = "Glycolysis"
	m.Reactions[2].Subsystem = "Glycolysis"

	info := m.Info()
	assert.Equal(t, 4, info.NumReactions)
	assert.Equal(t, 3, info.NumMetabolites)
	assert.Equal(t, 1, info.NumGenes)
	assert.Equal(t, "BIOMASS", info.Objective)
	assert.Equal(t, []string{"c"}, info.Compartments)
	assert.Equal(t, []string{"Exchange", "Glycolysis"}, info.Subsystems)
}

func TestBoundsOverrideJSONShape(t *testing.T) {
	var b Bounds
	require.NoError(t, json.Unmarshal([]byte(`{"lb":-5,"ub":5}`), &b))
	require.NotNil(t, b.Lower)
	require.NotNil(t, b.Upper)
	assert.Equal(t, -5.0, *b.Lower)
	assert.Equal(t, 5.0, *b.Upper)

	require.NoError(t, json.Unmarshal([]byte(`{"ub":3}`), &b))
	// lb stays from previous decode in this reuse; fresh value has nil lb.
	var fresh Bounds
	require.NoError(t, json.Unmarshal([]byte(`{"ub":3}`), &fresh))
	assert.Nil(t, fresh.Lower)
}
