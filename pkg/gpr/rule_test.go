package gpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func genes(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestPrecedenceAndBindsTighterThanOr(t *testing.T) {
	rule := Parse("a and b or c")

	assert.True(t, rule.Active(genes("a", "b")))
	assert.True(t, rule.Active(genes("c")))
	assert.False(t, rule.Active(genes("a")))
}

func TestDiscreteEvaluation(t *testing.T) {
	cases := []struct {
		rule   string
		active map[string]struct{}
		want   bool
	}{
		{"g1", genes("g1"), true},
		{"g1", genes("g2"), false},
		{"g1 and g2", genes("g1", "g2"), true},
		{"g1 and g2", genes("g1"), false},
		{"g1 or g2", genes("g2"), true},
		{"(g1 or g2) and g3", genes("g2", "g3"), true},
		{"(g1 or g2) and g3", genes("g1", "g2"), false},
		{"G1 AND g2", genes("G1", "g2"), true}, // operators case-insensitive, ids are not
		{"g1 && g2", genes("g1", "g2"), true},
		{"g1 || g2", genes("g2"), true},
	}
	for _, tc := range cases {
		rule := Parse(tc.rule)
		assert.NoError(t, rule.Err(), "rule %q", tc.rule)
		assert.Equal(t, tc.want, rule.Active(tc.active), "rule %q", tc.rule)
	}
}

func TestContinuousMinMaxSemantics(t *testing.T) {
	levels := map[string]float64{"geneA": 0.9, "geneB": 0.3}

	assert.InDelta(t, 0.3, Parse("geneA and geneB").Level(levels), 1e-12)
	assert.InDelta(t, 0.9, Parse("geneA or geneB").Level(levels), 1e-12)
}

func TestContinuousNested(t *testing.T) {
	levels := map[string]float64{"pykA": 0.1, "pykB": 0.1, "pykF": 0.9}

	rule := Parse("(pykA and pykB) or pykF")
	assert.InDelta(t, 0.9, rule.Level(levels), 1e-12)
}

func TestUnknownGeneDefaults(t *testing.T) {
	// Continuous: no evidence means unconstrained.
	assert.InDelta(t, 1.0, Parse("mystery").Level(map[string]float64{}), 1e-12)
	// Discrete: absent from the active set means knocked out.
	assert.False(t, Parse("mystery").Active(genes()))
}

func TestEmptyRuleAlwaysActive(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		rule := Parse(raw)
		assert.True(t, rule.Empty())
		assert.True(t, rule.Active(genes()))
		assert.InDelta(t, 1.0, rule.Level(nil), 1e-12)
	}
}

func TestMalformedRulesEvaluateBestEffort(t *testing.T) {
	cases := []struct {
		rule   string
		active map[string]struct{}
		want   bool
	}{
		{"(g1 and g2", genes("g1", "g2"), true},  // missing close paren
		{"g1 and g2)", genes("g1", "g2"), true},  // stray close paren
		{"g1 and", genes("g1"), true},            // dangling operator keeps the left side
		{"or g2", genes("g2"), true},             // dangling leading operator keeps the right side
		{"g1 and (", genes("g1"), true},
	}
	for _, tc := range cases {
		rule := Parse(tc.rule)
		assert.Error(t, rule.Err(), "rule %q should report a recovered parse error", tc.rule)
		assert.Equal(t, tc.want, rule.Active(tc.active), "rule %q", tc.rule)
	}
}

func TestMalformedDoesNotPoisonLaterEvaluations(t *testing.T) {
	_ = Parse("((((").Active(genes("a"))

	rule := Parse("a and b")
	assert.True(t, rule.Active(genes("a", "b")))
	assert.False(t, rule.Active(genes("a")))
}

func TestGenes(t *testing.T) {
	rule := Parse("(b0001 and b0002) or b0001 or b0003")
	assert.Equal(t, []string{"b0001", "b0002", "b0003"}, rule.Genes())
}

func TestNumericLiterals(t *testing.T) {
	// Numbers appear in rules downstream of historic string substitution.
	assert.InDelta(t, 0.5, Parse("0.5 or 0.2").Level(nil), 1e-12)
	assert.True(t, Parse("1").Active(genes()))
	assert.False(t, Parse("0").Active(genes()))
}
