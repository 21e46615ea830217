package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/lp"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute), mr
}

func toy() *model.Model {
	return &model.Model{
		ID: "toy",
		Reactions: []model.Reaction{
			{ID: "BIOMASS", Stoichiometry: map[string]float64{"C": -1}, UpperBound: 10, ObjectiveCoefficient: 1},
		},
		Metabolites: []model.Metabolite{{ID: "C"}},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := testCache(t)
	ctx := context.Background()

	key, err := Key(analysis.MethodFBA, toy(), analysis.Options{})
	require.NoError(t, err)

	_, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	want := analysis.Solution{
		Method: "fba", Status: lp.StatusOptimal,
		ObjectiveValue: 10, GrowthRate: 10, Phenotype: "viable",
		Fluxes: map[string]float64{"BIOMASS": 10},
	}
	require.NoError(t, cache.Set(ctx, key, want))

	got, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want.Fluxes, got.Fluxes)
	assert.Equal(t, want.Status, got.Status)
}

func TestKeyDiscriminatesRequests(t *testing.T) {
	base, err := Key(analysis.MethodFBA, toy(), analysis.Options{})
	require.NoError(t, err)

	sameAgain, err := Key(analysis.MethodFBA, toy(), analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, base, sameAgain)

	otherMethod, err := Key(analysis.MethodPFBA, toy(), analysis.Options{})
	require.NoError(t, err)
	assert.NotEqual(t, base, otherMethod)

	otherOpts, err := Key(analysis.MethodFBA, toy(), analysis.Options{Knockouts: []string{"g1"}})
	require.NoError(t, err)
	assert.NotEqual(t, base, otherOpts)
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := testCache(t)
	ctx := context.Background()

	key, err := Key(analysis.MethodFBA, toy(), analysis.Options{})
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, key, analysis.Solution{Method: "fba", Status: lp.StatusOptimal}))

	mr.FastForward(2 * time.Minute)

	_, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}
