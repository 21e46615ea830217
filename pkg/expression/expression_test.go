package expression

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileProviderFlatJSON(t *testing.T) {
	path := writeTemp(t, "levels.json", `{"g1": 0.9, "g2": 0.1}`)

	profile, err := NewFileProvider(path).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0.9, profile.Levels["g1"])
	assert.Equal(t, 0.1, profile.Levels["g2"])
	assert.Empty(t, profile.Condition)
}

func TestFileProviderNestedJSON(t *testing.T) {
	path := writeTemp(t, "levels.json", `{"control": {"g1": 1.0}, "treatment": {"g1": 0.2}}`)
	p := NewFileProvider(path)

	profile, err := p.Fetch(context.Background(), "treatment")
	require.NoError(t, err)
	assert.Equal(t, "treatment", profile.Condition)
	assert.Equal(t, 0.2, profile.Levels["g1"])

	_, err = p.Fetch(context.Background(), "")
	assert.ErrorContains(t, err, "name one")

	_, err = p.Fetch(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestFileProviderCSV(t *testing.T) {
	path := writeTemp(t, "levels.csv", "gene,control,treatment\ng1,1.0,0.2\ng2,0.5,0.5\n")
	p := NewFileProvider(path)

	profile, err := p.Fetch(context.Background(), "control")
	require.NoError(t, err)
	assert.Equal(t, "control", profile.Condition)
	assert.Equal(t, 1.0, profile.Levels["g1"])
	assert.Equal(t, 0.5, profile.Levels["g2"])

	_, err = p.Fetch(context.Background(), "")
	assert.ErrorContains(t, err, "name one")
}

func TestFileProviderTSVSingleCondition(t *testing.T) {
	path := writeTemp(t, "levels.tsv", "gene\twt\ng1\t0.75\n")

	profile, err := NewFileProvider(path).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "wt", profile.Condition)
	assert.Equal(t, 0.75, profile.Levels["g1"])
}

func TestFileProviderBadValue(t *testing.T) {
	path := writeTemp(t, "levels.csv", "gene,wt\ng1,high\n")

	_, err := NewFileProvider(path).Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFileProviderUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "levels.xlsx", "nope")

	_, err := NewFileProvider(path).Fetch(context.Background(), "")
	assert.ErrorContains(t, err, "unsupported expression file format")
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider("mock-1")
	mock.SetLevel("default", "g1", 0.3)
	mock.SetLevel("stress", "g1", 0.9)

	profile, err := mock.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0.3, profile.Levels["g1"])

	profile, err = mock.Fetch(context.Background(), "stress")
	require.NoError(t, err)
	assert.Equal(t, 0.9, profile.Levels["g1"])

	// Mutating the returned profile must not leak back.
	profile.Levels["g1"] = 42
	again, err := mock.Fetch(context.Background(), "stress")
	require.NoError(t, err)
	assert.Equal(t, 0.9, again.Levels["g1"])

	_, err = mock.Fetch(context.Background(), "missing")
	assert.Error(t, err)
}
