package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmax-ai/fluxlord/pkg/model"
)

func TestLocalBlobStore(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalBlobStore(tmpDir)
	ctx := context.Background()

	// Put
	key := "folder/test.json"
	content := "hello world"
	if err := store.Put(ctx, key, strings.NewReader(content)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, key)
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("File was not created at expected path: %s", expectedPath)
	}

	// Get
	reader, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Failed to read from reader: %v", err)
	}
	if string(data) != content {
		t.Errorf("Get content mismatch. Got %s, want %s", string(data), content)
	}

	// List
	key2 := "folder/other.json"
	store.Put(ctx, key2, strings.NewReader("other"))

	keys, err := store.List(ctx, "folder")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("List returned %d keys, want 2", len(keys))
	}

	// Delete
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, key); err == nil {
		t.Error("Get should fail after delete")
	}
	if _, err := store.Get(ctx, key2); err != nil {
		t.Error("Other file should still exist")
	}
}

func TestListMissingPrefix(t *testing.T) {
	store := NewLocalBlobStore(t.TempDir())

	keys, err := store.List(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func toyModel() *model.Model {
	return &model.Model{
		ID: "toy",
		Reactions: []model.Reaction{
			{ID: "EX_A", Stoichiometry: map[string]float64{"A": 1}, UpperBound: 10},
		},
		Metabolites: []model.Metabolite{{ID: "A"}},
	}
}

func TestModelStoreRoundTrip(t *testing.T) {
	store := NewModelStore(NewLocalBlobStore(t.TempDir()))
	ctx := context.Background()

	digest, err := store.Put(ctx, toyModel())
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", digest)
	}

	// Same document, same digest.
	again, err := store.Put(ctx, toyModel())
	if err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if again != digest {
		t.Errorf("digest not stable: %s vs %s", digest, again)
	}

	m, err := store.Get(ctx, digest)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.ID != "toy" || len(m.Reactions) != 1 {
		t.Errorf("round trip mangled the model: %+v", m)
	}

	digests, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(digests) != 1 || digests[0] != digest {
		t.Errorf("expected [%s], got %v", digest, digests)
	}

	if err := store.Delete(ctx, digest); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, digest); err == nil {
		t.Error("Get should fail after delete")
	}
}

func TestModelStoreRejectsBadDigest(t *testing.T) {
	store := NewModelStore(NewLocalBlobStore(t.TempDir()))
	ctx := context.Background()

	if _, err := store.Get(ctx, "../escape"); err == nil {
		t.Error("expected invalid digest error for path traversal")
	}
	if _, err := store.Get(ctx, strings.Repeat("Z", 64)); err == nil {
		t.Error("expected invalid digest error for non-hex")
	}
	if err := store.Delete(ctx, "short"); err == nil {
		t.Error("expected invalid digest error")
	}
}
