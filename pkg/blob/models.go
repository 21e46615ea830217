package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rmax-ai/fluxlord/pkg/model"
)

const modelPrefix = "models"

// ModelStore keeps model documents content-addressed under their SHA-256
// digest. Uploading the same model twice yields the same digest.
type ModelStore struct {
	blobs BlobStore
}

// NewModelStore wraps a blob store with model-document semantics.
func NewModelStore(blobs BlobStore) *ModelStore {
	return &ModelStore{blobs: blobs}
}

// Put stores the model and returns its digest.
func (s *ModelStore) Put(ctx context.Context, m *model.Model) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding model: %w", err)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if err := s.blobs.Put(ctx, modelKey(digest), bytes.NewReader(data)); err != nil {
		return "", err
	}
	return digest, nil
}

// Get loads the model stored under digest.
func (s *ModelStore) Get(ctx context.Context, digest string) (*model.Model, error) {
	if !validDigest(digest) {
		return nil, fmt.Errorf("invalid model digest %q", digest)
	}
	reader, err := s.blobs.Get(ctx, modelKey(digest))
	if err != nil {
		return nil, fmt.Errorf("model %s not found", digest)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading model %s: %w", digest, err)
	}
	var m model.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding model %s: %w", digest, err)
	}
	return &m, nil
}

// List returns the digests of every stored model.
func (s *ModelStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.blobs.List(ctx, modelPrefix)
	if err != nil {
		return nil, err
	}
	digests := make([]string, 0, len(keys))
	for _, key := range keys {
		name := path.Base(key)
		digest := strings.TrimSuffix(name, ".json")
		if validDigest(digest) {
			digests = append(digests, digest)
		}
	}
	return digests, nil
}

// Delete removes the model stored under digest.
func (s *ModelStore) Delete(ctx context.Context, digest string) error {
	if !validDigest(digest) {
		return fmt.Errorf("invalid model digest %q", digest)
	}
	return s.blobs.Delete(ctx, modelKey(digest))
}

func modelKey(digest string) string {
	return path.Join(modelPrefix, digest+".json")
}

// validDigest gates what reaches the blob layer; digests are hex, so this
// also blocks path traversal in keys.
func validDigest(digest string) bool {
	if len(digest) != sha256.Size*2 {
		return false
	}
	for _, c := range digest {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
