package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// Library is the orchestrator-side artifact store: payloads on disk,
// transport metadata in the persistent store.
type Library struct {
	dir   string
	store storage.Store
}

// NewLibrary opens the artifact library under dir.
func NewLibrary(dir string, store storage.Store) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact library dir: %w", err)
	}
	return &Library{dir: dir, store: store}, nil
}

// Add stores a payload under a new or existing artifact ID.
func (l *Library) Add(artifactID string, payload []byte, compression types.CompressionType) (*types.Artifact, error) {
	if artifactID == "" {
		return nil, &types.ValidationError{Field: "artifact_id", Reason: "must not be empty"}
	}

	if err := os.WriteFile(l.path(artifactID), payload, 0644); err != nil {
		return nil, fmt.Errorf("failed to write artifact %s: %w", artifactID, err)
	}

	meta := &types.Artifact{
		ID:          artifactID,
		TotalSize:   int64(len(payload)),
		Compression: compression,
		Checksum:    Checksum(payload),
		CreatedAt:   time.Now(),
	}
	if err := l.store.CreateArtifact(meta); err != nil {
		return nil, fmt.Errorf("failed to persist artifact metadata: %w", err)
	}
	return meta, nil
}

// Load returns the payload and metadata for an artifact.
func (l *Library) Load(artifactID string) ([]byte, *types.Artifact, error) {
	meta, err := l.store.GetArtifact(artifactID)
	if err != nil {
		return nil, nil, err
	}
	payload, err := os.ReadFile(l.path(artifactID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read artifact %s: %w", artifactID, err)
	}
	return payload, meta, nil
}

func (l *Library) path(artifactID string) string {
	return filepath.Join(l.dir, artifactID+".artifact")
}
