package artifact

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/types"
)

// Receiver reassembles chunked artifacts on the worker side. Chunks may
// arrive out of order and duplicates are ignored. When the last missing
// chunk lands the payload is decompressed and checksum-verified.
type Receiver struct {
	mu       sync.Mutex
	inflight map[string]*assembly
	logger   zerolog.Logger
}

type assembly struct {
	chunks      map[int64][]byte
	totalChunks int64
	totalSize   int64
	checksum    string
	compression types.CompressionType
	fileName    string
}

// NewReceiver creates an empty receiver.
func NewReceiver() *Receiver {
	return &Receiver{
		inflight: make(map[string]*assembly),
		logger:   log.WithComponent("artifact-receiver"),
	}
}

// Add ingests one chunk. When the artifact is complete it returns the
// verified, decompressed payload and its metadata; until then both are nil.
// A checksum mismatch discards the assembly and returns an error so the
// session can nack the transfer.
func (r *Receiver) Add(chunk *pb.ArtifactChunk) ([]byte, *types.Artifact, error) {
	if chunk.GetArtifactId() == "" {
		return nil, nil, &types.ValidationError{Field: "artifact_id", Reason: "must not be empty"}
	}
	if chunk.GetTotalChunks() <= 0 {
		return nil, nil, &types.ValidationError{Field: "total_chunks", Reason: "must be positive"}
	}
	if chunk.GetChunkIndex() < 0 || chunk.GetChunkIndex() >= chunk.GetTotalChunks() {
		return nil, nil, &types.ValidationError{Field: "chunk_index", Reason: "out of range"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.inflight[chunk.GetArtifactId()]
	if !ok {
		a = &assembly{
			chunks:      make(map[int64][]byte),
			totalChunks: chunk.GetTotalChunks(),
			totalSize:   chunk.GetTotalSize(),
			checksum:    chunk.GetChecksum(),
			compression: compressionType(chunk.GetCompression()),
			fileName:    chunk.GetFileName(),
		}
		r.inflight[chunk.GetArtifactId()] = a
	}

	if _, dup := a.chunks[chunk.GetChunkIndex()]; dup {
		return nil, nil, nil
	}
	a.chunks[chunk.GetChunkIndex()] = chunk.GetData()

	if int64(len(a.chunks)) < a.totalChunks {
		return nil, nil, nil
	}

	delete(r.inflight, chunk.GetArtifactId())

	var compressed []byte
	for i := int64(0); i < a.totalChunks; i++ {
		compressed = append(compressed, a.chunks[i]...)
	}

	payload, err := Decompress(compressed, a.compression)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decompress artifact %s: %w", chunk.GetArtifactId(), err)
	}

	if sum := Checksum(payload); sum != a.checksum {
		r.logger.Error().
			Str("artifact_id", chunk.GetArtifactId()).
			Str("expected", a.checksum).
			Str("actual", sum).
			Msg("artifact checksum mismatch, discarding")
		return nil, nil, fmt.Errorf("artifact %s checksum mismatch", chunk.GetArtifactId())
	}

	meta := &types.Artifact{
		ID:          chunk.GetArtifactId(),
		TotalSize:   int64(len(payload)),
		Chunks:      int(a.totalChunks),
		Compression: a.compression,
		Checksum:    a.checksum,
	}
	return payload, meta, nil
}

// Abort drops any partial assembly for the artifact.
func (r *Receiver) Abort(artifactID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, artifactID)
}
