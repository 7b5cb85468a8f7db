package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/types"
)

// DefaultChunkSize is the payload size of one ArtifactChunk.
const DefaultChunkSize = 1 << 20 // 1 MiB

// ChunkWriter pushes one chunk down a worker session stream.
type ChunkWriter interface {
	SendChunk(chunk *pb.ArtifactChunk) error
}

// Sender streams one artifact at a time over a worker session. The transfer
// window is one chunk: each chunk must be acknowledged before the next is
// sent, so a slow worker backpressures the orchestrator naturally.
type Sender struct {
	out       ChunkWriter
	acks      chan *pb.ArtifactAck
	chunkSize int
	logger    zerolog.Logger
}

// NewSender creates a sender writing to out.
func NewSender(out ChunkWriter, chunkSize int) *Sender {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Sender{
		out:       out,
		acks:      make(chan *pb.ArtifactAck, 16),
		chunkSize: chunkSize,
		logger:    log.WithComponent("artifact-sender"),
	}
}

// HandleAck feeds an acknowledgement received from the worker back into the
// transfer in progress. Called by the session receive loop.
func (s *Sender) HandleAck(ack *pb.ArtifactAck) {
	select {
	case s.acks <- ack:
	default:
		s.logger.Warn().Str("artifact_id", ack.GetArtifactId()).Msg("ack dropped, no transfer waiting")
	}
}

// Checksum returns the hex sha-256 of the uncompressed payload.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Transfer compresses, chunks and streams payload, waiting for a per-chunk
// acknowledgement. A negative ack aborts the transfer.
func (s *Sender) Transfer(ctx context.Context, artifactID, fileName string, payload []byte, compression types.CompressionType) (*types.Artifact, error) {
	checksum := Checksum(payload)

	compressed, err := Compress(payload, compression)
	if err != nil {
		return nil, fmt.Errorf("failed to compress artifact %s: %w", artifactID, err)
	}

	totalChunks := int64(len(compressed)+s.chunkSize-1) / int64(s.chunkSize)
	if totalChunks == 0 {
		totalChunks = 1
	}

	for i := int64(0); i < totalChunks; i++ {
		start := i * int64(s.chunkSize)
		end := start + int64(s.chunkSize)
		if end > int64(len(compressed)) {
			end = int64(len(compressed))
		}

		chunk := &pb.ArtifactChunk{
			ArtifactId:  artifactID,
			ChunkIndex:  i,
			TotalChunks: totalChunks,
			Data:        compressed[start:end],
			Checksum:    checksum,
			Compression: compressionProto(compression),
			TotalSize:   int64(len(payload)),
			FileName:    fileName,
		}
		if err := s.out.SendChunk(chunk); err != nil {
			return nil, fmt.Errorf("failed to send chunk %d of artifact %s: %w", i, artifactID, err)
		}

		if err := s.waitAck(ctx, artifactID, i); err != nil {
			return nil, err
		}
	}

	s.logger.Debug().
		Str("artifact_id", artifactID).
		Int64("chunks", totalChunks).
		Int("bytes", len(payload)).
		Msg("artifact transferred")

	return &types.Artifact{
		ID:          artifactID,
		TotalSize:   int64(len(payload)),
		Chunks:      int(totalChunks),
		Compression: compression,
		Checksum:    checksum,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *Sender) waitAck(ctx context.Context, artifactID string, index int64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ack := <-s.acks:
			if ack.GetArtifactId() != artifactID || ack.GetChunkIndex() != index {
				// Stale ack from a previous aborted transfer
				continue
			}
			if !ack.GetOk() {
				return fmt.Errorf("worker rejected chunk %d of artifact %s: %s", index, artifactID, ack.GetError())
			}
			return nil
		}
	}
}

func compressionProto(c types.CompressionType) pb.CompressionProto {
	switch c {
	case types.CompressionGzip:
		return pb.CompressionProto_COMPRESSION_GZIP
	case types.CompressionZstd:
		return pb.CompressionProto_COMPRESSION_ZSTD
	default:
		return pb.CompressionProto_COMPRESSION_NONE
	}
}

func compressionType(c pb.CompressionProto) types.CompressionType {
	switch c {
	case pb.CompressionProto_COMPRESSION_GZIP:
		return types.CompressionGzip
	case pb.CompressionProto_COMPRESSION_ZSTD:
		return types.CompressionZstd
	default:
		return types.CompressionNone
	}
}
