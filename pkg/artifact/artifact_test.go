package artifact

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/types"
)

func TestCompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("hodei artifact payload "), 1024)

	for _, codec := range []types.CompressionType{types.CompressionNone, types.CompressionGzip, types.CompressionZstd} {
		t.Run(string(codec), func(t *testing.T) {
			compressed, err := Compress(payload, codec)
			require.NoError(t, err)
			if codec != types.CompressionNone {
				assert.Less(t, len(compressed), len(payload))
			}

			out, err := Decompress(compressed, codec)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestCompressUnknownCodec(t *testing.T) {
	_, err := Compress([]byte("x"), types.CompressionType("lz4"))
	assert.True(t, types.IsValidation(err))
}

// chunkPipe connects a Sender directly to a Receiver and acks every chunk.
type chunkPipe struct {
	sender   *Sender
	receiver *Receiver
	payload  []byte
	meta     *types.Artifact
}

func (p *chunkPipe) SendChunk(chunk *pb.ArtifactChunk) error {
	payload, meta, err := p.receiver.Add(chunk)
	p.sender.HandleAck(&pb.ArtifactAck{
		ArtifactId: chunk.GetArtifactId(),
		ChunkIndex: chunk.GetChunkIndex(),
		Ok:         err == nil,
	})
	if payload != nil {
		p.payload = payload
		p.meta = meta
	}
	return nil
}

func TestTransferRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 4096) // 64 KiB

	pipe := &chunkPipe{receiver: NewReceiver()}
	sender := NewSender(pipe, 4096)
	pipe.sender = sender

	meta, err := sender.Transfer(context.Background(), "art-1", "build.tar", payload, types.CompressionNone)
	require.NoError(t, err)

	assert.Equal(t, payload, pipe.payload)
	assert.Equal(t, meta.Checksum, pipe.meta.Checksum)
	assert.Equal(t, int64(len(payload)), pipe.meta.TotalSize)
	assert.Greater(t, meta.Chunks, 1)
}

func TestTransferEmptyPayload(t *testing.T) {
	pipe := &chunkPipe{receiver: NewReceiver()}
	sender := NewSender(pipe, 4096)
	pipe.sender = sender

	meta, err := sender.Transfer(context.Background(), "art-empty", "empty", nil, types.CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Chunks)
	assert.NotNil(t, pipe.meta)
}

func TestReceiverOutOfOrderAndDuplicates(t *testing.T) {
	payload := []byte("hello hodei")
	checksum := Checksum(payload)

	chunk := func(idx int64, data []byte) *pb.ArtifactChunk {
		return &pb.ArtifactChunk{
			ArtifactId:  "art-2",
			ChunkIndex:  idx,
			TotalChunks: 2,
			Data:        data,
			Checksum:    checksum,
			Compression: pb.CompressionProto_COMPRESSION_NONE,
		}
	}

	r := NewReceiver()

	out, _, err := r.Add(chunk(1, payload[5:]))
	require.NoError(t, err)
	assert.Nil(t, out)

	// Duplicate of an already-buffered chunk is a no-op
	out, _, err = r.Add(chunk(1, payload[5:]))
	require.NoError(t, err)
	assert.Nil(t, out)

	out, meta, err := r.Add(chunk(0, payload[:5]))
	require.NoError(t, err)
	assert.Equal(t, payload, out)
	assert.Equal(t, checksum, meta.Checksum)
}

func TestReceiverChecksumMismatch(t *testing.T) {
	r := NewReceiver()
	_, _, err := r.Add(&pb.ArtifactChunk{
		ArtifactId:  "art-3",
		ChunkIndex:  0,
		TotalChunks: 1,
		Data:        []byte("tampered"),
		Checksum:    Checksum([]byte("original")),
		Compression: pb.CompressionProto_COMPRESSION_NONE,
	})
	require.Error(t, err)

	// Assembly is discarded so a clean retry can start over
	out, _, err := r.Add(&pb.ArtifactChunk{
		ArtifactId:  "art-3",
		ChunkIndex:  0,
		TotalChunks: 1,
		Data:        []byte("original"),
		Checksum:    Checksum([]byte("original")),
		Compression: pb.CompressionProto_COMPRESSION_NONE,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), out)
}

func TestCachePutGetHas(t *testing.T) {
	cache, err := NewCache(t.TempDir(), "worker-1")
	require.NoError(t, err)

	payload := []byte("cached artifact")
	checksum := Checksum(payload)

	assert.False(t, cache.Has("art-1", checksum))
	require.NoError(t, cache.Put("art-1", checksum, payload))
	assert.True(t, cache.Has("art-1", checksum))
	assert.False(t, cache.Has("art-1", "other-checksum"))

	out, err := cache.Get("art-1")
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestCacheSurvivesRestart(t *testing.T) {
	base := t.TempDir()

	cache, err := NewCache(base, "worker-1")
	require.NoError(t, err)
	payload := []byte("persistent artifact")
	checksum := Checksum(payload)
	require.NoError(t, cache.Put("art-1", checksum, payload))

	reopened, err := NewCache(base, "worker-1")
	require.NoError(t, err)
	assert.True(t, reopened.Has("art-1", checksum))

	out, err := reopened.Get("art-1")
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestCacheSkipsCorruptIndexLines(t *testing.T) {
	base := t.TempDir()

	cache, err := NewCache(base, "worker-1")
	require.NoError(t, err)
	require.NoError(t, cache.Put("art-good", Checksum([]byte("good")), []byte("good")))

	index := filepath.Join(cache.Dir(), metadataFile)
	f, err := os.OpenFile(index, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("not a valid line\nart-bad|deadbeef|notanumber|0\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := NewCache(base, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	assert.True(t, reopened.Has("art-good", Checksum([]byte("good"))))
}

func TestCacheEvict(t *testing.T) {
	cache, err := NewCache(t.TempDir(), "worker-1")
	require.NoError(t, err)
	require.NoError(t, cache.Put("art-1", Checksum([]byte("x")), []byte("x")))
	require.NoError(t, cache.Evict("art-1"))
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Get("art-1")
	assert.Error(t, err)
}
