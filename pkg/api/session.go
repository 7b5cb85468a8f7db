package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/artifact"
	"github.com/hodei/pipelines/pkg/types"
)

// cacheQueryTimeout bounds how long a transfer waits for the worker's
// cache answer before assuming a miss.
const cacheQueryTimeout = 10 * time.Second

// workerSession is the server side of one connected worker stream. It
// satisfies executor.Session so the execution engine can dispatch work
// without knowing about gRPC.
type workerSession struct {
	workerID string
	stream   pb.WorkerService_SessionServer

	sendMu sync.Mutex

	sender *artifact.Sender

	cacheMu sync.Mutex
	waiting map[string]chan bool
}

func newWorkerSession(workerID string, stream pb.WorkerService_SessionServer) *workerSession {
	s := &workerSession{
		workerID: workerID,
		stream:   stream,
		waiting:  make(map[string]chan bool),
	}
	s.sender = artifact.NewSender(s, artifact.DefaultChunkSize)
	return s
}

func (s *workerSession) WorkerID() string {
	return s.workerID
}

// send serializes writes; a grpc stream allows one concurrent sender only.
func (s *workerSession) send(msg *pb.ServerMessage) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.stream.Send(msg)
}

func (s *workerSession) SendJob(req *pb.JobRequest) error {
	return s.send(&pb.ServerMessage{Payload: &pb.ServerMessage_Job{Job: req}})
}

func (s *workerSession) SendSignal(sig *pb.ControlSignal) error {
	return s.send(&pb.ServerMessage{Payload: &pb.ServerMessage_Signal{Signal: sig}})
}

// SendChunk implements artifact.ChunkWriter.
func (s *workerSession) SendChunk(chunk *pb.ArtifactChunk) error {
	return s.send(&pb.ServerMessage{Payload: &pb.ServerMessage_Chunk{Chunk: chunk}})
}

// IsCached asks the worker whether it already holds the artifact content.
func (s *workerSession) IsCached(ctx context.Context, artifactID, checksum string) (bool, error) {
	ch := make(chan bool, 1)

	s.cacheMu.Lock()
	if _, dup := s.waiting[artifactID]; dup {
		s.cacheMu.Unlock()
		return false, fmt.Errorf("cache query for artifact %s already in flight", artifactID)
	}
	s.waiting[artifactID] = ch
	s.cacheMu.Unlock()

	defer func() {
		s.cacheMu.Lock()
		delete(s.waiting, artifactID)
		s.cacheMu.Unlock()
	}()

	query := &pb.ArtifactCacheQuery{ArtifactId: artifactID, Checksum: checksum}
	if err := s.send(&pb.ServerMessage{Payload: &pb.ServerMessage_CacheQuery{CacheQuery: query}}); err != nil {
		return false, fmt.Errorf("failed to send cache query: %w", err)
	}

	select {
	case cached := <-ch:
		return cached, nil
	case <-time.After(cacheQueryTimeout):
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// TransferArtifact streams the payload to the worker.
func (s *workerSession) TransferArtifact(ctx context.Context, artifactID string, payload []byte, compression types.CompressionType) error {
	_, err := s.sender.Transfer(ctx, artifactID, artifactID, payload, compression)
	return err
}

// handleCacheResponse resolves a pending cache query.
func (s *workerSession) handleCacheResponse(resp *pb.ArtifactCacheResponse) {
	s.cacheMu.Lock()
	ch, ok := s.waiting[resp.GetArtifactId()]
	s.cacheMu.Unlock()
	if ok {
		select {
		case ch <- resp.GetCached():
		default:
		}
	}
}

// handleArtifactAck routes a chunk acknowledgement to the transfer in flight.
func (s *workerSession) handleArtifactAck(ack *pb.ArtifactAck) {
	s.sender.HandleAck(ack)
}
