package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/executor"
	"github.com/hodei/pipelines/pkg/listener"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/orchestrator"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// DefaultHeartbeatInterval is advertised to workers in the register ack.
const DefaultHeartbeatInterval = 15 * time.Second

// Config wires the server to the orchestrator core.
type Config struct {
	Store        storage.Store
	Orchestrator *orchestrator.Orchestrator
	Executor     *executor.Engine
	Pools        *pool.Manager
	Hub          *Hub
	Listeners    *listener.Registry

	// AuthToken enables bearer-token auth on all RPCs when non-empty.
	AuthToken string

	HeartbeatInterval time.Duration
}

// Server exposes the worker session stream and the control plane over gRPC.
type Server struct {
	pb.UnimplementedWorkerServiceServer
	pb.UnimplementedControlServiceServer

	store     storage.Store
	orch      *orchestrator.Orchestrator
	exec      *executor.Engine
	pools     *pool.Manager
	hub       *Hub
	listeners *listener.Registry
	heartbeat time.Duration
	token     string

	grpcServer *grpc.Server
	logger     zerolog.Logger
}

// NewServer creates the API server.
func NewServer(cfg Config) *Server {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	return &Server{
		store:     cfg.Store,
		orch:      cfg.Orchestrator,
		exec:      cfg.Executor,
		pools:     cfg.Pools,
		hub:       cfg.Hub,
		listeners: cfg.Listeners,
		heartbeat: cfg.HeartbeatInterval,
		token:     cfg.AuthToken,
		logger:    log.WithComponent("api"),
	}
}

// Start listens on the given address and serves until Stop is called.
func (s *Server) Start(listenAddr string) error {
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	var opts []grpc.ServerOption
	if s.token != "" {
		opts = append(opts,
			grpc.UnaryInterceptor(AuthUnaryInterceptor(s.token)),
			grpc.StreamInterceptor(AuthStreamInterceptor(s.token)),
		)
	}

	s.grpcServer = grpc.NewServer(opts...)
	pb.RegisterWorkerServiceServer(s.grpcServer, s)
	pb.RegisterControlServiceServer(s.grpcServer, s)

	s.logger.Info().Str("address", listenAddr).Msg("api server listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

// Session is the worker's bidirectional stream. The first message must be a
// registration; afterwards the stream carries heartbeats, job output, status
// updates and artifact traffic until the worker disconnects.
func (s *Server) Session(stream pb.WorkerService_SessionServer) error {
	first, err := stream.Recv()
	if err != nil {
		return err
	}
	reg := first.GetRegister()
	if reg == nil {
		return status.Error(codes.InvalidArgument, "first message must be a registration")
	}

	sess, err := s.register(reg, stream)
	if err != nil {
		ack := &pb.RegisterAck{Accepted: false, Reason: err.Error()}
		_ = stream.Send(&pb.ServerMessage{Payload: &pb.ServerMessage_RegisterAck{RegisterAck: ack}})
		return status.Errorf(codes.FailedPrecondition, "registration rejected: %v", err)
	}

	s.logger.Info().Str("worker_id", sess.workerID).Str("pool_id", reg.GetPoolId()).Msg("worker connected")

	defer func() {
		s.hub.remove(sess)
		s.exec.OnWorkerLost(sess.workerID)
		s.pools.RemoveWorker(sess.workerID)
		s.logger.Info().Str("worker_id", sess.workerID).Msg("worker disconnected")
	}()

	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || stream.Context().Err() != nil {
				return nil
			}
			return err
		}

		switch payload := msg.Payload.(type) {
		case *pb.WorkerMessage_Heartbeat:
			if err := s.pools.Heartbeat(sess.workerID, ""); err != nil {
				s.logger.Warn().Err(err).Str("worker_id", sess.workerID).Msg("heartbeat for unknown worker")
			}
		case *pb.WorkerMessage_Output:
			s.exec.OnOutput(payload.Output)
		case *pb.WorkerMessage_Status:
			s.exec.OnStatus(payload.Status)
		case *pb.WorkerMessage_ArtifactAck:
			sess.handleArtifactAck(payload.ArtifactAck)
		case *pb.WorkerMessage_CacheResponse:
			sess.handleCacheResponse(payload.CacheResponse)
		default:
			s.logger.Warn().Str("worker_id", sess.workerID).Msg("unexpected message on worker stream")
		}
	}
}

func (s *Server) register(reg *pb.RegisterRequest, stream pb.WorkerService_SessionServer) (*workerSession, error) {
	if reg.GetWorkerId() == "" {
		return nil, &types.ValidationError{Field: "worker_id", Reason: "is required"}
	}

	worker := &types.Worker{
		ID:           reg.GetWorkerId(),
		PoolID:       reg.GetPoolId(),
		InstanceID:   reg.GetLabels()["instance_id"],
		Status:       types.WorkerStatusReady,
		Capabilities: capabilitiesFromProto(reg.GetCapabilities()),
		CreatedAt:    time.Now(),
	}
	if err := s.pools.RegisterWorker(worker); err != nil {
		return nil, err
	}

	sess := newWorkerSession(worker.ID, stream)
	s.hub.add(sess)

	ack := &pb.RegisterAck{Accepted: true, HeartbeatIntervalMs: s.heartbeat.Milliseconds()}
	if err := sess.send(&pb.ServerMessage{Payload: &pb.ServerMessage_RegisterAck{RegisterAck: ack}}); err != nil {
		s.hub.remove(sess)
		s.pools.RemoveWorker(worker.ID)
		return nil, fmt.Errorf("failed to ack registration: %w", err)
	}
	return sess, nil
}

// SubmitJob admits a job into a queue.
func (s *Server) SubmitJob(ctx context.Context, req *pb.SubmitJobRequest) (*pb.SubmitJobResponse, error) {
	if req.GetDefinition() == nil {
		return nil, status.Error(codes.InvalidArgument, "job definition is required")
	}

	job := &types.Job{
		Name:       req.GetName(),
		Namespace:  req.GetNamespace(),
		Priority:   types.JobPriority(req.GetPriority()),
		Definition: definitionFromProto(req.GetDefinition()),
	}
	opts := orchestrator.SubmitOptions{MaxAttempts: int(req.GetMaxAttempts())}
	if req.GetDeadlineMs() > 0 {
		opts.Deadline = time.UnixMilli(req.GetDeadlineMs())
	}

	qj, err := s.orch.Submit(job, req.GetQueueId(), opts)
	if err != nil {
		return nil, rpcError(err)
	}
	return &pb.SubmitJobResponse{
		JobId:  qj.Job.ID,
		Status: statusToProto(qj.Job.Status),
	}, nil
}

// GetJob returns the current state of a job.
func (s *Server) GetJob(ctx context.Context, req *pb.GetJobRequest) (*pb.GetJobResponse, error) {
	job, err := s.store.GetJob(req.GetJobId())
	if err != nil {
		return nil, rpcError(err)
	}
	return &pb.GetJobResponse{
		JobId:             job.ID,
		Name:              job.Name,
		Status:            statusToProto(job.Status),
		FailureReason:     job.FailureReason,
		LatestExecutionId: job.LatestExecutionID,
		RetryCount:        int32(job.RetryCount),
	}, nil
}

// CancelJob cancels a queued or running job.
func (s *Server) CancelJob(ctx context.Context, req *pb.CancelJobRequest) (*pb.CancelJobResponse, error) {
	if err := s.orch.Cancel(ctx, req.GetJobId()); err != nil {
		return nil, rpcError(err)
	}
	return &pb.CancelJobResponse{Cancelled: true}, nil
}

// StreamExecution streams lifecycle events and output for one execution.
func (s *Server) StreamExecution(req *pb.StreamExecutionRequest, stream pb.ControlService_StreamExecutionServer) error {
	if _, err := s.store.GetExecution(req.GetExecutionId()); err != nil {
		return rpcError(err)
	}

	opts := listener.Options{
		IncludeEvents: req.GetIncludeEvents(),
		IncludeOutput: req.GetIncludeOutput(),
	}
	if !opts.IncludeEvents && !opts.IncludeOutput {
		opts.IncludeEvents = true
		opts.IncludeOutput = true
	}

	sub, err := s.listeners.SubscribeStream(req.GetExecutionId(), opts)
	if err != nil {
		return rpcError(err)
	}
	defer s.listeners.Unsubscribe(req.GetExecutionId(), sub.ID)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case item, ok := <-sub.Items():
			if !ok {
				if errors.Is(sub.Err(), types.ErrOverflow) {
					return status.Error(codes.ResourceExhausted, "listener fell behind the execution stream")
				}
				return nil
			}
			if err := stream.Send(itemToProto(req.GetExecutionId(), item)); err != nil {
				return err
			}
		}
	}
}

// rpcError maps domain errors onto gRPC status codes.
func rpcError(err error) error {
	switch {
	case errors.Is(err, types.ErrAlreadyQueued):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, types.ErrQueueFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, types.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case types.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func statusToProto(st types.JobStatus) pb.JobStatusProto {
	switch st {
	case types.JobStatusPending, types.JobStatusQueued, types.JobStatusScheduled:
		return pb.JobStatusProto_JOB_STATUS_QUEUED
	case types.JobStatusRunning:
		return pb.JobStatusProto_JOB_STATUS_RUNNING
	case types.JobStatusCompleted:
		return pb.JobStatusProto_JOB_STATUS_SUCCESS
	case types.JobStatusFailed:
		return pb.JobStatusProto_JOB_STATUS_FAILED
	case types.JobStatusCancelled:
		return pb.JobStatusProto_JOB_STATUS_CANCELLED
	default:
		return pb.JobStatusProto_JOB_STATUS_UNSPECIFIED
	}
}

func definitionFromProto(def *pb.JobDefinitionProto) *types.JobDefinition {
	inline := &types.InlineSpec{Env: def.GetEnv()}
	switch spec := def.GetSpec().(type) {
	case *pb.JobDefinitionProto_ScriptContent:
		inline.ScriptContent = spec.ScriptContent
	case *pb.JobDefinitionProto_Command:
		inline.Command = spec.Command.GetArgs()
	}
	return &types.JobDefinition{Inline: inline}
}

func capabilitiesFromProto(c *pb.WorkerCapabilitiesProto) *types.WorkerCapabilities {
	if c == nil {
		return nil
	}
	return &types.WorkerCapabilities{
		Languages: c.GetLanguages(),
		Tools:     c.GetTools(),
		Features:  c.GetFeatures(),
	}
}

func itemToProto(executionID string, item *listener.Item) *pb.ExecutionEventProto {
	ev := &pb.ExecutionEventProto{ExecutionId: executionID}
	switch {
	case item.Event != nil:
		ev.EventType = string(item.Event.Type)
		ev.Message = item.Event.Message
		ev.TimestampMs = item.Event.Timestamp.UnixMilli()
	case item.Output != nil:
		ev.EventType = string(types.EventOutputReceived)
		ev.TimestampMs = item.Output.Timestamp.UnixMilli()
		streamKind := pb.OutputStream_STDOUT
		if item.Output.IsStderr {
			streamKind = pb.OutputStream_STDERR
		}
		ev.Output = &pb.JobOutput{
			ExecutionId: executionID,
			Stream:      streamKind,
			Data:        item.Output.Data,
			TimestampMs: item.Output.Timestamp.UnixMilli(),
		}
	}
	return ev
}
