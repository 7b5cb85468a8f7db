package worker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/artifact"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/resource"
	"github.com/hodei/pipelines/pkg/types"
)

const (
	// DefaultHeartbeatInterval applies until the register ack overrides it.
	DefaultHeartbeatInterval = 15 * time.Second

	// reconnectDelay is the pause between session attempts.
	reconnectDelay = 5 * time.Second
)

// Config holds worker agent configuration.
type Config struct {
	WorkerID         string
	PoolID           string
	OrchestratorAddr string
	AuthToken        string
	CacheDir         string
	WorkDir          string
	Labels           map[string]string
	Capabilities     *types.WorkerCapabilities
}

// FromEnv builds a Config from the environment the provisioner injects:
// WORKER_ID and WORKER_LABELS come from the instance spec, the rest from
// HODEI_* variables.
func FromEnv() Config {
	host := envOr("HODEI_ORCHESTRATOR_HOST", "localhost")
	port := envOr("HODEI_ORCHESTRATOR_PORT", "9090")

	cfg := Config{
		WorkerID:         envOr("WORKER_ID", "worker-"+resource.NewID()),
		PoolID:           envOr("HODEI_WORKER_POOL_ID", "default"),
		OrchestratorAddr: host + ":" + port,
		AuthToken:        os.Getenv("HODEI_AUTH_TOKEN"),
		CacheDir:         envOr("HODEI_CACHE_DIR", os.TempDir()),
		WorkDir:          envOr("HODEI_WORK_DIR", os.TempDir()),
		Labels:           parseLabels(os.Getenv("WORKER_LABELS")),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLabels parses "k=v,k2=v2" into a map. Malformed entries are skipped.
func parseLabels(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	labels := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		labels[k] = v
	}
	return labels
}

// Agent is the worker process. It holds one session stream open to the
// orchestrator, runs dispatched jobs as subprocesses and keeps a local
// artifact cache.
type Agent struct {
	cfg      Config
	cache    *artifact.Cache
	receiver *artifact.Receiver
	logger   zerolog.Logger

	sendMu sync.Mutex
	stream pb.WorkerService_SessionClient

	runsMu sync.Mutex
	runs   map[string]*run

	heartbeat time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewAgent creates a worker agent.
func NewAgent(cfg Config) (*Agent, error) {
	cache, err := artifact.NewCache(cfg.CacheDir, cfg.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact cache: %w", err)
	}
	return &Agent{
		cfg:       cfg,
		cache:     cache,
		receiver:  artifact.NewReceiver(),
		logger:    log.WithWorkerID(cfg.WorkerID).With().Str("component", "worker").Logger(),
		runs:      make(map[string]*run),
		heartbeat: DefaultHeartbeatInterval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Run connects to the orchestrator and serves sessions until the context is
// cancelled or Stop is called. Dropped sessions are re-established after a
// short delay.
func (a *Agent) Run(ctx context.Context) error {
	for {
		if err := a.session(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("session ended")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stopCh:
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// Stop makes Run return after the current session ends.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

func (a *Agent) session(ctx context.Context) error {
	conn, err := grpc.NewClient(a.cfg.OrchestratorAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", a.cfg.OrchestratorAddr, err)
	}
	defer conn.Close()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.cfg.AuthToken != "" {
		streamCtx = metadata.AppendToOutgoingContext(streamCtx, "authorization", "Bearer "+a.cfg.AuthToken)
	}

	stream, err := pb.NewWorkerServiceClient(conn).Session(streamCtx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	a.sendMu.Lock()
	a.stream = stream
	a.sendMu.Unlock()

	if err := a.register(); err != nil {
		return err
	}

	hbDone := make(chan struct{})
	go a.heartbeatLoop(streamCtx, hbDone)
	defer func() {
		cancel()
		<-hbDone
	}()

	return a.recvLoop(streamCtx, stream)
}

func (a *Agent) register() error {
	req := &pb.RegisterRequest{
		WorkerId: a.cfg.WorkerID,
		PoolId:   a.cfg.PoolID,
		Labels:   a.cfg.Labels,
	}
	if caps := a.cfg.Capabilities; caps != nil {
		req.Capabilities = &pb.WorkerCapabilitiesProto{
			Languages: caps.Languages,
			Tools:     caps.Tools,
			Features:  caps.Features,
		}
	}
	if err := a.send(&pb.WorkerMessage{Payload: &pb.WorkerMessage_Register{Register: req}}); err != nil {
		return fmt.Errorf("failed to send registration: %w", err)
	}

	msg, err := a.stream.Recv()
	if err != nil {
		return fmt.Errorf("failed to receive register ack: %w", err)
	}
	ack := msg.GetRegisterAck()
	if ack == nil {
		return fmt.Errorf("expected register ack, got %T", msg.GetPayload())
	}
	if !ack.GetAccepted() {
		return fmt.Errorf("registration rejected: %s", ack.GetReason())
	}
	if ms := ack.GetHeartbeatIntervalMs(); ms > 0 {
		a.heartbeat = time.Duration(ms) * time.Millisecond
	}

	a.logger.Info().Str("pool_id", a.cfg.PoolID).Msg("registered with orchestrator")
	return nil
}

func (a *Agent) recvLoop(ctx context.Context, stream pb.WorkerService_SessionClient) error {
	for {
		msg, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch payload := msg.Payload.(type) {
		case *pb.ServerMessage_Job:
			go a.runJob(ctx, payload.Job)
		case *pb.ServerMessage_Signal:
			a.handleSignal(payload.Signal)
		case *pb.ServerMessage_Chunk:
			a.handleChunk(payload.Chunk)
		case *pb.ServerMessage_CacheQuery:
			a.handleCacheQuery(payload.CacheQuery)
		default:
			a.logger.Warn().Msg("unexpected message on session stream")
		}
	}
}

// send serializes stream writes across the job goroutines.
func (a *Agent) send(msg *pb.WorkerMessage) error {
	a.sendMu.Lock()
	defer a.sendMu.Unlock()
	if a.stream == nil {
		return fmt.Errorf("session not established")
	}
	return a.stream.Send(msg)
}

func (a *Agent) heartbeatLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hb := &pb.HeartbeatRequest{
				WorkerId:           a.cfg.WorkerID,
				TimestampMs:        time.Now().UnixMilli(),
				RunningExecutionId: a.runningExecution(),
			}
			if err := a.send(&pb.WorkerMessage{Payload: &pb.WorkerMessage_Heartbeat{Heartbeat: hb}}); err != nil {
				a.logger.Warn().Err(err).Msg("heartbeat failed")
				return
			}
		}
	}
}

func (a *Agent) handleSignal(sig *pb.ControlSignal) {
	switch sig.GetType() {
	case pb.SignalType_SIGNAL_CANCEL:
		a.runsMu.Lock()
		r, ok := a.runs[sig.GetExecutionId()]
		a.runsMu.Unlock()
		if !ok {
			a.logger.Warn().Str("execution_id", sig.GetExecutionId()).Msg("cancel for unknown execution")
			return
		}
		grace := time.Duration(sig.GetGracePeriodMs()) * time.Millisecond
		r.cancel(grace)
	case pb.SignalType_SIGNAL_DRAIN, pb.SignalType_SIGNAL_SHUTDOWN:
		a.logger.Info().Str("signal", sig.GetType().String()).Msg("shutting down on orchestrator signal")
		a.Stop()
	}
}

func (a *Agent) handleChunk(chunk *pb.ArtifactChunk) {
	payload, meta, err := a.receiver.Add(chunk)

	ack := &pb.ArtifactAck{
		ArtifactId: chunk.GetArtifactId(),
		ChunkIndex: chunk.GetChunkIndex(),
		Ok:         err == nil,
	}
	if err != nil {
		ack.Error = err.Error()
		a.logger.Warn().Err(err).Str("artifact_id", chunk.GetArtifactId()).Msg("artifact chunk rejected")
	} else if payload != nil {
		if err := a.cache.Put(meta.ID, meta.Checksum, payload); err != nil {
			a.logger.Warn().Err(err).Str("artifact_id", meta.ID).Msg("failed to cache artifact")
		}
	}

	if err := a.send(&pb.WorkerMessage{Payload: &pb.WorkerMessage_ArtifactAck{ArtifactAck: ack}}); err != nil {
		a.logger.Warn().Err(err).Msg("failed to ack artifact chunk")
	}
}

func (a *Agent) handleCacheQuery(query *pb.ArtifactCacheQuery) {
	resp := &pb.ArtifactCacheResponse{
		ArtifactId: query.GetArtifactId(),
		Cached:     a.cache.Has(query.GetArtifactId(), query.GetChecksum()),
	}
	if err := a.send(&pb.WorkerMessage{Payload: &pb.WorkerMessage_CacheResponse{CacheResponse: resp}}); err != nil {
		a.logger.Warn().Err(err).Msg("failed to answer cache query")
	}
}

func (a *Agent) runningExecution() string {
	a.runsMu.Lock()
	defer a.runsMu.Unlock()
	for id := range a.runs {
		return id
	}
	return ""
}

func (a *Agent) track(r *run) {
	a.runsMu.Lock()
	defer a.runsMu.Unlock()
	a.runs[r.executionID] = r
}

func (a *Agent) untrack(executionID string) {
	a.runsMu.Lock()
	defer a.runsMu.Unlock()
	delete(a.runs, executionID)
}
