package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/log"
)

// defaultCancelGrace applies when a cancel signal carries no grace period.
const defaultCancelGrace = time.Second

// run is one job subprocess in flight.
type run struct {
	executionID string
	kill        context.CancelFunc

	mu        sync.Mutex
	cmd       *exec.Cmd
	cancelled bool
}

// cancel asks the process to stop and kills it after the grace period.
func (r *run) cancel(grace time.Duration) {
	r.mu.Lock()
	r.cancelled = true
	proc := r.cmd.Process
	r.mu.Unlock()

	if proc != nil {
		_ = proc.Signal(syscall.SIGTERM)
	}
	if grace <= 0 {
		grace = defaultCancelGrace
	}
	time.AfterFunc(grace, r.kill)
}

func (r *run) wasCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// runJob executes one dispatched job and reports its terminal status.
func (a *Agent) runJob(ctx context.Context, req *pb.JobRequest) {
	execID := req.GetExecutionId()
	logger := log.WithExecutionID(execID)
	logger.Info().Str("job_id", req.GetJobId()).Msg("job started")

	a.sendStatus(execID, pb.JobStatusProto_JOB_STATUS_RUNNING, 0, "")

	result, exitCode, message := a.execute(ctx, req)
	a.sendStatus(execID, result, exitCode, message)

	logger.Info().
		Str("status", result.String()).
		Int32("exit_code", exitCode).
		Msg("job finished")
}

func (a *Agent) execute(ctx context.Context, req *pb.JobRequest) (pb.JobStatusProto, int32, string) {
	def := req.GetDefinition()
	if def == nil {
		return pb.JobStatusProto_JOB_STATUS_FAILED, -1, "job has no definition"
	}

	runCtx, kill := context.WithCancel(ctx)
	defer kill()
	if ms := req.GetTimeoutMs(); ms > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, time.Duration(ms)*time.Millisecond)
		defer cancelTimeout()
	}

	var cmd *exec.Cmd
	switch spec := def.GetSpec().(type) {
	case *pb.JobDefinitionProto_ScriptContent:
		script, err := a.writeScript(spec.ScriptContent)
		if err != nil {
			return pb.JobStatusProto_JOB_STATUS_FAILED, -1, err.Error()
		}
		defer os.Remove(script)
		cmd = exec.CommandContext(runCtx, "/bin/sh", script)
	case *pb.JobDefinitionProto_Command:
		args := spec.Command.GetArgs()
		if len(args) == 0 {
			return pb.JobStatusProto_JOB_STATUS_FAILED, -1, "command is empty"
		}
		cmd = exec.CommandContext(runCtx, args[0], args[1:]...)
	default:
		return pb.JobStatusProto_JOB_STATUS_FAILED, -1, "job definition has no spec"
	}

	cmd.Dir = a.cfg.WorkDir
	cmd.Env = os.Environ()
	for k, v := range def.GetEnv() {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if token := req.GetSessionToken(); token != "" {
		cmd.Env = append(cmd.Env, "HODEI_SESSION_TOKEN="+token)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return pb.JobStatusProto_JOB_STATUS_FAILED, -1, err.Error()
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return pb.JobStatusProto_JOB_STATUS_FAILED, -1, err.Error()
	}

	r := &run{executionID: req.GetExecutionId(), kill: kill, cmd: cmd}
	a.track(r)
	defer a.untrack(r.executionID)

	if err := cmd.Start(); err != nil {
		return pb.JobStatusProto_JOB_STATUS_FAILED, -1, err.Error()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go a.streamOutput(r.executionID, stdout, pb.OutputStream_STDOUT, &wg)
	go a.streamOutput(r.executionID, stderr, pb.OutputStream_STDERR, &wg)
	wg.Wait()

	waitErr := cmd.Wait()

	switch {
	case r.wasCancelled():
		return pb.JobStatusProto_JOB_STATUS_CANCELLED, exitCodeOf(waitErr), "cancelled"
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return pb.JobStatusProto_JOB_STATUS_FAILED, exitCodeOf(waitErr), "timed out"
	case waitErr != nil:
		return pb.JobStatusProto_JOB_STATUS_FAILED, exitCodeOf(waitErr), waitErr.Error()
	default:
		return pb.JobStatusProto_JOB_STATUS_SUCCESS, 0, ""
	}
}

// writeScript materialises inline script content as an executable temp file.
func (a *Agent) writeScript(content string) (string, error) {
	f, err := os.CreateTemp(a.cfg.WorkDir, "hodei-job-*.sh")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0o700); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// streamOutput forwards a pipe to the orchestrator chunk by chunk.
func (a *Agent) streamOutput(executionID string, rd io.Reader, stream pb.OutputStream, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, 32*1024)
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			out := &pb.JobOutput{
				ExecutionId: executionID,
				Stream:      stream,
				Data:        data,
				TimestampMs: time.Now().UnixMilli(),
			}
			if sendErr := a.send(&pb.WorkerMessage{Payload: &pb.WorkerMessage_Output{Output: out}}); sendErr != nil {
				a.logger.Warn().Err(sendErr).Str("execution_id", executionID).Msg("output send failed")
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (a *Agent) sendStatus(executionID string, st pb.JobStatusProto, exitCode int32, message string) {
	update := &pb.JobStatusUpdate{
		ExecutionId: executionID,
		Status:      st,
		ExitCode:    exitCode,
		Message:     message,
		TimestampMs: time.Now().UnixMilli(),
	}
	if err := a.send(&pb.WorkerMessage{Payload: &pb.WorkerMessage_Status{Status: update}}); err != nil {
		a.logger.Warn().Err(err).Str("execution_id", executionID).Msg("status send failed")
	}
}

func exitCodeOf(err error) int32 {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return int32(exitErr.ExitCode())
	}
	if err == nil {
		return 0
	}
	return -1
}
