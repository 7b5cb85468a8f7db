package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	pb "github.com/hodei/pipelines/api/proto"
)

// Client wraps the control-plane gRPC client for CLI usage
type Client struct {
	conn  *grpc.ClientConn
	api   pb.ControlServiceClient
	token string
}

// New connects to the orchestrator's control API. An empty token disables
// bearer auth on outgoing calls.
func New(addr, token string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{
		conn:  conn,
		api:   pb.NewControlServiceClient(conn),
		token: token,
	}, nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) withAuth(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// SubmitJob submits a job for queueing and returns its assigned ID
func (c *Client) SubmitJob(ctx context.Context, req *pb.SubmitJobRequest) (*pb.SubmitJobResponse, error) {
	return c.api.SubmitJob(c.withAuth(ctx), req)
}

// GetJob fetches the current state of a job
func (c *Client) GetJob(ctx context.Context, jobID string) (*pb.GetJobResponse, error) {
	return c.api.GetJob(c.withAuth(ctx), &pb.GetJobRequest{JobId: jobID})
}

// CancelJob requests cancellation of a queued or running job
func (c *Client) CancelJob(ctx context.Context, jobID, reason string) (bool, error) {
	resp, err := c.api.CancelJob(c.withAuth(ctx), &pb.CancelJobRequest{JobId: jobID, Reason: reason})
	if err != nil {
		return false, err
	}
	return resp.GetCancelled(), nil
}

// StreamExecution follows an execution's event stream, invoking fn for every
// received event until the stream ends or fn returns an error.
func (c *Client) StreamExecution(ctx context.Context, executionID string, includeOutput, includeEvents bool, fn func(*pb.ExecutionEventProto) error) error {
	stream, err := c.api.StreamExecution(c.withAuth(ctx), &pb.StreamExecutionRequest{
		ExecutionId:   executionID,
		IncludeOutput: includeOutput,
		IncludeEvents: includeEvents,
	})
	if err != nil {
		return err
	}
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
