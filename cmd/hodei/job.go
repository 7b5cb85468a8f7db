package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/client"
	"github.com/hodei/pipelines/pkg/types"
)

const rpcTimeout = 10 * time.Second

// Job commands
var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Submit and manage jobs",
}

func init() {
	jobCmd.PersistentFlags().String("addr", "localhost:9090", "Orchestrator gRPC address")
	jobCmd.PersistentFlags().String("token", os.Getenv("HODEI_AUTH_TOKEN"), "Bearer token for authentication")

	jobCmd.AddCommand(jobSubmitCmd)
	jobCmd.AddCommand(jobGetCmd)
	jobCmd.AddCommand(jobCancelCmd)
	jobCmd.AddCommand(jobLogsCmd)

	jobSubmitCmd.Flags().String("script", "", "Inline shell script to run")
	jobSubmitCmd.Flags().String("script-file", "", "Path to a shell script to run")
	jobSubmitCmd.Flags().StringSlice("command", nil, "Command and arguments to run")
	jobSubmitCmd.Flags().StringSlice("env", nil, "Environment variables (KEY=VALUE)")
	jobSubmitCmd.Flags().String("queue", "default", "Target queue")
	jobSubmitCmd.Flags().String("namespace", "default", "Job namespace")
	jobSubmitCmd.Flags().String("priority", string(types.PriorityNormal), "Job priority")
	jobSubmitCmd.Flags().Duration("deadline", 0, "Relative deadline (0 means none)")
	jobSubmitCmd.Flags().Int32("max-attempts", 0, "Maximum queue attempts (0 uses the server default)")

	jobCancelCmd.Flags().String("reason", "", "Cancellation reason")

	jobLogsCmd.Flags().Bool("events", false, "Include lifecycle events alongside output")
}

func dial(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("addr")
	token, _ := cmd.Flags().GetString("token")
	return client.New(addr, token)
}

var jobSubmitCmd = &cobra.Command{
	Use:   "submit NAME",
	Short: "Submit a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, _ := cmd.Flags().GetString("script")
		scriptFile, _ := cmd.Flags().GetString("script-file")
		command, _ := cmd.Flags().GetStringSlice("command")
		envPairs, _ := cmd.Flags().GetStringSlice("env")
		queue, _ := cmd.Flags().GetString("queue")
		namespace, _ := cmd.Flags().GetString("namespace")
		priority, _ := cmd.Flags().GetString("priority")
		deadline, _ := cmd.Flags().GetDuration("deadline")
		maxAttempts, _ := cmd.Flags().GetInt32("max-attempts")

		if scriptFile != "" {
			data, err := os.ReadFile(scriptFile)
			if err != nil {
				return fmt.Errorf("failed to read script: %v", err)
			}
			script = string(data)
		}

		def := &pb.JobDefinitionProto{Env: parseEnv(envPairs)}
		switch {
		case script != "" && len(command) > 0:
			return fmt.Errorf("--script and --command are mutually exclusive")
		case script != "":
			def.Spec = &pb.JobDefinitionProto_ScriptContent{ScriptContent: script}
		case len(command) > 0:
			def.Spec = &pb.JobDefinitionProto_Command{Command: &pb.CommandSpec{Args: command}}
		default:
			return fmt.Errorf("one of --script, --script-file or --command is required")
		}

		req := &pb.SubmitJobRequest{
			Name:        args[0],
			Namespace:   namespace,
			QueueId:     queue,
			Priority:    priority,
			Definition:  def,
			MaxAttempts: maxAttempts,
		}
		if deadline > 0 {
			req.DeadlineMs = time.Now().Add(deadline).UnixMilli()
		}

		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
		defer cancel()

		resp, err := c.SubmitJob(ctx, req)
		if err != nil {
			return fmt.Errorf("submit failed: %v", err)
		}
		fmt.Printf("Job %s submitted (%s)\n", resp.GetJobId(), resp.GetStatus())
		return nil
	},
}

var jobGetCmd = &cobra.Command{
	Use:   "get JOB_ID",
	Short: "Show a job's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
		defer cancel()

		resp, err := c.GetJob(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Job: %s\n", resp.GetJobId())
		fmt.Printf("  Name: %s\n", resp.GetName())
		fmt.Printf("  Status: %s\n", resp.GetStatus())
		if resp.GetLatestExecutionId() != "" {
			fmt.Printf("  Execution: %s\n", resp.GetLatestExecutionId())
		}
		if resp.GetRetryCount() > 0 {
			fmt.Printf("  Retries: %d\n", resp.GetRetryCount())
		}
		if resp.GetFailureReason() != "" {
			fmt.Printf("  Failure: %s\n", resp.GetFailureReason())
		}
		return nil
	},
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel JOB_ID",
	Short: "Cancel a queued or running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")

		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
		defer cancel()

		cancelled, err := c.CancelJob(ctx, args[0], reason)
		if err != nil {
			return err
		}
		if !cancelled {
			return fmt.Errorf("job %s was not cancelled", args[0])
		}
		fmt.Printf("Job %s cancelled\n", args[0])
		return nil
	},
}

var jobLogsCmd = &cobra.Command{
	Use:   "logs EXECUTION_ID",
	Short: "Stream an execution's output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		includeEvents, _ := cmd.Flags().GetBool("events")

		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return c.StreamExecution(ctx, args[0], true, includeEvents, func(event *pb.ExecutionEventProto) error {
			if out := event.GetOutput(); out != nil {
				w := os.Stdout
				if out.GetStream() == pb.OutputStream_STDERR {
					w = os.Stderr
				}
				w.Write(out.GetData())
				return nil
			}
			fmt.Printf("[%s] %s\n", event.GetEventType(), event.GetMessage())
			return nil
		})
	},
}

func parseEnv(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
