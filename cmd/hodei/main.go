package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hodei/pipelines/pkg/api"
	"github.com/hodei/pipelines/pkg/artifact"
	"github.com/hodei/pipelines/pkg/bootstrap"
	"github.com/hodei/pipelines/pkg/config"
	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/events"
	"github.com/hodei/pipelines/pkg/executor"
	"github.com/hodei/pipelines/pkg/listener"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/metrics"
	"github.com/hodei/pipelines/pkg/monitor"
	"github.com/hodei/pipelines/pkg/orchestrator"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/quota"
	"github.com/hodei/pipelines/pkg/reconciler"
	"github.com/hodei/pipelines/pkg/scheduler"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
	"github.com/hodei/pipelines/pkg/worker"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hodei",
	Short: "Hodei - Distributed CI/CD job orchestrator",
	Long: `Hodei schedules CI/CD jobs onto elastic worker pools backed by
containerd, with quota enforcement, artifact distribution and live
execution streaming, delivered as a single binary.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Hodei version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(jobCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the orchestrator",
	Long: `Run the Hodei orchestrator: the gRPC control plane, the worker
session endpoint, the scheduler and the queue processor, all in one
process backed by an embedded database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		logLevel, _ := cmd.Flags().GetString("log-level")

		log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: true})
		metrics.SetVersion(Version)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("listen-addr"); addr != "" {
			cfg.Server.ListenAddr = addr
		}
		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.Storage.DataDir = dir
		}
		if path, _ := cmd.Flags().GetString("bootstrap"); path != "" {
			cfg.Bootstrap.Path = path
		}

		fmt.Println("Starting Hodei orchestrator...")
		fmt.Printf("  API Address: %s\n", cfg.Server.ListenAddr)
		fmt.Printf("  Health Address: %s\n", cfg.Server.HealthAddr)
		fmt.Printf("  Data Directory: %s\n", cfg.Storage.DataDir)
		fmt.Println()

		return runServer(cfg)
	},
}

func runServer(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewBoltStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %v", err)
	}
	defer store.Close()
	metrics.RegisterComponent("storage", true, "")
	fmt.Println("✓ Store opened")

	drv, err := driver.NewContainerdDriver(cfg.Driver.Socket)
	if err != nil {
		return fmt.Errorf("failed to connect to containerd: %v", err)
	}
	defer drv.Close()
	metrics.RegisterComponent("containerd", true, "")
	go probeDriver(ctx, drv)
	fmt.Println("✓ Containerd driver connected")

	heartbeat := cfg.Server.HeartbeatInterval.Std()
	if heartbeat <= 0 {
		heartbeat = api.DefaultHeartbeatInterval
	}

	artifactDir := cfg.Artifacts.Dir
	if artifactDir == "" {
		artifactDir = filepath.Join(cfg.Storage.DataDir, "artifacts")
	}
	library, err := artifact.NewLibrary(artifactDir, store)
	if err != nil {
		return fmt.Errorf("failed to open artifact library: %v", err)
	}

	quotaEngine := quota.NewEngine(store, quota.Config{MonitorInterval: cfg.Quota.MonitorInterval.Std()})
	quotaEngine.Start(ctx)
	defer quotaEngine.Shutdown()

	pools := pool.NewManager(4 * heartbeat)

	if cfg.Bootstrap.Path != "" {
		manifest, err := bootstrap.Load(cfg.Bootstrap.Path)
		if err != nil {
			return err
		}
		if err := bootstrap.Apply(store, pools, manifest); err != nil {
			return fmt.Errorf("bootstrap failed: %v", err)
		}
		fmt.Println("✓ Bootstrap manifest applied")
	}

	mon := monitor.New(store, drv, monitor.Config{Interval: cfg.Monitor.Interval.Std()})
	mon.Start(ctx)
	defer mon.Stop()

	hub := api.NewHub()
	registry := listener.NewRegistry()
	defer registry.Shutdown()
	broker := events.NewEventBroker()
	defer broker.Stop()

	engine := executor.NewEngine(executor.Config{
		Store:     store,
		Quota:     quotaEngine,
		Pools:     pools,
		Driver:    drv,
		Hub:       hub,
		Listeners: registry,
		Artifacts: library,
		Events:    broker,
	})
	sched := scheduler.NewScheduler(store, quotaEngine, pools)

	orch := orchestrator.New(store, sched, engine, broker, orchestrator.Config{
		ProcessInterval: cfg.Orchestrator.ProcessInterval.Std(),
	})
	orch.Start(ctx)
	defer orch.Stop()
	fmt.Println("✓ Orchestrator started")

	recon := reconciler.New(pools, drv, engine, reconciler.Config{})
	recon.Start(ctx)
	defer recon.Stop()
	fmt.Println("✓ Reconciler started")

	scaler := pool.NewAutoscaler(pools, drv)
	advertisePort := "9090"
	if _, port, err := net.SplitHostPort(cfg.Server.ListenAddr); err == nil && port != "" {
		advertisePort = port
	}
	scaler.SetAdvertise(cfg.Server.AdvertiseHost, advertisePort)

	supervisor := pool.NewSupervisor(scaler, pools, store, pool.SupervisorConfig{
		Utilization: mon.Subscribe(),
		OnAction: func(poolID string, action *types.ScaleAction) {
			metrics.ScaleActions.WithLabelValues(poolID, string(action.Direction)).Inc()
		},
	})
	supervisor.Start(ctx)
	defer supervisor.Stop()
	fmt.Println("✓ Autoscaler started")

	collector := metrics.NewCollector(store, pools, mon)
	collector.Start()
	defer collector.Stop()

	server := api.NewServer(api.Config{
		Store:             store,
		Orchestrator:      orch,
		Executor:          engine,
		Pools:             pools,
		Hub:               hub,
		Listeners:         registry,
		AuthToken:         cfg.Server.AuthToken,
		HeartbeatInterval: heartbeat,
	})
	errCh := make(chan error, 2)
	go func() {
		if err := server.Start(cfg.Server.ListenAddr); err != nil {
			errCh <- fmt.Errorf("API server error: %v", err)
		}
	}()
	defer server.Stop()
	metrics.RegisterComponent("api", true, "")

	health := api.NewHealthServer(store, hub)
	go func() {
		if err := health.Start(cfg.Server.HealthAddr); err != nil {
			errCh <- fmt.Errorf("health server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		health.Stop(shutdownCtx)
	}()
	fmt.Println("✓ API server started")

	fmt.Println()
	fmt.Println("Orchestrator is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}

	cancel()
	fmt.Println("✓ Shutdown complete")
	return nil
}

// probeDriver keeps the containerd component's health current.
func probeDriver(ctx context.Context, drv driver.Driver) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h, err := drv.HealthCheck(ctx)
			switch {
			case err != nil:
				metrics.UpdateComponent("containerd", false, err.Error())
			case !h.Healthy:
				metrics.UpdateComponent("containerd", false, "daemon unhealthy")
			default:
				metrics.UpdateComponent("containerd", true, "")
			}
		}
	}
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the worker agent",
	Long: `Run the Hodei worker agent inside a provisioned instance. The agent
registers with the orchestrator, heartbeats over its session stream and
executes dispatched jobs as local subprocesses.

Configuration comes from HODEI_* environment variables; flags override.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel, _ := cmd.Flags().GetString("log-level")
		log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: true})

		cfg := worker.FromEnv()
		if addr, _ := cmd.Flags().GetString("orchestrator-addr"); addr != "" {
			cfg.OrchestratorAddr = addr
		}
		if id, _ := cmd.Flags().GetString("worker-id"); id != "" {
			cfg.WorkerID = id
		}
		if poolID, _ := cmd.Flags().GetString("pool-id"); poolID != "" {
			cfg.PoolID = poolID
		}

		agent, err := worker.NewAgent(cfg)
		if err != nil {
			return fmt.Errorf("failed to create agent: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Worker %s joining pool %s via %s\n", cfg.WorkerID, cfg.PoolID, cfg.OrchestratorAddr)
		if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().String("config", "", "Path to YAML configuration file")
	serverCmd.Flags().String("listen-addr", "", "Override the gRPC listen address")
	serverCmd.Flags().String("data-dir", "", "Override the data directory")
	serverCmd.Flags().String("bootstrap", "", "Path to a seed manifest applied at startup")
	serverCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	workerCmd.Flags().String("orchestrator-addr", "", "Orchestrator address (host:port)")
	workerCmd.Flags().String("worker-id", "", "Worker ID")
	workerCmd.Flags().String("pool-id", "", "Worker pool ID")
	workerCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
