// Package main is the entry point for the orchestrator service: the
// control-plane host process that owns the in-memory core (lifecycle,
// scheduler, journal, ...) and exposes it over HTTP and WebSocket.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kandev/kandev/internal/common/config"
	"github.com/kandev/kandev/internal/common/database"
	"github.com/kandev/kandev/internal/common/httpmw"
	"github.com/kandev/kandev/internal/common/logger"
	"github.com/kandev/kandev/internal/core/clock"
	"github.com/kandev/kandev/internal/core/convlog"
	"github.com/kandev/kandev/internal/core/convlog/fsstore"
	"github.com/kandev/kandev/internal/core/diagnosis"
	"github.com/kandev/kandev/internal/core/journal"
	"github.com/kandev/kandev/internal/core/journalstore"
	"github.com/kandev/kandev/internal/core/lifecycle"
	"github.com/kandev/kandev/internal/core/messenger"
	"github.com/kandev/kandev/internal/core/notify"
	"github.com/kandev/kandev/internal/core/remote"
	"github.com/kandev/kandev/internal/core/scheduler"
	"github.com/kandev/kandev/internal/core/sessionbackend"
	"github.com/kandev/kandev/internal/core/sessionbackend/dockerbackend"
	"github.com/kandev/kandev/internal/core/spawnqueue"
	"github.com/kandev/kandev/internal/core/taskgraph"
	"github.com/kandev/kandev/internal/core/telemetry"
	"github.com/kandev/kandev/internal/core/watcher"
	"github.com/kandev/kandev/internal/events/bus"
	wsgateway "github.com/kandev/kandev/internal/gateway/websocket"
	"github.com/kandev/kandev/internal/hostapi"
)

const serverName = "orchestrator"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)
	log.Info("Starting orchestrator service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sysClock := clock.SystemClock{}
	seq := &clock.Sequence{}

	// --- Core managers (spec.md §4) ---
	lifecycleMgr := lifecycle.NewManager(lifecycle.Config{
		StallTimeoutMs:      cfg.Engine.StallTimeoutMs,
		MaxRecoveryAttempts: cfg.Engine.MaxRecoveryAttempts,
	})
	tasks := taskgraph.New()
	sched := scheduler.New(scheduler.Policy{Kind: scheduler.Fifo})
	notifyCenter := notify.New(1000)
	spawnQueue := spawnqueue.New(cfg.Engine.SpawnConcurrency)
	msgr := messenger.New()
	diagEngine := diagnosis.New(1000)
	outWatcher := watcher.New(nil, nil, 2000)
	remoteExec := remote.NewExecutor()
	syncMgr := remote.NewSyncManager(4)
	workerPool := remote.NewPool(4)

	jrnl := journal.New(cfg.Engine.JournalMaxEntries)

	convTailer := convlog.New(fsstore.New(), convlog.Config{
		Enabled:       true,
		RetentionDays: 30,
	})

	// --- Optional Postgres-backed journal persistence ---
	var db *database.DB
	if cfg.Database.Driver == "postgres" {
		db, err = database.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		log.Info("Connected to PostgreSQL")

		store := journalstore.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate journal store", zap.Error(err))
		}
		entries, err := store.LoadEntries(ctx)
		if err != nil {
			log.Fatal("Failed to load journal entries", zap.Error(err))
		}
		if len(entries) > 0 {
			jrnl = journal.NewFromEntries(entries, cfg.Engine.JournalMaxEntries)
			seq.Reset(int64(entries[len(entries)-1].Sequence))
			log.Info("Replayed journal from Postgres", zap.Int("entries", len(entries)))
		}
	}

	// --- Event bus: NATS in production, in-memory when unconfigured ---
	var eventBus bus.EventBus
	if cfg.NATS.URL != "" {
		natsBus, err := bus.NewNATSEventBus(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsBus.Close()
		eventBus = natsBus
		log.Info("Connected to NATS event bus")
	} else {
		eventBus = bus.NewMemoryEventBus(log)
		log.Info("Using in-memory event bus")
	}
	_ = eventBus // constructed for its connection lifecycle; nothing in this host publishes to it

	// --- Session backend: Docker-exec'd tmux sessions ---
	var backend sessionbackend.Backend
	if cfg.Docker.Enabled {
		dockerBackend, err := dockerbackend.New(cfg.Docker, log, "")
		if err != nil {
			log.Warn("Docker session backend unavailable, agents will not be spawnable", zap.Error(err))
		} else {
			backend = dockerBackend
			defer dockerBackend.Close()
		}
	}
	_ = backend
	_ = outWatcher
	_ = remoteExec
	_ = syncMgr
	_ = workerPool
	_ = msgr
	_ = diagEngine
	_ = convTailer
	_ = jrnl
	_ = seq

	telemetry.Tracer(serverName) // forces lazy initTracing() so shutdown has something to flush
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown error", zap.Error(err))
		}
	}()

	deps := hostapi.Deps{
		Lifecycle: lifecycleMgr,
		Tasks:     tasks,
		Scheduler: sched,
		Notify:    notifyCenter,
		Spawn:     spawnQueue,
		Settings:  map[string]string{"engine.stallTimeoutMs": fmt.Sprintf("%d", cfg.Engine.StallTimeoutMs)},
		Now:       sysClock.NowMs,
	}

	// --- WebSocket gateway ---
	gateway := wsgateway.NewGateway(log)
	gateway.BindDeps(deps)
	go gateway.Hub.Run(ctx)

	// --- HTTP server ---
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(log, serverName))
	router.Use(httpmw.OtelTracing(serverName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/command", func(c *gin.Context) {
		var body struct {
			Command string `json:"command"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		out, err := hostapi.Dispatch(body.Command, deps)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"output": out})
	})

	gateway.SetupRoutes(router)

	port := cfg.Server.Port
	if port == 0 {
		port = 8082
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	go func() {
		log.Info("HTTP server listening", zap.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down orchestrator service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("orchestrator service stopped")
}
