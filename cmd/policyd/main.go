package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/policy-extract/internal/async"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/bootstrap"
	"github.com/joseph-ayodele/policy-extract/internal/common"
	"github.com/joseph-ayodele/policy-extract/internal/export"
	"github.com/joseph-ayodele/policy-extract/internal/ingest"
	"github.com/joseph-ayodele/policy-extract/internal/llm/provider"
	svc "github.com/joseph-ayodele/policy-extract/internal/server"
	ingestsvc "github.com/joseph-ayodele/policy-extract/internal/services/ingest"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to read .env", "error", err)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := provider.New(cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to build extraction client", "error", err)
		os.Exit(2)
	}

	ledger, err := bootstrap.OpenLedger(ctx, cfg.Database, false, extractor.Model(), logger)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close(logger)

	master, cache, err := bootstrap.MasterData(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up master data", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	b := batch.New(
		batch.WithConfidence(cfg.Batch.BaselineConfidence),
		batch.WithLogger(logger),
	)
	if ledger.Service != nil {
		b.Subscribe(ledger.Service.Listener())
	}

	queue := async.NewProcessorQueue(b, extractor, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.ProcessTimeout),
	)
	ingestService := ingestsvc.NewService(ingest.NewFSIngestor(logger), b, queue, logger)

	opts := []svc.Option{
		svc.WithQueue(queue),
		svc.WithExporter(export.NewExporter(export.WithLogger(logger))),
	}
	if master != nil {
		opts = append(opts, svc.WithMasterData(master))
	}
	if ledger.Service != nil {
		opts = append(opts, svc.WithHistory(ledger.Service))
	}
	batchServer := svc.NewBatchServer(b, ingestService, extractor, logger, opts...)

	// gRPC server
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(svc.LoggingInterceptor(logger)))
	svc.RegisterBatchServiceServer(grpcServer, batchServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if cfg.Server.Reflection {
		reflection.Register(grpcServer)
	}

	logger.Info("policyd listening", "addr", addr, "batch_id", b.ID())
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Batch.ProcessTimeout+5*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	b.Clear()
}
