package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/emirhncann/portable-thermal-printer/internal/api"
	"github.com/emirhncann/portable-thermal-printer/internal/config"
	"github.com/emirhncann/portable-thermal-printer/internal/core"
	"github.com/emirhncann/portable-thermal-printer/internal/db"
	"github.com/emirhncann/portable-thermal-printer/internal/logger"
	"github.com/emirhncann/portable-thermal-printer/internal/raster"
	"github.com/emirhncann/portable-thermal-printer/internal/transport"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
	"github.com/emirhncann/portable-thermal-printer/internal/webhook"
)

// historyRecorder writes terminal job outcomes to the job_history table.
type historyRecorder struct{}

func (historyRecorder) RecordJob(s core.JobSnapshot) error {
	return db.Jobs.CreateRecord(context.Background(), &db.JobRecord{
		ID:           s.ID,
		State:        s.State.String(),
		PagesPrinted: s.Page,
		TotalPages:   s.TotalPages,
		ErrorMessage: s.Reason,
		SubmittedBy:  s.SubmittedBy,
		CreatedAt:    s.CreatedAt,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	if err := run(cfg, log); err != nil {
		log.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer db.Close()

	printer, err := transport.New(cfg.Printer)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	encoder := tspl.NewEncoder(printer.Capabilities(), log.Named("tspl"))
	rasterizer := raster.NewRasterizer(cfg.Pipeline.Supersample)

	orchestrator := core.NewOrchestrator(
		printer,
		encoder,
		rasterizer,
		cfg.Pipeline.SpoolDir,
		cfg.Pipeline.SettleDelay,
		log.Named("orchestrator"),
	)

	manager := core.NewManager(orchestrator, historyRecorder{}, log.Named("manager"))

	pruner := db.NewPruner(90, log.Named("pruner"))
	pruner.Start()
	defer pruner.Stop()

	sender := webhook.NewSender(webhook.Config{}, log.Named("webhook"))
	sender.Start()
	defer sender.Stop()
	manager.AddSink(sender)

	if err := manager.Start(); err != nil {
		return fmt.Errorf("failed to start job manager: %w", err)
	}
	defer manager.Stop()

	router, err := api.NewRouter(api.RouterConfig{
		Manager:     manager,
		Config:      cfg,
		PrinterCaps: printer.Capabilities(),
		Logger:      log.Named("http"),
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("printer", cfg.Printer.Name),
			zap.String("printer_kind", cfg.Printer.Kind),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
