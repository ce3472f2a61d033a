package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradefin/cfaam/internal/api"
	"github.com/tradefin/cfaam/internal/api/handlers"
	"github.com/tradefin/cfaam/internal/extraction"
	"github.com/tradefin/cfaam/internal/scheduler"
	"github.com/tradefin/cfaam/internal/scheduler/jobs"
)

// apiCmd starts the HTTP API server, and with it the daily scan scheduler.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the compliance API server",
	Long: `Starts the REST API server and the daily reminder scan scheduler.

Endpoints:
  GET  /health                 - Health check
  GET  /api/agreements         - List agreement records
  GET  /api/agreements/{ref}   - One agreement record
  POST /api/ingest             - Upload and extract an approval document
  POST /api/reminders/run      - Trigger a reminder scan now
  GET  /api/reminders/last     - Last run summary
  GET  /ws                     - Run summary feed (websocket)

Example:
  go run ./cmd/cfaam api
  go run ./cmd/cfaam api --port 8085 --no-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	noScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not start the scan scheduler")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	deps, err := initEngine()
	if err != nil {
		return err
	}
	defer deps.Close()

	if apiPort != "" {
		deps.cfg.Port = apiPort
	}

	log := deps.log

	feed := api.NewRunFeed(log)
	deps.service.AddSink(feed)

	// The extraction service is optional: without an API key the ingest
	// endpoint reports itself unavailable but reminders still run.
	var extractor *extraction.Service
	if deps.cfg.Extraction.APIKey != "" {
		extractor, err = extraction.NewService(deps.cfg, log)
		if err != nil {
			return fmt.Errorf("init extraction service: %w", err)
		}
	} else {
		log.Warn("EXTRACTION_API_KEY not set; document ingestion is disabled")
	}

	agreementHandler := handlers.NewAgreementHandler(deps.repo, deps.cache, log)
	reminderHandler := handlers.NewReminderHandler(deps.service, deps.limiter, deps.cfg, log)
	ingestHandler := handlers.NewIngestHandler(extractor, deps.repo, deps.cfg, log)

	router := api.NewRouter(agreementHandler, reminderHandler, ingestHandler, feed, log)
	server := api.New(deps.cfg, log, router)

	// Scheduler for the daily sweep, unless disabled.
	var sched *scheduler.Scheduler
	if !noScheduler {
		sched = scheduler.New(log)
		job := jobs.NewReminderScanJob(deps.service, deps.cfg.Scheduler.ScanSchedule, log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register reminder scan job: %w", err)
		}
		sched.Start()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", deps.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
