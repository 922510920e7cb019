package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/profilex/internal/api"
	"github.com/dgallion1/profilex/internal/chat"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat and extraction HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer a.Close()
	// The server logs to stdout like any other service.
	a.log = newStdoutLogger()

	if err := a.cfg.Validate(); err != nil {
		a.log.Error("invalid configuration", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch, err := a.orchestrator(ctx, pipeline.FullCapabilities())
	if err != nil {
		return err
	}

	jobs := pipeline.NewJobManager(pipeline.ManagerConfig{
		WorkerCount:      a.cfg.WorkerCount,
		MaxQueueSize:     a.cfg.MaxQueueSize,
		JobTTL:           a.cfg.JobTTL,
		ChallengeTimeout: a.cfg.ManualChallengeTimeout,
		OutputDir:        a.cfg.OutputDir,
	}, orch, a.log)
	jobs.Start(ctx)

	tools := chat.NewExecutor(orch, a.log)
	chatSvc := chat.NewService(a.openAI(), tools, a.log)
	srv := api.NewServer(a.cfg, chatSvc, tools, jobs, a.stats, a.log)

	// A tool call runs a whole extraction inside the request.
	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		a.log.Info("shutting down...")

		// Stop taking requests before the job queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		jobs.Stop()
	}()

	a.log.Info("starting profilex", "port", a.cfg.Port, "provider", a.cfg.ModelProvider, "model", a.cfg.ModelName())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.log.Error("server error", "error", err)
		return err
	}
	return nil
}
