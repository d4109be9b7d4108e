// main package for the tts-worker
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/app"
	"github.com/book-expert/text-speech/internal/config"
	"github.com/book-expert/text-speech/internal/worker"
)

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := app.NewLogger(os.TempDir(), "tts-worker-bootstrap.log")
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := app.NewLogger(cfg.Paths.BaseLogsDir, "tts-worker.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer closeLogger(finalLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, true)
	if err != nil {
		finalLog.Error("Failed to initialize clients: %v", err)

		return err
	}
	defer components.Close()

	handler, err := components.SynthesisHandler(finalLog)
	if err != nil {
		finalLog.Error("Failed to create synthesis handler: %v", err)

		return err
	}

	natsWorker, err := worker.NewNatsWorker(components.NATS, cfg.NATS.Subject, handler, finalLog)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	finalLog.System("TTS worker successfully initialized. Listening for notifications on subject: %s", cfg.NATS.Subject)

	err = natsWorker.Run(ctx)
	if err != nil {
		finalLog.Error("Worker stopped with error: %v", err)

		return err
	}

	finalLog.System("TTS worker stopped.")

	return nil
}

func closeLogger(log *logger.Logger) {
	closeErr := log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
	}
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
