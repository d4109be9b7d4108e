// main package for the local upload server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/text-speech/internal/app"
	"github.com/book-expert/text-speech/internal/config"
	"github.com/book-expert/text-speech/internal/server"
)

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := app.NewLogger(cfg.Paths.BaseLogsDir, "upload-server.log")
	if err != nil {
		return err
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, false)
	if err != nil {
		log.Error("Failed to initialize clients: %v", err)

		return err
	}
	defer components.Close()

	uploadHandler, err := components.UploadHandler(log)
	if err != nil {
		return err
	}

	synthesisHandler, err := components.SynthesisHandler(log)
	if err != nil {
		return err
	}

	srv, err := server.New(uploadHandler.Handle, synthesisHandler.Handle, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload server exited with error: %v\n", err)
		os.Exit(1)
	}
}
