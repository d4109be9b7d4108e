// main package for the upload function
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/book-expert/text-speech/internal/app"
	"github.com/book-expert/text-speech/internal/config"
)

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := app.NewLogger(cfg.Paths.BaseLogsDir, "upload-lambda.log")
	if err != nil {
		return err
	}

	components, err := app.Build(context.Background(), cfg, false)
	if err != nil {
		log.Error("Failed to initialize clients: %v", err)

		return err
	}

	handler, err := components.UploadHandler(log)
	if err != nil {
		log.Error("Failed to create upload handler: %v", err)

		return err
	}

	log.System("Upload function initialized for bucket %s (backend %s)", cfg.Storage.Bucket, cfg.Storage.Backend)

	// lambda.Start never returns.
	lambda.Start(handler.Handle)

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload function exited with error: %v\n", err)
		os.Exit(1)
	}
}
