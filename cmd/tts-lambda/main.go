// main package for the speech synthesis function
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

	log, err := app.NewLogger(cfg.Paths.BaseLogsDir, "tts-lambda.log")
	if err != nil {
		return err
	}

	components, err := app.Build(context.Background(), cfg, false)
	if err != nil {
		log.Error("Failed to initialize clients: %v", err)

		return err
	}

	handler, err := components.SynthesisHandler(log)
	if err != nil {
		log.Error("Failed to create synthesis handler: %v", err)

		return err
	}

	log.System("Speech synthesis function initialized (provider %s, voice %s)", cfg.TTS.Provider, cfg.TTS.VoiceID)

	// lambda.Start never returns.
	lambda.Start(handler.Handle)

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Speech synthesis function exited with error: %v\n", err)
		os.Exit(1)
	}
}
