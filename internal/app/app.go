// Package app wires configuration into the handlers shared by the commands.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/config"
	"github.com/book-expert/text-speech/internal/core"
	"github.com/book-expert/text-speech/internal/objectstore"
	"github.com/book-expert/text-speech/internal/speech"
	"github.com/book-expert/text-speech/internal/synthesis"
	"github.com/book-expert/text-speech/internal/upload"
	"github.com/nats-io/nats.go"
)

// Components holds the clients built once per process.
type Components struct {
	Config *config.Config
	AWS    aws.Config
	Store  core.ObjectStore
	NATS   *nats.Conn
}

// Build creates the AWS configuration, the NATS connection (when the nats
// backend is selected or needNATS is set) and the object store.
func Build(ctx context.Context, cfg *config.Config, needNATS bool) (*Components, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	components := &Components{Config: cfg, AWS: awsCfg}

	var jetstreamContext nats.JetStreamContext

	if needNATS || cfg.Storage.Backend == config.BackendNATS {
		components.NATS, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}

		jetstreamContext, err = components.NATS.JetStream()
		if err != nil {
			components.Close()

			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
	}

	components.Store, err = objectstore.New(cfg.Storage, awsCfg, jetstreamContext)
	if err != nil {
		components.Close()

		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	return components, nil
}

// Close releases the NATS connection, if any.
func (c *Components) Close() {
	if c.NATS != nil {
		c.NATS.Close()
	}
}

// UploadHandler builds the upload function handler.
func (c *Components) UploadHandler(log *logger.Logger) (*upload.Handler, error) {
	err := c.Config.ValidateUpload()
	if err != nil {
		return nil, fmt.Errorf("invalid upload configuration: %w", err)
	}

	handler, err := upload.NewHandler(c.Store, upload.Options{
		Bucket:         c.Config.Storage.Bucket,
		KeyPrefix:      c.Config.Upload.KeyPrefix,
		MaxUploadBytes: c.Config.Upload.MaxUploadBytes,
		Now:            nil,
		NewID:          nil,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload handler: %w", err)
	}

	return handler, nil
}

// SynthesisHandler builds the speech synthesis function handler.
func (c *Components) SynthesisHandler(log *logger.Logger) (*synthesis.Handler, error) {
	synthesizer, err := speech.New(c.Config, c.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech synthesizer: %w", err)
	}

	handler, err := synthesis.NewHandler(c.Store, synthesizer, synthesis.Options{
		VoiceID:       c.Config.TTS.VoiceID,
		LanguageCode:  c.Config.TTS.LanguageCode,
		OutputPrefix:  c.Config.TTS.OutputPrefix,
		MaxCharacters: c.Config.TTS.MaxCharacters,
		Now:           nil,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis handler: %w", err)
	}

	return handler, nil
}

// NewLogger creates the process logger in dir, falling back to the temp
// directory when dir is empty.
func NewLogger(dir, name string) (*logger.Logger, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	log, err := logger.New(dir, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", dir, err)
	}

	return log, nil
}
