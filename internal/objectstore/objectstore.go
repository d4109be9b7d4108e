// Package objectstore provides the core.ObjectStore backends: Amazon S3,
// S3-compatible servers through MinIO, and NATS JetStream object stores.
package objectstore

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/book-expert/text-speech/internal/config"
	"github.com/book-expert/text-speech/internal/core"
	"github.com/nats-io/nats.go"
)

// ErrJetStreamRequired is returned when the nats backend is selected without a JetStream context.
var ErrJetStreamRequired = errors.New("nats backend requires a JetStream context")

// New builds the backend selected by cfg.Backend. awsCfg is used by the s3
// backend and jetstreamContext by the nats backend; either may be zero for
// the other backends.
func New(cfg config.StorageConfig, awsCfg aws.Config, jetstreamContext nats.JetStreamContext) (core.ObjectStore, error) {
	switch cfg.Backend {
	case config.BackendS3:
		client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
			if cfg.Endpoint != "" {
				options.BaseEndpoint = aws.String(cfg.Endpoint)
				options.UsePathStyle = true
			}
		})

		return NewS3ObjectStore(client), nil
	case config.BackendMinio:
		return NewMinioObjectStore(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Region, cfg.UseSSL)
	case config.BackendNATS:
		if jetstreamContext == nil {
			return nil, ErrJetStreamRequired
		}

		return NewNatsObjectStore(jetstreamContext), nil
	default:
		return nil, fmt.Errorf("%w: '%s'", config.ErrUnknownBackend, cfg.Backend)
	}
}
