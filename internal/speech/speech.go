// Package speech provides the text-to-speech providers behind core.SpeechSynthesizer:
// Amazon Polly, the OpenAI speech endpoint and a self-hosted TTS HTTP service.
package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/book-expert/text-speech/internal/config"
	"github.com/book-expert/text-speech/internal/core"
)

// Audio output produced by every provider.
const (
	FormatMP3       = "mp3"
	ContentTypeMPEG = "audio/mpeg"
)

// New builds the synthesizer selected by cfg.TTS.Provider. awsCfg is only
// used by the polly provider.
func New(cfg *config.Config, awsCfg aws.Config) (core.SpeechSynthesizer, error) {
	switch cfg.TTS.Provider {
	case config.ProviderPolly:
		return NewPollySynthesizer(polly.NewFromConfig(awsCfg)), nil
	case config.ProviderOpenAI:
		return NewOpenAISynthesizer(cfg.TTS.OpenAIAPIKey, "", cfg.TTS.OpenAIModel, cfg.TTS.OpenAIVoice), nil
	case config.ProviderHTTP:
		timeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second

		return NewHTTPClient(cfg.TTS.ServiceURL, timeout), nil
	default:
		return nil, fmt.Errorf("%w: '%s'", config.ErrUnknownProvider, cfg.TTS.Provider)
	}
}

// HealthChecker is implemented by providers that can report their availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
