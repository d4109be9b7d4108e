package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/book-expert/text-speech/internal/core"
)

// PollyAPI is the subset of the Polly client used by PollySynthesizer.
type PollyAPI interface {
	SynthesizeSpeech(
		ctx context.Context,
		params *polly.SynthesizeSpeechInput,
		optFns ...func(*polly.Options),
	) (*polly.SynthesizeSpeechOutput, error)
}

// PollySynthesizer implements core.SpeechSynthesizer with Amazon Polly.
type PollySynthesizer struct {
	client PollyAPI
}

// NewPollySynthesizer wraps a Polly client.
func NewPollySynthesizer(client PollyAPI) *PollySynthesizer {
	return &PollySynthesizer{client: client}
}

// Synthesize requests speech for req.Text and reads the whole audio stream.
func (p *PollySynthesizer) Synthesize(ctx context.Context, req core.SpeechRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrTextEmpty
	}

	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(req.Text),
		OutputFormat: types.OutputFormat(req.OutputFormat),
		VoiceId:      types.VoiceId(req.VoiceID),
	}

	if req.LanguageCode != "" {
		input.LanguageCode = types.LanguageCode(req.LanguageCode)
	}

	out, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("polly synthesize speech failed: %w", err)
	}

	if out.AudioStream == nil {
		return nil, ErrEmptyAudio
	}
	defer out.AudioStream.Close()

	audioData, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("failed to read polly audio stream: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}
