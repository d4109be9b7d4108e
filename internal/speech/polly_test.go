// Package speech_test tests the speech providers.
package speech_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/book-expert/text-speech/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockPolly = errors.New("mock polly error")

// mockPolly is a mock implementation of speech.PollyAPI.
type mockPolly struct {
	shouldFail bool
	audio      string
	lastInput  *polly.SynthesizeSpeechInput
}

func (m *mockPolly) SynthesizeSpeech(
	_ context.Context,
	params *polly.SynthesizeSpeechInput,
	_ ...func(*polly.Options),
) (*polly.SynthesizeSpeechOutput, error) {
	m.lastInput = params

	if m.shouldFail {
		return nil, errMockPolly
	}

	return &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(strings.NewReader(m.audio)),
		ContentType: aws.String("audio/mpeg"),
	}, nil
}

func TestPollySynthesizer_Synthesize(t *testing.T) {
	t.Parallel()

	client := &mockPolly{audio: "ID3-mp3-bytes"}
	synthesizer := speech.NewPollySynthesizer(client)

	audioData, err := synthesizer.Synthesize(context.Background(), standardSpeechRequest())
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3-mp3-bytes"), audioData)
	require.NotNil(t, client.lastInput)
	assert.Equal(t, "Hello, world!", aws.ToString(client.lastInput.Text))
	assert.Equal(t, types.OutputFormatMp3, client.lastInput.OutputFormat)
	assert.Equal(t, types.VoiceIdJoanna, client.lastInput.VoiceId)
	assert.Equal(t, types.LanguageCodeEnUs, client.lastInput.LanguageCode)
}

func TestPollySynthesizer_Errors(t *testing.T) {
	t.Parallel()

	failing := speech.NewPollySynthesizer(&mockPolly{shouldFail: true})
	_, err := failing.Synthesize(context.Background(), standardSpeechRequest())
	require.ErrorIs(t, err, errMockPolly)

	silent := speech.NewPollySynthesizer(&mockPolly{audio: ""})
	_, err = silent.Synthesize(context.Background(), standardSpeechRequest())
	require.ErrorIs(t, err, speech.ErrEmptyAudio)

	client := &mockPolly{audio: "unused"}
	empty := speech.NewPollySynthesizer(client)
	req := standardSpeechRequest()
	req.Text = "\n"
	_, err = empty.Synthesize(context.Background(), req)
	require.ErrorIs(t, err, speech.ErrTextEmpty)
	assert.Nil(t, client.lastInput, "polly must not be called for empty text")
}
