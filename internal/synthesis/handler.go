// Package synthesis implements the object-created function: every new text
// object is read, converted to MP3 speech and stored next to it under the
// audio prefix.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/core"
	"github.com/book-expert/text-speech/internal/speech"
	"github.com/book-expert/text-speech/internal/speech/text"
	"github.com/google/uuid"
)

// Defaults applied to zero-valued Options.
const (
	DefaultVoiceID      = "Joanna"
	DefaultLanguageCode = "en-US"
	DefaultOutputPrefix = "tts/"

	// AudioTimestampLayout names audio objects, e.g. tts/2025-03-14_09-26-53_1a2b3c4d.mp3.
	AudioTimestampLayout = "2006-01-02_15-04-05"
	audioExtension       = ".mp3"
	audioIDLength        = 8
)

var (
	// ErrStoreNil indicates that no object store was provided.
	ErrStoreNil = errors.New("object store cannot be nil")
	// ErrSynthesizerNil indicates that no speech synthesizer was provided.
	ErrSynthesizerNil = errors.New("speech synthesizer cannot be nil")
	// ErrNoSpeakableText is reported for objects with nothing to read aloud.
	ErrNoSpeakableText = errors.New("object contains no speakable text")
	// ErrAudioObject is reported for records pointing at our own output.
	ErrAudioObject = errors.New("object is already synthesized audio")
)

// Options configures a Handler.
type Options struct {
	VoiceID       string
	LanguageCode  string
	OutputPrefix  string
	MaxCharacters int
	Now           func() time.Time
	NewID         func() string
}

// Result is the outcome of a single event record. Err is nil when AudioKey
// was written.
type Result struct {
	Bucket    string
	SourceKey string
	AudioKey  string
	Err       error
}

// Handler turns object-created records into speech.
type Handler struct {
	store        core.ObjectStore
	synthesizer  core.SpeechSynthesizer
	normalizer   *text.Normalizer
	voiceID      string
	languageCode string
	outputPrefix string
	now          func() time.Time
	newID        func() string
	log          *logger.Logger
}

// NewHandler creates a synthesis handler.
func NewHandler(
	store core.ObjectStore,
	synthesizer core.SpeechSynthesizer,
	opts Options,
	log *logger.Logger,
) (*Handler, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	if synthesizer == nil {
		return nil, ErrSynthesizerNil
	}

	handler := &Handler{
		store:        store,
		synthesizer:  synthesizer,
		normalizer:   text.NewNormalizer(opts.MaxCharacters),
		voiceID:      valueOr(opts.VoiceID, DefaultVoiceID),
		languageCode: valueOr(opts.LanguageCode, DefaultLanguageCode),
		outputPrefix: valueOr(opts.OutputPrefix, DefaultOutputPrefix),
		now:          opts.Now,
		newID:        opts.NewID,
		log:          log,
	}

	if handler.now == nil {
		handler.now = time.Now
	}

	if handler.newID == nil {
		handler.newID = newAudioID
	}

	return handler, nil
}

// Handle is the function entry point. Record failures are logged and never
// returned, so the trigger does not retry the whole batch.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) error {
	results := h.Process(ctx, event)

	written := 0

	for _, result := range results {
		if result.Err == nil {
			written++
		}
	}

	h.log.Info("Processed %d record(s), wrote %d audio object(s)", len(results), written)

	return nil
}

// Process handles every record in order and reports each outcome.
func (h *Handler) Process(ctx context.Context, event events.S3Event) []Result {
	results := make([]Result, 0, len(event.Records))

	for _, record := range event.Records {
		bucket := record.S3.Bucket.Name
		key := decodeKey(record.S3.Object.Key)

		result := Result{Bucket: bucket, SourceKey: key}

		if h.isAudioKey(key) {
			h.log.Info("Skipping %s in bucket %s: already under %s", key, bucket, h.outputPrefix)

			result.Err = ErrAudioObject
			results = append(results, result)

			continue
		}

		audioKey, err := h.synthesizeObject(ctx, bucket, key)
		if err != nil {
			h.log.Error("Error getting object %s from bucket %s: %v", key, bucket, err)

			result.Err = err
		} else {
			h.log.Info("Stored speech for %s as %s in bucket %s", key, audioKey, bucket)

			result.AudioKey = audioKey
		}

		results = append(results, result)
	}

	return results
}

func (h *Handler) synthesizeObject(ctx context.Context, bucket, key string) (string, error) {
	body, err := h.store.GetObject(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("get object: %w", err)
	}

	speakable := h.normalizer.Normalize(string(body))
	if speakable == "" {
		return "", ErrNoSpeakableText
	}

	audio, err := h.synthesizer.Synthesize(ctx, core.SpeechRequest{
		Text:         speakable,
		OutputFormat: speech.FormatMP3,
		VoiceID:      h.voiceID,
		LanguageCode: h.languageCode,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}

	audioKey := h.AudioKey(h.now(), h.newID())

	err = h.store.PutObject(ctx, bucket, core.Object{
		Key:         audioKey,
		Body:        audio,
		ContentType: speech.ContentTypeMPEG,
		Metadata:    nil,
	})
	if err != nil {
		return "", fmt.Errorf("put audio object %s: %w", audioKey, err)
	}

	return audioKey, nil
}

// AudioKey returns the destination key <prefix><timestamp>_<id>.mp3 for audio
// produced at t. The id keeps objects finished within the same second apart.
func (h *Handler) AudioKey(t time.Time, id string) string {
	return h.outputPrefix + t.UTC().Format(AudioTimestampLayout) + "_" + id + audioExtension
}

func newAudioID() string {
	return uuid.NewString()[:audioIDLength]
}

func (h *Handler) isAudioKey(key string) bool {
	return strings.HasPrefix(key, h.outputPrefix)
}

// decodeKey undoes the form encoding of notification keys ("my+notes.txt").
func decodeKey(raw string) string {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}

	return decoded
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
