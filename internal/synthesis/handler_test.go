// Package synthesis_test tests the speech synthesis function.
package synthesis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/core"
	"github.com/book-expert/text-speech/internal/synthesis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "files-mikeg"

var (
	errMockGet        = errors.New("NoSuchKey")
	errMockSynthesize = errors.New("mock synthesis error")
)

// mockObjectStore serves objects from memory and records writes.
type mockObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    []string
	puts    []core.Object
}

func newMockObjectStore(objects map[string]string) *mockObjectStore {
	store := &mockObjectStore{objects: make(map[string][]byte, len(objects))}
	for key, body := range objects {
		store.objects[key] = []byte(body)
	}

	return store
}

func (m *mockObjectStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets = append(m.gets, bucket+"/"+key)

	body, ok := m.objects[key]
	if !ok {
		return nil, errMockGet
	}

	return body, nil
}

func (m *mockObjectStore) PutObject(_ context.Context, _ string, obj core.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts = append(m.puts, obj)

	return nil
}

// mockSynthesizer returns the request text prefixed with "mp3:".
type mockSynthesizer struct {
	shouldFail bool
	requests   []core.SpeechRequest
}

func (m *mockSynthesizer) Synthesize(_ context.Context, req core.SpeechRequest) ([]byte, error) {
	m.requests = append(m.requests, req)

	if m.shouldFail {
		return nil, errMockSynthesize
	}

	return []byte("mp3:" + req.Text), nil
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
}

func fixedID() string {
	return "deadbeef"
}

func newTestHandler(
	t *testing.T,
	store core.ObjectStore,
	synthesizer core.SpeechSynthesizer,
) *synthesis.Handler {
	t.Helper()

	return newHandlerWithOptions(t, store, synthesizer, synthesis.Options{
		MaxCharacters: 3000,
		Now:           fixedClock,
		NewID:         fixedID,
	})
}

func newHandlerWithOptions(
	t *testing.T,
	store core.ObjectStore,
	synthesizer core.SpeechSynthesizer,
	opts synthesis.Options,
) *synthesis.Handler {
	t.Helper()

	log, err := logger.New(t.TempDir(), "synthesis-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	handler, err := synthesis.NewHandler(store, synthesizer, opts, log)
	require.NoError(t, err)

	return handler
}

func s3Event(bucket string, keys ...string) events.S3Event {
	records := make([]events.S3EventRecord, 0, len(keys))
	for _, key := range keys {
		var record events.S3EventRecord

		record.EventName = "ObjectCreated:Put"
		record.S3.Bucket.Name = bucket
		record.S3.Object.Key = key
		records = append(records, record)
	}

	return events.S3Event{Records: records}
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := synthesis.NewHandler(nil, &mockSynthesizer{}, synthesis.Options{}, nil)
	require.ErrorIs(t, err, synthesis.ErrStoreNil)

	_, err = synthesis.NewHandler(newMockObjectStore(nil), nil, synthesis.Options{}, nil)
	require.ErrorIs(t, err, synthesis.ErrSynthesizerNil)
}

func TestHandle_WritesMP3UnderAudioPrefix(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"notes.txt": "Hello from the upload."})
	synthesizer := &mockSynthesizer{}
	handler := newTestHandler(t, store, synthesizer)

	err := handler.Handle(context.Background(), s3Event(testBucket, "notes.txt"))
	require.NoError(t, err)

	require.Len(t, synthesizer.requests, 1)
	assert.Equal(t, core.SpeechRequest{
		Text:         "Hello from the upload.",
		OutputFormat: "mp3",
		VoiceID:      "Joanna",
		LanguageCode: "en-US",
	}, synthesizer.requests[0])

	require.Len(t, store.puts, 1)
	assert.Equal(t, "tts/2025-03-14_09-26-53_deadbeef.mp3", store.puts[0].Key)
	assert.Equal(t, "audio/mpeg", store.puts[0].ContentType)
	assert.Equal(t, []byte("mp3:Hello from the upload."), store.puts[0].Body)
	assert.Equal(t, []string{testBucket + "/notes.txt"}, store.gets)
}

func TestProcess_ContinuesAfterFailedRecord(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"second.md": "Second file."})
	handler := newTestHandler(t, store, &mockSynthesizer{})

	results := handler.Process(context.Background(), s3Event(testBucket, "missing.txt", "second.md"))
	require.Len(t, results, 2)

	require.ErrorIs(t, results[0].Err, errMockGet)
	assert.Equal(t, "missing.txt", results[0].SourceKey)
	assert.Empty(t, results[0].AudioKey)

	require.NoError(t, results[1].Err)
	assert.Equal(t, testBucket, results[1].Bucket)
	assert.Equal(t, "tts/2025-03-14_09-26-53_deadbeef.mp3", results[1].AudioKey)
	assert.Len(t, store.puts, 1)
}

func TestProcess_DecodesNotificationKeys(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"my notes (v2).txt": "Decoded."})
	handler := newTestHandler(t, store, &mockSynthesizer{})

	results := handler.Process(context.Background(), s3Event(testBucket, "my+notes+%28v2%29.txt"))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "my notes (v2).txt", results[0].SourceKey)
}

func TestProcess_SkipsAudioObjects(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"tts/2025-03-14_09-26-53_deadbeef.mp3": "ID3"})
	synthesizer := &mockSynthesizer{}
	handler := newTestHandler(t, store, synthesizer)

	results := handler.Process(context.Background(), s3Event(testBucket, "tts/2025-03-14_09-26-53_deadbeef.mp3"))
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, synthesis.ErrAudioObject)
	assert.Empty(t, store.gets)
	assert.Empty(t, synthesizer.requests)
}

func TestProcess_SynthesisFailureIsRecorded(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"a.txt": "Some text."})
	handler := newTestHandler(t, store, &mockSynthesizer{shouldFail: true})

	results := handler.Process(context.Background(), s3Event(testBucket, "a.txt"))
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, errMockSynthesize)
	assert.Empty(t, store.puts)

	err := handler.Handle(context.Background(), s3Event(testBucket, "a.txt"))
	require.NoError(t, err, "record failures never propagate to the trigger")
}

func TestProcess_EmptyTextIsRecorded(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"blank.txt": " \n\t "})
	synthesizer := &mockSynthesizer{}
	handler := newTestHandler(t, store, synthesizer)

	results := handler.Process(context.Background(), s3Event(testBucket, "blank.txt"))
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, synthesis.ErrNoSpeakableText)
	assert.Empty(t, synthesizer.requests)
}

func TestProcess_NoRecords(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, newMockObjectStore(nil), &mockSynthesizer{})

	assert.Empty(t, handler.Process(context.Background(), events.S3Event{}))
	require.NoError(t, handler.Handle(context.Background(), events.S3Event{}))
}

func TestAudioKey_UsesUTC(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, newMockObjectStore(nil), &mockSynthesizer{})
	zone := time.FixedZone("UTC+2", 2*60*60)

	key := handler.AudioKey(time.Date(2025, time.March, 14, 11, 26, 53, 0, zone), "deadbeef")
	assert.Equal(t, "tts/2025-03-14_09-26-53_deadbeef.mp3", key)
}

func TestProcess_SameSecondRecordsGetDistinctKeys(t *testing.T) {
	t.Parallel()

	store := newMockObjectStore(map[string]string{"a.txt": "First.", "b.txt": "Second."})
	handler := newHandlerWithOptions(t, store, &mockSynthesizer{}, synthesis.Options{Now: fixedClock})

	results := handler.Process(context.Background(), s3Event(testBucket, "a.txt", "b.txt"))
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	assert.NotEqual(t, results[0].AudioKey, results[1].AudioKey)
	assert.Regexp(t, `^tts/2025-03-14_09-26-53_[0-9a-f]{8}\.mp3$`, results[0].AudioKey)

	require.Len(t, store.puts, 2)
	assert.NotEqual(t, store.puts[0].Key, store.puts[1].Key)
}
