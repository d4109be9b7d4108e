// Package core defines the interfaces shared by the upload and speech synthesis handlers.
package core

import "context"

// Object is a single blob written to the object store.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore defines the interface for interacting with a bucket-addressed blob store.
// Implementations must be safe for concurrent use by in-flight invocations.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket string, obj Object) error
}

// SpeechRequest holds the parameters of a single synthesis call.
type SpeechRequest struct {
	Text         string
	OutputFormat string
	VoiceID      string
	LanguageCode string
}

// SpeechSynthesizer defines the interface for a text-to-speech engine.
// Synthesize returns the complete encoded audio stream.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}
