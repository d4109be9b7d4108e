// Package config_test tests the configuration loading for the text-speech functions.
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/text-speech/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[storage]
backend = "minio"
bucket = "files-text"
region = "eu-west-1"
endpoint = "127.0.0.1:9000"
access_key = "minio"
secret_key = "minio123"
use_ssl = false

[upload]
key_prefix = "uploads/"
max_upload_bytes = 1048576

[tts]
provider = "http"
voice_id = "Matthew"
language_code = "en-GB"
output_prefix = "audio/"
max_characters = 1500
service_url = "http://127.0.0.1:8000"
timeout_seconds = 60

[nats]
url = "nats://127.0.0.1:4222"
subject = "minio.events"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, config.BackendMinio, cfg.Storage.Backend)
	assert.Equal(t, "files-text", cfg.Storage.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "127.0.0.1:9000", cfg.Storage.Endpoint)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, "uploads/", cfg.Upload.KeyPrefix)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxUploadBytes)
	assert.Equal(t, config.ProviderHTTP, cfg.TTS.Provider)
	assert.Equal(t, "Matthew", cfg.TTS.VoiceID)
	assert.Equal(t, "en-GB", cfg.TTS.LanguageCode)
	assert.Equal(t, "audio/", cfg.TTS.OutputPrefix)
	assert.Equal(t, 1500, cfg.TTS.MaxCharacters)
	assert.Equal(t, 60, cfg.TTS.TimeoutSeconds)
	assert.Equal(t, "minio.events", cfg.NATS.Subject)
	require.NoError(t, cfg.Validate())
}

func TestParseKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte("[storage]\nbucket = \"files-mikeg\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "files-mikeg", cfg.Storage.Bucket)
	assert.Equal(t, config.BackendS3, cfg.Storage.Backend)
	assert.Equal(t, config.ProviderPolly, cfg.TTS.Provider)
	assert.Equal(t, "Joanna", cfg.TTS.VoiceID)
	assert.Equal(t, "en-US", cfg.TTS.LanguageCode)
	assert.Equal(t, "tts/", cfg.TTS.OutputPrefix)
	assert.Equal(t, config.DefaultMaxUploadBytes, cfg.Upload.MaxUploadBytes)
}

func TestParseInvalidTOML(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("[storage\nbucket ="))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "bucket is optional",
			mutate:  func(cfg *config.Config) { cfg.Storage.Bucket = " " },
			wantErr: nil,
		},
		{
			name:    "unknown backend",
			mutate:  func(cfg *config.Config) { cfg.Storage.Backend = "gcs" },
			wantErr: config.ErrUnknownBackend,
		},
		{
			name:    "minio without endpoint",
			mutate:  func(cfg *config.Config) { cfg.Storage.Backend = config.BackendMinio },
			wantErr: config.ErrEndpointRequired,
		},
		{
			name:    "unknown provider",
			mutate:  func(cfg *config.Config) { cfg.TTS.Provider = "espeak" },
			wantErr: config.ErrUnknownProvider,
		},
		{
			name:    "http provider without url",
			mutate:  func(cfg *config.Config) { cfg.TTS.Provider = config.ProviderHTTP },
			wantErr: config.ErrServiceURLRequired,
		},
		{
			name:    "openai provider without key",
			mutate:  func(cfg *config.Config) { cfg.TTS.Provider = config.ProviderOpenAI },
			wantErr: config.ErrOpenAIKeyRequired,
		},
		{
			name:    "valid",
			mutate:  func(_ *config.Config) {},
			wantErr: nil,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.Storage.Bucket = "files-mikeg"
			testCase.mutate(&cfg)

			err := cfg.Validate()
			if testCase.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestValidateUpload(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.ErrorIs(t, cfg.ValidateUpload(), config.ErrBucketEmpty)

	cfg.TTS.Provider = "espeak"
	require.ErrorIs(t, cfg.ValidateUpload(), config.ErrUnknownProvider)

	cfg = config.Default()
	cfg.Storage.Bucket = "files-mikeg"
	require.NoError(t, cfg.ValidateUpload())
}

// FromEnv reads process-wide state, so these tests do not run in parallel.
func TestFromEnv(t *testing.T) {
	t.Setenv("BUCKET_NAME", "files-env")
	t.Setenv("TTS_VOICE_ID", "Amy")
	t.Setenv("UPLOAD_KEY_PREFIX", "incoming/")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "files-env", cfg.Storage.Bucket)
	assert.Equal(t, "Amy", cfg.TTS.VoiceID)
	assert.Equal(t, "incoming/", cfg.Upload.KeyPrefix)
	assert.Equal(t, int64(2048), cfg.Upload.MaxUploadBytes)
}

func TestFromEnvWithoutBucket(t *testing.T) {
	t.Setenv("TEXT_SPEECH_CONFIG", "")
	t.Setenv("BUCKET_NAME", "")
	t.Setenv("TTS_PROVIDER", config.ProviderPolly)

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Empty(t, cfg.Storage.Bucket)
	assert.Equal(t, config.ProviderPolly, cfg.TTS.Provider)
	require.ErrorIs(t, cfg.ValidateUpload(), config.ErrBucketEmpty)
}

func TestFromEnvConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text-speech.toml")
	err := os.WriteFile(path, []byte("[storage]\nbucket = \"from-file\"\n[tts]\nvoice_id = \"Brian\"\n"), 0o600)
	require.NoError(t, err)

	t.Setenv("TEXT_SPEECH_CONFIG", path)
	t.Setenv("TTS_VOICE_ID", "Emma")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Storage.Bucket)
	assert.Equal(t, "Emma", cfg.TTS.VoiceID, "environment overrides the file")
}

func TestFromEnvInvalidLimit(t *testing.T) {
	t.Setenv("BUCKET_NAME", "files-env")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")

	_, err := config.FromEnv()
	require.Error(t, err)
}
