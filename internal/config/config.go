// Package config provides the configuration structure for the text-speech functions.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendNATS  = "nats"
)

// Speech providers.
const (
	ProviderPolly  = "polly"
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

// Default values.
const (
	DefaultRegion         = "us-east-1"
	DefaultMaxUploadBytes = int64(5 * 1024 * 1024)
	DefaultVoiceID        = "Joanna"
	DefaultLanguageCode   = "en-US"
	DefaultOutputPrefix   = "tts/"
	DefaultMaxCharacters  = 3000
	DefaultTimeoutSeconds = 30
	DefaultOpenAIModel    = "tts-1"
	DefaultOpenAIVoice    = "alloy"
	DefaultNATSURL        = "nats://127.0.0.1:4222"
	DefaultNATSSubject    = "objects.created"
	DefaultServerAddr     = ":8080"
)

// configFileEnvKey names an optional TOML file read by FromEnv.
const configFileEnvKey = "TEXT_SPEECH_CONFIG"

var (
	// ErrBucketEmpty indicates that no bucket was configured.
	ErrBucketEmpty = errors.New("storage bucket cannot be empty")
	// ErrUnknownBackend indicates an unsupported storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrUnknownProvider indicates an unsupported speech provider.
	ErrUnknownProvider = errors.New("unknown tts provider")
	// ErrEndpointRequired indicates that the minio backend has no endpoint.
	ErrEndpointRequired = errors.New("storage endpoint is required for the minio backend")
	// ErrServiceURLRequired indicates that the http provider has no service URL.
	ErrServiceURLRequired = errors.New("tts service_url is required for the http provider")
	// ErrOpenAIKeyRequired indicates that the openai provider has no API key.
	ErrOpenAIKeyRequired = errors.New("openai_api_key is required for the openai provider")
)

// StorageConfig holds the object store configuration.
type StorageConfig struct {
	Backend   string `toml:"backend"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// UploadConfig holds the upload handler configuration.
type UploadConfig struct {
	KeyPrefix      string `toml:"key_prefix"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// TTSConfig holds the speech synthesis configuration.
type TTSConfig struct {
	Provider       string `toml:"provider"`
	VoiceID        string `toml:"voice_id"`
	LanguageCode   string `toml:"language_code"`
	OutputPrefix   string `toml:"output_prefix"`
	MaxCharacters  int    `toml:"max_characters"`
	ServiceURL     string `toml:"service_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIModel    string `toml:"openai_model"`
	OpenAIVoice    string `toml:"openai_voice"`
}

// NATSConfig holds the configuration for the self-hosted trigger path.
type NATSConfig struct {
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
}

// ServerConfig holds the local development server configuration.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Upload  UploadConfig  `toml:"upload"`
	TTS     TTSConfig     `toml:"tts"`
	NATS    NATSConfig    `toml:"nats"`
	Server  ServerConfig  `toml:"server"`
	Paths   PathsConfig   `toml:"paths"`
}

// Default returns the default configuration values.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:   BackendS3,
			Bucket:    "",
			Region:    DefaultRegion,
			Endpoint:  "",
			AccessKey: "",
			SecretKey: "",
			UseSSL:    true,
		},
		Upload: UploadConfig{
			KeyPrefix:      "",
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		TTS: TTSConfig{
			Provider:       ProviderPolly,
			VoiceID:        DefaultVoiceID,
			LanguageCode:   DefaultLanguageCode,
			OutputPrefix:   DefaultOutputPrefix,
			MaxCharacters:  DefaultMaxCharacters,
			ServiceURL:     "",
			TimeoutSeconds: DefaultTimeoutSeconds,
			OpenAIAPIKey:   "",
			OpenAIModel:    DefaultOpenAIModel,
			OpenAIVoice:    DefaultOpenAIVoice,
		},
		NATS: NATSConfig{
			URL:     DefaultNATSURL,
			Subject: DefaultNATSSubject,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Paths: PathsConfig{
			BaseLogsDir: os.TempDir(),
		},
	}
}

// Load loads the configuration through the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	cfg := Default()

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Parse decodes TOML data on top of the default configuration.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	err := toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds the configuration of a Lambda function: defaults, then an
// optional TOML file named by TEXT_SPEECH_CONFIG, then environment variables.
// A .env file in the working directory is loaded first when present.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv(configFileEnvKey); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}

		parsed, err := Parse(data)
		if err != nil {
			return nil, err
		}

		cfg = *parsed
	}

	err := applyEnv(&cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the selected backends are known and fully configured.
// The bucket is left to ValidateUpload because only the upload path has no
// event to take it from.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3, BackendNATS:
	case BackendMinio:
		if c.Storage.Endpoint == "" {
			return ErrEndpointRequired
		}
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownBackend, c.Storage.Backend)
	}

	switch c.TTS.Provider {
	case ProviderPolly:
	case ProviderHTTP:
		if c.TTS.ServiceURL == "" {
			return ErrServiceURLRequired
		}
	case ProviderOpenAI:
		if c.TTS.OpenAIAPIKey == "" {
			return ErrOpenAIKeyRequired
		}
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownProvider, c.TTS.Provider)
	}

	return nil
}

// ValidateUpload runs Validate and additionally requires a destination bucket.
func (c *Config) ValidateUpload() error {
	err := c.Validate()
	if err != nil {
		return err
	}

	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return ErrBucketEmpty
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.Bucket, "BUCKET_NAME")
	setString(&cfg.Storage.Region, "AWS_REGION")
	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Upload.KeyPrefix, "UPLOAD_KEY_PREFIX")
	setString(&cfg.TTS.Provider, "TTS_PROVIDER")
	setString(&cfg.TTS.VoiceID, "TTS_VOICE_ID")
	setString(&cfg.TTS.LanguageCode, "TTS_LANGUAGE_CODE")
	setString(&cfg.TTS.ServiceURL, "TTS_SERVICE_URL")
	setString(&cfg.TTS.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "NATS_SUBJECT")
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.Paths.BaseLogsDir, "LOGS_DIR")

	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES '%s': %w", raw, err)
		}

		cfg.Upload.MaxUploadBytes = limit
	}

	return nil
}

func setString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*target = value
	}
}
