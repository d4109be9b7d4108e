package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/app"
	"github.com/book-expert/text-speech/internal/config"
	"github.com/book-expert/text-speech/internal/core"
	"github.com/book-expert/text-speech/internal/speech"
	"github.com/book-expert/text-speech/internal/speech/text"
	"github.com/spf13/cobra"
)

// Flag names.
const (
	flagText    = "text"
	flagFile    = "file"
	flagOutput  = "output"
	flagVerbose = "verbose"
)

const (
	logFileNameDefault = "speak.log"
	logFileNameVerbose = "speak-verbose.log"
	defaultOutputFile  = "output.mp3"
	healthTimeout      = 10 * time.Second
)

var (
	errEitherTextOrFile  = errors.New("either --text or --file must be provided")
	errCannotSpecifyBoth = errors.New("cannot specify both --text and --file")
	errNothingToSpeak    = errors.New("input contains no speakable text")
	errNoHealthCheck     = errors.New("the configured provider has no health check")
	errOutputIsDirectory = errors.New("output path is a directory")
)

// deps are the process dependencies of the commands.
type deps struct {
	loadConfig     func() (*config.Config, error)
	newSynthesizer func(ctx context.Context, cfg *config.Config) (core.SpeechSynthesizer, error)
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.FromEnv,
		newSynthesizer: func(ctx context.Context, cfg *config.Config) (core.SpeechSynthesizer, error) {
			var awsCfg aws.Config

			if cfg.TTS.Provider == config.ProviderPolly {
				loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
				if err != nil {
					return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
				}

				awsCfg = loaded
			}

			return speech.New(cfg, awsCfg)
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "speak",
		Short:         "Convert text to MP3 speech with the configured provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&verbose, flagVerbose, false, "enable verbose logging")

	cmd.AddCommand(
		newSynthesizeCmd(d, &verbose),
		newHealthCmd(d, &verbose),
	)

	return cmd
}

type synthesizeOptions struct {
	text   string
	file   string
	output string
}

func newSynthesizeCmd(d deps, verbose *bool) *cobra.Command {
	var opts synthesizeOptions

	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize --text or the contents of --file into an MP3 file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := readInput(opts)
			if err != nil {
				return err
			}

			cfg, log, err := setup(d, *verbose)
			if err != nil {
				return err
			}
			defer log.Close()

			synthesizer, err := d.newSynthesizer(cmd.Context(), cfg)
			if err != nil {
				log.Error("Failed to create synthesizer: %v", err)

				return err
			}

			outputPath := opts.output
			if outputPath == "" {
				outputPath = defaultOutputFile
			}

			err = synthesizeToFile(cmd.Context(), synthesizer, cfg, input, outputPath)
			if err != nil {
				log.Error("Failed to synthesize speech: %v", err)

				return err
			}

			log.Info("Successfully generated speech: %s", outputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", outputPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.text, flagText, "", "text to convert to speech")
	cmd.Flags().StringVar(&opts.file, flagFile, "", "text file to convert to speech")
	cmd.Flags().StringVar(&opts.output, flagOutput, "", "output file path (.mp3)")

	return cmd
}

func newHealthCmd(d deps, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured TTS service is healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(d, *verbose)
			if err != nil {
				return err
			}
			defer log.Close()

			synthesizer, err := d.newSynthesizer(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			checker, ok := synthesizer.(speech.HealthChecker)
			if !ok {
				return fmt.Errorf("%w: %s", errNoHealthCheck, cfg.TTS.Provider)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			defer cancel()

			err = checker.HealthCheck(ctx)
			if err != nil {
				log.Error("Health check failed: %v", err)

				return fmt.Errorf("TTS service is not healthy: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "TTS service is healthy")

			return nil
		},
	}
}

// readInput validates the input flags and returns the text to speak.
func readInput(opts synthesizeOptions) (string, error) {
	if opts.text == "" && opts.file == "" {
		return "", errEitherTextOrFile
	}

	if opts.text != "" && opts.file != "" {
		return "", errCannotSpecifyBoth
	}

	if opts.text != "" {
		return opts.text, nil
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}

	return string(data), nil
}

// setup loads config and initializes the logger.
func setup(d deps, verbose bool) (*config.Config, *logger.Logger, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logFileName := logFileNameDefault
	if verbose {
		logFileName = logFileNameVerbose
	}

	log, err := app.NewLogger(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func synthesizeToFile(
	ctx context.Context,
	synthesizer core.SpeechSynthesizer,
	cfg *config.Config,
	input, outputPath string,
) error {
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", errOutputIsDirectory, outputPath)
	}

	speakable := text.NewNormalizer(cfg.TTS.MaxCharacters).Normalize(input)
	if speakable == "" {
		return errNothingToSpeak
	}

	audio, err := synthesizer.Synthesize(ctx, core.SpeechRequest{
		Text:         speakable,
		OutputFormat: speech.FormatMP3,
		VoiceID:      cfg.TTS.VoiceID,
		LanguageCode: cfg.TTS.LanguageCode,
	})
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}

	err = os.WriteFile(outputPath, audio, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	return nil
}
