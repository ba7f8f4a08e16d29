package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-hooks/internal/auth"
	"github.com/fpang/media-hooks/internal/backend"
	"github.com/fpang/media-hooks/internal/cli"
	"github.com/fpang/media-hooks/internal/config"
	"github.com/fpang/media-hooks/internal/logging"
	"github.com/fpang/media-hooks/internal/pipeline"
)

// CLI flags
var (
	fileFlag     string
	languageFlag string
	jsonFlag     bool
	timingsFlag  bool
	validateFlag bool
	modelFlag    string
	visionFlag   string
	textFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "hooks-cli",
	Short: "Generate social media hooks for a photo or video",
	Long: `Hooks CLI describes a photo or video and prints a title, an engaging
question, a witty caption and hashtags for it.

Without --file a native file picker opens.

Examples:
  hooks-cli --file ./dog.jpg
  hooks-cli -f ./clip.mp4 --json
  hooks-cli -f ./dog.jpg --vision llama --text llama`,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Image or video to caption")
	rootCmd.Flags().StringVarP(&languageFlag, "language", "l", pipeline.DefaultLanguage, "Language hint (BCP 47)")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
	rootCmd.Flags().BoolVar(&timingsFlag, "timings", false, "Print per-stage timings to stderr")
	rootCmd.Flags().BoolVar(&validateFlag, "validate-key", false, "Validate the Gemini API key before running")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default $GEMINI_MODEL)")
	rootCmd.Flags().StringVar(&visionFlag, "vision", "", "Vision provider: gemini or llama")
	rootCmd.Flags().StringVar(&textFlag, "text", "", "Text provider: gemini, llama or openai")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	logging.Init()

	path := fileFlag
	if path == "" {
		picked, err := pickFile()
		if err != nil {
			return err
		}
		path = picked
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if modelFlag != "" {
		cfg.GeminiModel = modelFlag
	}
	if visionFlag != "" {
		cfg.VisionProvider = visionFlag
	}
	if textFlag != "" {
		cfg.TextProvider = textFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	be, err := backend.New(ctx, cfg)
	if err != nil {
		if errors.Is(err, auth.ErrNoAPIKey) {
			log.Error().Msg(cli.ValidationHint(err))
		}
		return fmt.Errorf("init backend: %w", err)
	}
	if validateFlag {
		if err := be.ValidateGemini(ctx); err != nil {
			log.Error().Err(err).Msg(cli.ValidationHint(err))
			return err
		}
	}

	out := cmd.OutOrStdout()
	req, err := pipeline.RequestFromFile(path, languageFlag, cfg.MaxUploadBytes)
	if err != nil {
		cli.PrintError(out, err, jsonFlag)
		return err
	}

	log.Debug().Str("file", path).Str("vision", be.VisionName).Str("text", be.TextName).Msg("Generating hooks")
	res, err := be.Orchestrator(cfg).Run(ctx, req)
	if err != nil {
		cli.PrintError(out, err, jsonFlag)
		return err
	}
	if timingsFlag {
		cli.PrintTimings(cmd.ErrOrStderr(), res.Timings)
	}
	return cli.PrintResult(out, res, jsonFlag)
}

// pickFile opens a native file dialog filtered to supported media.
func pickFile() (string, error) {
	selected, err := zenity.SelectFile(
		zenity.Title("Select a photo or video"),
		zenity.FileFilters{
			{
				Name: "Media files",
				Patterns: []string{
					"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp", "*.bmp", "*.tif", "*.tiff",
					"*.mp4", "*.mov", "*.avi", "*.webm", "*.mkv", "*.m4v",
				},
			},
		},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", errors.New("no file selected")
	}
	if err != nil {
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	return selected, nil
}
