// Coachd analyzes recorded interview answers and coaches the speaker.
//
// Usage:
//
//	# Analyze one recording
//	coachd run_session --video answer.mp4 --user ana
//
//	# Serve the HTTP API
//	coachd serve --config coachd.yaml
//
// Configuration is layered: built-in defaults, an optional YAML file, then
// COACHD_* environment variables. GEMINI_API_KEY is required and may be
// placed in a .env file.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	telemetry.ServiceVersion = version

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "coachd",
		Short: "Interview coaching from recorded answers",
		Long: `coachd analyzes a recorded interview answer across facial expression,
voice and language, then produces prioritized feedback, practice exercises
and a comparison with the speaker's previous session.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newRunSessionCmd(&configPath),
		newServeCmd(&configPath),
		newVersionCmd(),
	)
	return root
}
