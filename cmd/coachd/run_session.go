package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/coachd/internal/orchestrator"
)

type runSessionOptions struct {
	video   string
	user    string
	session string
	quiet   bool
}

func newRunSessionCmd(configPath *string) *cobra.Command {
	var opts runSessionOptions

	cmd := &cobra.Command{
		Use:   "run_session",
		Short: "Analyze a recorded answer and print coaching feedback",
		Long: `Runs one coaching session: analysis of the recording, feedback and
practice exercises, comparison with the previous session and a quality
score. Progress is printed as each phase starts and completes.`,
		Example: `  coachd run_session --video answer.mp4
  coachd run_session --video answer.mp4 --user ana --session mock_01 --quiet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), cmd.OutOrStdout(), opts, func(progress orchestrator.ProgressCallback) (sessionRunner, func(), error) {
				a, err := newApp(cmd.Context(), cfg, appOptions{quiet: opts.quiet, progress: progress})
				if err != nil {
					return nil, nil, err
				}
				return a.orchestrator, func() { _ = a.Close(context.Background()) }, nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.video, "video", "", "path to the recorded answer (required)")
	cmd.Flags().StringVar(&opts.user, "user", "user1", "user whose progress history is updated")
	cmd.Flags().StringVar(&opts.session, "session", "", "session id (default session_YYYYMMDD_HHMMSS)")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "suppress progress output and informational logs")
	_ = cmd.MarkFlagRequired("video")

	return cmd
}

type sessionRunner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.SessionReport, error)
}

// runnerFactory builds a runner reporting to progress, plus its cleanup.
type runnerFactory func(progress orchestrator.ProgressCallback) (sessionRunner, func(), error)

func runSession(ctx context.Context, out io.Writer, opts runSessionOptions, newRunner runnerFactory) error {
	var progress orchestrator.ProgressCallback
	if !opts.quiet {
		progress = func(p orchestrator.PhaseProgress) {
			fmt.Fprintf(out, "[%3d%%] %s\n", p.Percentage, p.Message)
		}
	}

	runner, cleanup, err := newRunner(progress)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := runner.Run(ctx, orchestrator.Request{
		VideoPath: opts.video,
		UserID:    opts.user,
		SessionID: opts.session,
	})
	if err != nil {
		if report != nil && report.SessionID != "" {
			return fmt.Errorf("session %s failed: %w", report.SessionID, err)
		}
		return err
	}
	if report == nil {
		return errors.New("session produced no report")
	}

	if !opts.quiet {
		fmt.Fprintln(out)
	}
	return renderSummary(out, report)
}
