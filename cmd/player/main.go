// Package main provides the terminal lesson player for Lectern.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lecternapp/lectern-server/internal/client"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/player"
	"github.com/lecternapp/lectern-server/internal/progress"
	"github.com/lecternapp/lectern-server/internal/tui"
)

var (
	serverURL      string
	token          string
	devUser        string
	embedOrigin    string
	streamEndpoint string
	seekStep       float64
	volumeStep     float64
	reportInterval time.Duration
	logPath        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lectern-player <lesson-id>",
		Short: "Play a Lectern lesson in the terminal",
		Long: `lectern-player mounts a lesson from a Lectern server, resumes from the
last watched position, and reports progress back while you watch.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVar(&serverURL, "server", envOr("LECTERN_SERVER_URL", "http://localhost:8080"), "Lectern server base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("LECTERN_TOKEN"), "Bearer playback credential")
	rootCmd.Flags().StringVar(&devUser, "user", "", "Mint a development credential for this user ID")
	rootCmd.Flags().StringVar(&embedOrigin, "embed-origin", "", "Trusted origin for embedded-share messages")
	rootCmd.Flags().StringVar(&streamEndpoint, "stream-endpoint", "", "Remote-stream manifest host")
	rootCmd.Flags().Float64Var(&seekStep, "seek-step", 10, "Arrow-key seek step in seconds")
	rootCmd.Flags().Float64Var(&volumeStep, "volume-step", 0.1, "Arrow-key volume step")
	rootCmd.Flags().DurationVar(&reportInterval, "report-interval", 15*time.Second, "Progress report cadence")
	rootCmd.Flags().StringVar(&logPath, "log-file", "", "Write logs to this file instead of discarding them")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lessonID := args[0]

	log, cleanup, err := buildLogger()
	if err != nil {
		return err
	}
	defer cleanup()

	if token == "" && devUser != "" {
		token, err = client.IssueDevToken(ctx, serverURL, devUser)
		if err != nil {
			return fmt.Errorf("mint development credential: %w", err)
		}
	}
	if token == "" {
		return fmt.Errorf("no credential: pass --token or --user")
	}

	api := client.New(serverURL, token)

	lesson, err := api.GetLesson(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("fetch lesson: %w", err)
	}

	// The resume position is fetched before the player mounts and passed
	// in; the player itself never talks to the progress read API.
	resume, err := api.GetProgress(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("fetch resume position: %w", err)
	}

	controller := player.NewController(player.DefaultAdapterFactory(embedOrigin, streamEndpoint), log.Logger)
	synchronizer := progress.NewSynchronizer(lesson.ID, api, reportInterval, log.Logger)
	controller.Subscribe(synchronizer.OnEvent)

	if err := controller.Load(player.SourceFromLesson(lesson), float64(resume.PositionSeconds)); err != nil {
		// The shell renders the unavailable state; not fatal here.
		log.Warn("player unavailable", "lesson_id", lesson.ID, "error", err)
	}

	model := tui.New(lesson, controller, synchronizer, seekStep, volumeStep)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		synchronizer.Close()
		controller.Dispose()
		return fmt.Errorf("run player: %w", err)
	}

	// Quit path in the shell already flushed; this covers other exits.
	synchronizer.Close()
	controller.Dispose()
	return nil
}

// buildLogger writes to --log-file when given, otherwise discards.
// The alternate screen owns stdout while the player runs.
func buildLogger() (*logger.Logger, func(), error) {
	if logPath == "" {
		return logger.New(logger.Config{Writer: io.Discard}), func() {}, nil
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := logger.New(logger.Config{Writer: f, Format: "json"})
	return log, func() { _ = f.Close() }, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
