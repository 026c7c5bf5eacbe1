package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/logger"
	"github.com/mt4110/split-video/internal/tui"
	"github.com/mt4110/split-video/internal/watcher"
)

var tuiCmd = &cobra.Command{
	Use:         "tui [dirs...]",
	Short:       "TUIモードで監視・分割を行います (Interactive)",
	Annotations: ffmpegAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Mute stdout logging to prevent TUI corruption
		logger.MuteStdout()

		if len(args) > 0 {
			cfg.WatchDirs = args
		}
		// Ensure we have at least one watch dir
		if len(cfg.WatchDirs) == 0 {
			cfg.WatchDirs = []string{"."}
		}

		runner, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		eventChan := make(chan interface{}, 100)
		w := watcher.New(cfg, runner)
		w.EventChan = eventChan

		// Run Watcher in BG
		go func() {
			_ = w.Run(ctx)
		}()

		p := tea.NewProgram(tui.NewModel(cfg, eventChan), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("TUIの実行に失敗しました: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
