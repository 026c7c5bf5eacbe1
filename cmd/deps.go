package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/library"
	"github.com/mt4110/split-video/internal/picker"
	"github.com/mt4110/split-video/internal/pipeline"
	"github.com/mt4110/split-video/internal/probe"
	"github.com/mt4110/split-video/internal/session"
	"github.com/mt4110/split-video/internal/split"
	"github.com/mt4110/split-video/internal/tui"
)

const progressWidth = 30

func buildRunner(c *config.Config) (*pipeline.Runner, error) {
	lib, err := library.New(c)
	if err != nil {
		return nil, err
	}
	splitter := split.New(c.FFmpegBin)
	splitter.DryRun = c.DryRun
	return pipeline.New(c, splitter, probe.New(c.FFprobeBin), lib), nil
}

func openSession(c *config.Config, runner *pipeline.Runner) (*session.Session, error) {
	return session.Load(c.WorkDir, runner, c.SegmentSeconds)
}

// pickVideo scans the library dir and lets the user choose one video.
func pickVideo(dir string) (picker.VideoInfo, bool, error) {
	videos, err := picker.Scan([]string{dir}, cfg.Extensions, picker.Filter{Keywords: cfg.Keywords, IgnoreKeywords: cfg.IgnoreKeywords})
	if err != nil {
		return picker.VideoInfo{}, false, fmt.Errorf("ライブラリを読み込めませんでした (%s): %w", dir, err)
	}
	return tui.Pick(videos)
}

// runSplit selects video in the session and splits it with progress on stderr.
func runSplit(ctx context.Context, cmd *cobra.Command, sess *session.Session, video picker.VideoInfo) error {
	if err := sess.Select(video); err != nil {
		return err
	}
	log.Printf("🎬 選択された動画: %s (%s)", video.Name, video.SizeMB())
	return splitSelected(ctx, cmd, sess)
}

func splitSelected(ctx context.Context, cmd *cobra.Command, sess *session.Session) error {
	sess.SetSegmentDuration(strconv.Itoa(cfg.SegmentSeconds))
	errOut := cmd.ErrOrStderr()
	sess.OnProgress(func(p split.Progress) {
		fmt.Fprintf(errOut, "\r%s", tui.ProgressLine(p, progressWidth))
	})

	segments, err := sess.Split(ctx)
	fmt.Fprintln(errOut)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		return nil
	}

	out := cmd.OutOrStdout()
	for i, s := range segments {
		fmt.Fprintf(out, "セグメント %d: %s\n", i+1, filepath.Base(s))
	}
	if st := sess.State(); st.Playlist != "" {
		fmt.Fprintf(out, "プレイリスト: %s\n", st.Playlist)
	}

	if flagSave {
		results, err := sess.SaveAll(ctx)
		if err != nil {
			return err
		}
		return reportSaved(cmd, results)
	}
	return nil
}

// reportSaved prints one line per saved segment and fails if any save did.
func reportSaved(cmd *cobra.Command, results []library.SaveResult) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "❌ %s: %v\n", filepath.Base(r.Path), r.Err)
			continue
		}
		fmt.Fprintf(out, "💾 %s -> %s\n", filepath.Base(r.Path), r.Asset.Location)
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d 件の保存に失敗しました", failed, len(results))
	}
	fmt.Fprintf(out, "✅ %d 件をアルバム「%s」に保存しました\n", len(results), cfg.Album)
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
