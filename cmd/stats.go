package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/pipeline"
)

// Stats aggregates the result lines of the log file.
type Stats struct {
	Splits        int
	SplitFailures int
	Segments      int
	SourceSec     float64
	SourceBytes   int64
	WorkSec       float64
	Saves         int
	SaveFailures  int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "分割統計を表示します",
	Long:  `過去の分割・保存履歴(ログファイル)を集計し、作成したセグメント数や処理時間を表示します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(logPath())
		if err != nil {
			return fmt.Errorf("ログファイルを開けませんでした: %w", err)
		}
		defer f.Close()

		s, err := collectStats(f)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), s)
		return nil
	},
}

func collectStats(r io.Reader) (Stats, error) {
	var s Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		// Log lines look like "2006/01/02 15:04:05 pipeline.go:10: {"type":...}".
		idx := strings.Index(line, "{")
		if idx == -1 {
			continue
		}

		var entry pipeline.Entry
		if err := json.Unmarshal([]byte(line[idx:]), &entry); err != nil {
			continue
		}

		switch entry.Type {
		case pipeline.TypeSplit:
			if entry.Error != "" {
				s.SplitFailures++
				continue
			}
			s.Splits++
			s.Segments += entry.Segments
			s.SourceSec += entry.SourceSec
			s.SourceBytes += entry.SourceSize
			s.WorkSec += entry.DurationSec
		case pipeline.TypeSave:
			if entry.Error != "" {
				s.SaveFailures++
				continue
			}
			s.Saves++
		}
	}
	return s, scanner.Err()
}

func printStats(w io.Writer, s Stats) {
	const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "📊 split-video 統計レポート\n")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "分割した動画:   %d 本 (失敗 %d)\n", s.Splits, s.SplitFailures)
	fmt.Fprintf(w, "作成セグメント: %d 個\n", s.Segments)
	fmt.Fprintf(w, "元動画の合計:   %s / %s\n", formatDuration(s.SourceSec), formatBytes(s.SourceBytes))
	fmt.Fprintf(w, "合計処理時間:   %s\n", formatDuration(s.WorkSec))
	fmt.Fprintf(w, "アルバム保存:   %d 件 (失敗 %d)\n", s.Saves, s.SaveFailures)
	if s.Splits > 0 {
		fmt.Fprintf(w, "平均セグメント: %.1f 個/本\n", float64(s.Segments)/float64(s.Splits))
	}
	fmt.Fprintln(w, separator)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatDuration(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	return d.Round(time.Second).String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
