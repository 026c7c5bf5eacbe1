package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/split"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "選択中の動画と分割結果を表示します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := buildRunner(cfg)
		if err != nil {
			return err
		}
		sess, err := openSession(cfg, runner)
		if err != nil {
			return err
		}
		st := sess.State()
		out := cmd.OutOrStdout()

		if st.Video == nil {
			fmt.Fprintln(out, "動画が選択されていません (pick で選択してください)")
		} else {
			fmt.Fprintf(out, "🎬 %s (%s)\n", st.Video.Name, st.Video.SizeMB())
			if st.Video.Duration > 0 {
				fmt.Fprintf(out, "   長さ: %s\n", st.Video.Duration.Round(time.Second))
			}
		}
		fmt.Fprintf(out, "分割時長: %s 秒\n", st.SegmentDuration)
		fmt.Fprintf(out, "出力先:   %s\n", sess.WorkDir())

		results := st.Results
		if len(results) == 0 {
			// Segments from an earlier run may exist without a session file.
			results, _ = split.ListSegments(sess.WorkDir())
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "セグメントはありません")
			return nil
		}
		fmt.Fprintf(out, "分割結果 (%d 個):\n", len(results))
		for i, r := range results {
			fmt.Fprintf(out, "  %3d  %s\n", i+1, filepath.Base(r))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
