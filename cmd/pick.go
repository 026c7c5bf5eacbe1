package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "ライブラリから分割する動画を選択します",
	Long:  `ライブラリのディレクトリを走査して動画を一覧表示し、選んだ動画をセッションに記録します。分割は split コマンドで行います。`,
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

		video, ok, err := pickVideo(cfg.LibraryDir)
		if err != nil {
			return err
		}
		if !ok {
			log.Println("選択がキャンセルされました。")
			return nil
		}
		if err := sess.Select(video); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🎬 %s\n", video.Name)
		fmt.Fprintf(out, "   パス:   %s\n", video.Path)
		fmt.Fprintf(out, "   サイズ: %s\n", video.SizeMB())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pickCmd)
}
