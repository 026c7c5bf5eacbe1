package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/picker"
)

var splitCmd = &cobra.Command{
	Use:   "split [video]",
	Short: "選択中の動画を分割します",
	Long: `pick で選んだ動画 (または引数で指定した動画) を --segment 秒ごとに分割します。
以前のセグメントは分割前に出力先から削除されます。`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: ffmpegAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		runner, err := buildRunner(cfg)
		if err != nil {
			return err
		}
		sess, err := openSession(cfg, runner)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			video, err := picker.Stat(config.ExpandHome(args[0]))
			if err != nil {
				return err
			}
			return runSplit(ctx, cmd, sess, video)
		}
		return splitSelected(ctx, cmd, sess)
	},
}

func init() {
	splitCmd.Flags().BoolVar(&flagSave, "save", false, "分割後すべてのセグメントをアルバムに保存する")
	rootCmd.AddCommand(splitCmd)
}
