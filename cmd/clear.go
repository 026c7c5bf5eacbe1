package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "選択と分割結果をリセットします",
	Long:  `セッションをリセットし、出力先ディレクトリのセグメントとプレイリストを削除します。アルバムに保存済みのファイルは残ります。`,
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
		if err := sess.Clear(); err != nil {
			return err
		}
		log.Printf("🧹 クリアしました: %s", sess.WorkDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
