package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "初期セットアップの設定を削除します",
	Long:  `LaunchAgent(plist)のアンロードと削除を行います。出力先のセグメントとアルバムは残ります。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runtime.GOOS != "darwin" {
			log.Println("ℹ️ LaunchAgent は macOS のみです。削除するものはありません。")
			return nil
		}
		plistPath, err := agentPath()
		if err != nil {
			return fmt.Errorf("ホームディレクトリの取得に失敗: %w", err)
		}

		// 1. Unload
		log.Printf("LaunchAgentをアンロードしています: %s", plistPath)
		if output, err := exec.Command("launchctl", "unload", plistPath).CombinedOutput(); err != nil {
			log.Printf("⚠️ アンロードに失敗しました (すでにロードされていない可能性があります): %v\n%s", err, string(output))
		} else {
			log.Println("✅ アンロード成功")
		}

		// 2. Remove plist
		if _, err := os.Stat(plistPath); err != nil {
			log.Println("⚠️ plistファイルが見つかりません")
		} else {
			if err := os.Remove(plistPath); err != nil {
				return fmt.Errorf("plistファイルの削除に失敗: %w", err)
			}
			log.Println("✅ plistファイルを削除しました")
		}

		log.Println("アンインストール完了 (設定ファイル、ログ、出力ディレクトリ、split-video バイナリ自体は残っています)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
