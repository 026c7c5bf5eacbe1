package cmd

import (
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/ffcheck"
	"github.com/mt4110/split-video/internal/logger"
	"github.com/mt4110/split-video/internal/permission"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "環境の診断を行います",
	Long:  `ffmpeg/ffprobe のインストール状況、ライブラリ・出力先・アルバムの権限、設定ファイルの状態などをチェックします。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("🏥 環境診断を開始します...")
		hasError := false

		// 1. ffmpeg / ffprobe
		ff := ffcheck.Lookup(cfg.FFmpegBin)
		if !ff.Found() {
			log.Printf("❌ %s が見つかりません。 `brew install ffmpeg` を実行してください。", cfg.FFmpegBin)
			hasError = true
		} else {
			log.Printf("✅ ffmpeg found: %s", ff.Path)
			if ff.Version != "" {
				log.Printf("   Version: %s", ff.Version)
			}
			if ff.GPL() {
				log.Println("   ℹ️ GPL ビルドです (--enable-gpl)")
			}
			if ffcheck.Outdated() {
				log.Println("   ℹ️ アップデートが可能です: brew upgrade ffmpeg")
			}
		}
		if probe := ffcheck.Lookup(cfg.FFprobeBin); !probe.Found() {
			log.Printf("⚠️ %s が見つかりません。進捗率とプレイリストの長さが推定値になります。", cfg.FFprobeBin)
		} else {
			log.Printf("✅ ffprobe found: %s", probe.Path)
		}

		// 2. notifier
		notifier := "notify-send"
		if runtime.GOOS == "darwin" {
			notifier = "terminal-notifier"
		}
		if path, err := exec.LookPath(notifier); err != nil {
			log.Printf("⚠️ %s が見つかりません。監視モードの通知が簡易表示になります。", notifier)
		} else {
			log.Printf("✅ %s found: %s", notifier, path)
		}

		// 3. permissions
		checks := []accessCheck{
			{"ライブラリ", permission.CheckReadDir(cfg.LibraryDir)},
			{"出力先", permission.Inspect(cfg.WorkDir)},
			{"ログ", permission.Inspect(filepath.Dir(logPath()))},
		}
		if cfg.Backend != config.BackendS3 {
			checks = append(checks, accessCheck{"アルバム", permission.Inspect(filepath.Join(cfg.AlbumRoot, cfg.Album))})
		}
		for _, c := range checks {
			if c.result.Missing {
				log.Printf("ℹ️ %s: %s (%s)", c.label, c.result.Reason, c.result.Path)
				continue
			}
			if err := permission.Require(c.result); err != nil {
				log.Printf("❌ %s: %v", c.label, err)
				if errors.Is(err, permission.ErrPermission) {
					hasError = true
				}
				continue
			}
			log.Printf("✅ %s権限 OK (%s)", c.label, c.result.Path)
		}

		// 4. S3 backend
		if cfg.Backend == config.BackendS3 {
			if cfg.S3.Endpoint == "" || cfg.S3.Bucket == "" {
				log.Println("❌ s3 バックエンドには endpoint と bucket の設定が必要です (SPLIT_VIDEO_S3_ENDPOINT / SPLIT_VIDEO_S3_BUCKET)")
				hasError = true
			} else {
				log.Printf("✅ s3 バックエンド: %s/%s", cfg.S3.Endpoint, cfg.S3.Bucket)
			}
		}

		// 5. config file
		if path, err := config.Path(); err == nil {
			if _, err := os.Stat(path); err != nil {
				log.Println("ℹ️ 設定ファイルは見つかりませんでした (init未実行)。デフォルト値で動作します。")
			} else {
				log.Printf("✅ config found: %s", path)
			}
		}

		if hasError {
			log.Println("\n❌ いくつかの問題が見つかりました。修正してください。")
			return errors.New("環境診断で問題が見つかりました")
		}
		log.Println("\n✅ 診断完了: 概ね問題なさそうです！")
		return nil
	},
}

type accessCheck struct {
	label  string
	result permission.Result
}

func logPath() string {
	if cfg != nil && cfg.LogFile != "" {
		return cfg.LogFile
	}
	return logger.DefaultPath()
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
