package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/config"
)

const agentLabel = "com.user.splitvideo"

var flagForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初期セットアップを行います",
	Long: `設定ファイル(~/.config/split-video/config.yaml)の生成と、出力先・アルバムのディレクトリ作成を行います。
macOS では監視モード用の LaunchAgent(plist)も生成できます。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Config file
		path, err := config.Path()
		if cfgFile != "" {
			path, err = config.ExpandHome(cfgFile), nil
		}
		if err != nil {
			return fmt.Errorf("設定ファイルのパスを決定できません: %w", err)
		}
		if _, err := os.Stat(path); err == nil && !flagForce {
			log.Printf("ℹ️ 設定ファイルは既に存在します: %s (上書きするには --force)", path)
		} else {
			// Credentials stay in the environment (.env), never in config.yaml.
			out := *cfg
			out.S3.AccessKey, out.S3.SecretKey = "", ""
			if err := out.Save(path); err != nil {
				return err
			}
			log.Printf("✅ 設定ファイルを作成: %s", path)
		}

		// 2. Directories
		dirs := []string{cfg.WorkDir}
		if cfg.Backend != config.BackendS3 {
			dirs = append(dirs, filepath.Join(cfg.AlbumRoot, cfg.Album))
		}
		for _, d := range dirs {
			if err := os.MkdirAll(d, 0755); err != nil {
				log.Printf("ディレクトリ作成失敗: %v", err)
			} else {
				log.Printf("✅ ディレクトリを確認: %s", d)
			}
		}

		// 3. LaunchAgent for watch mode (macOS only)
		if runtime.GOOS != "darwin" || len(cfg.WatchDirs) == 0 {
			return nil
		}
		return installAgent()
	},
}

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecPath}}</string>
        <string>--watch</string>
{{- range .WatchDirs}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`

type agentData struct {
	Label     string
	ExecPath  string
	WatchDirs []string
	LogPath   string
}

func agentPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library/LaunchAgents", agentLabel+".plist"), nil
}

func installAgent() error {
	plistPath, err := agentPath()
	if err != nil {
		return err
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = "/usr/local/bin/split-video" // fallback
	}

	if err := os.MkdirAll(filepath.Dir(plistPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(plistPath)
	if err != nil {
		return fmt.Errorf("plistファイルの作成に失敗: %w", err)
	}
	t := template.Must(template.New("plist").Parse(plistTemplate))
	err = t.Execute(f, agentData{Label: agentLabel, ExecPath: execPath, WatchDirs: cfg.WatchDirs, LogPath: logPath()})
	f.Close()
	if err != nil {
		return fmt.Errorf("plistの書き込みに失敗: %w", err)
	}
	log.Printf("✅ plistファイルを作成: %s", plistPath)

	log.Println("LaunchAgentをロードしますか？ (y/n)")
	var response string
	fmt.Scanln(&response)
	if response != "y" && response != "Y" {
		log.Println("スキップしました。手動で実行する場合は以下のコマンドを入力してください:")
		fmt.Printf("launchctl load %s\n", plistPath)
		return nil
	}

	// Unload first just in case
	exec.Command("launchctl", "unload", plistPath).Run()
	if output, err := exec.Command("launchctl", "load", plistPath).CombinedOutput(); err != nil {
		log.Printf("❌ launchctl load 失敗: %v\n%s", err, string(output))
	} else {
		log.Println("✅ launchctl load 成功！ split-video がバックグラウンドで監視を開始しました。")
	}
	return nil
}

func init() {
	initCmd.Flags().BoolVar(&flagForce, "force", false, "既存の設定ファイルを上書きする")
	rootCmd.AddCommand(initCmd)
}
