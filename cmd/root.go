package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/ffcheck"
	"github.com/mt4110/split-video/internal/logger"
	"github.com/mt4110/split-video/internal/picker"
	"github.com/mt4110/split-video/internal/watcher"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "split-video [videoOrDirs...]",
	Short: "動画を指定した秒数ごとのセグメントに分割し、アルバムに保存します。",
	Long: `ライブラリから動画を選び、ffmpeg の segment 機能で一定時間ごとに分割するCLIツール。
引数なしで起動するとライブラリから動画を選択できます。分割したセグメントは「Split Videos」アルバムに保存できます。`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Annotations:   ffmpegAnnotation,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			log.Printf("設定ファイルの読み込みに失敗しました (デフォルト値を使用します): %v", err)
			cfg = config.NewDefault()
		}

		updateConfigFromFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger.Setup(cfg.LogFile)

		if needsFFmpeg(cmd) {
			ffcheck.CheckFFmpeg(cfg.FFmpegBin, cfg.FFprobeBin)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		runner, err := buildRunner(cfg)
		if err != nil {
			return err
		}

		if flagWatch {
			if len(args) > 0 {
				cfg.WatchDirs = args // Override config with CLI args
			}
			if len(cfg.WatchDirs) == 0 {
				cfg.WatchDirs = []string{"."}
			}
			w := watcher.New(cfg, runner)
			log.Println("👀 監視モードを開始しました (Ctrl+C で終了)")
			return w.Run(ctx)
		}

		sess, err := openSession(cfg, runner)
		if err != nil {
			return err
		}

		// No args: pick from the library, then split.
		if len(args) == 0 {
			video, ok, err := pickVideo(cfg.LibraryDir)
			if err != nil {
				return err
			}
			if !ok {
				log.Println("選択がキャンセルされました。")
				return nil
			}
			return runSplit(ctx, cmd, sess, video)
		}

		// A single file goes through the session so save/clear can follow up.
		if len(args) == 1 {
			if path := config.ExpandHome(args[0]); fileExists(path) {
				video, err := picker.Stat(path)
				if err != nil {
					return err
				}
				return runSplit(ctx, cmd, sess, video)
			}
		}

		// Batch Mode
		roots := make([]string, len(args))
		for i, a := range args {
			roots[i] = config.ExpandHome(a)
		}
		videos, err := picker.Scan(roots, cfg.Extensions, picker.Filter{Keywords: cfg.Keywords, IgnoreKeywords: cfg.IgnoreKeywords})
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			log.Println("分割対象が見つかりません。")
			return nil
		}
		files := make([]string, len(videos))
		for i, v := range videos {
			files[i] = v.Path
		}

		if flagSave {
			cfg.AutoSave = true
		}
		_, errs := runner.ProcessFiles(ctx, files)
		failed := 0
		for _, e := range errs {
			if e != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d/%d 件の分割に失敗しました", failed, len(files))
		}
		return nil
	},
}

// Temporary variables for flags
var (
	flagSegment        int
	flagDest           string
	flagLibrary        string
	flagAlbum          string
	flagAlbumRoot      string
	flagBackend        string
	flagProfile        string
	flagDryRun         bool
	flagFFmpegBin      string
	flagFFprobeBin     string
	flagKeywords       []string
	flagIgnoreKeywords []string
	flagConcurrent     int
	flagNotify         bool
	flagWatch          bool
	flagSave           bool
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "❌", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "設定ファイルのパス (既定: ~/.config/split-video/config.yaml)")
	pf.IntVar(&flagSegment, "segment", 0, "分割時長（秒）")
	pf.StringVar(&flagDest, "dest", "", "セグメントの出力先ディレクトリ")
	pf.StringVar(&flagLibrary, "library", "", "動画を選択するライブラリのディレクトリ")
	pf.StringVar(&flagAlbum, "album", "", "保存先アルバム名")
	pf.StringVar(&flagAlbumRoot, "album-root", "", "アルバムを作成するディレクトリ (local バックエンド)")
	pf.StringVar(&flagBackend, "backend", "", "アルバムの保存先 (local / s3)")
	pf.StringVar(&flagProfile, "profile", "", "使用するプロファイル名")
	pf.BoolVar(&flagDryRun, "dry-run", false, "実行せずにコマンドを表示する")
	pf.StringVar(&flagFFmpegBin, "ffmpeg-bin", "", "ffmpegのバイナリパスを明示的に指定する")
	pf.StringVar(&flagFFprobeBin, "ffprobe-bin", "", "ffprobeのバイナリパスを明示的に指定する")

	rootCmd.Flags().StringSliceVar(&flagKeywords, "keywords", []string{}, "ファイル名に含まれるキーワードでフィルタ")
	rootCmd.Flags().StringSliceVar(&flagIgnoreKeywords, "ignore-keywords", []string{}, "ファイル名に含まれるキーワードを除外")
	rootCmd.Flags().IntVar(&flagConcurrent, "concurrent", 0, "並列実行数 (一括モード)")
	rootCmd.Flags().BoolVar(&flagNotify, "notify", true, "分割完了時にデスクトップ通知を送る (監視モード)")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "指定したディレクトリを監視して自動分割する")
	rootCmd.Flags().BoolVar(&flagSave, "save", false, "分割後すべてのセグメントをアルバムに保存する")
}

const annotationFFmpeg = "split-video/ffmpeg"

// ffmpegAnnotation marks commands that run ffmpeg; only they pay for the
// tool check at startup.
var ffmpegAnnotation = map[string]string{annotationFFmpeg: "true"}

func needsFFmpeg(c *cobra.Command) bool {
	return c.Annotations[annotationFFmpeg] == "true"
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(config.ExpandHome(cfgFile))
	}
	return config.Load()
}

func updateConfigFromFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	// Profile first so explicit flags win over it.
	if flags.Changed("profile") {
		if c.ApplyProfile(flagProfile) {
			log.Printf("ℹ️ プロファイル '%s' を適用しました (分割時長: %d秒)", flagProfile, c.SegmentSeconds)
		} else {
			log.Printf("⚠️ プロファイル '%s' は見つかりませんでした。デフォルト設定を使用します。", flagProfile)
		}
	}

	if flags.Changed("segment") {
		c.SegmentSeconds = flagSegment
	}
	if flags.Changed("dest") {
		c.WorkDir = config.ExpandHome(flagDest)
	}
	if flags.Changed("library") {
		c.LibraryDir = config.ExpandHome(flagLibrary)
	}
	if flags.Changed("album") {
		c.Album = flagAlbum
	}
	if flags.Changed("album-root") {
		c.AlbumRoot = config.ExpandHome(flagAlbumRoot)
	}
	if flags.Changed("backend") {
		c.Backend = flagBackend
	}
	if flags.Changed("dry-run") {
		c.DryRun = flagDryRun
	}
	if flags.Changed("ffmpeg-bin") {
		c.FFmpegBin = flagFFmpegBin
	}
	if flags.Changed("ffprobe-bin") {
		c.FFprobeBin = flagFFprobeBin
	}
	if flags.Changed("keywords") {
		c.Keywords = flagKeywords
	}
	if flags.Changed("ignore-keywords") {
		c.IgnoreKeywords = flagIgnoreKeywords
	}
	if flags.Changed("concurrent") {
		c.Concurrent = flagConcurrent
	}
	// Notify is default true, so we need careful handling if user passed --notify=false
	if flags.Changed("notify") {
		c.Notify = flagNotify
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
