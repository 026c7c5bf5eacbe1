package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/library"
)

var saveCmd = &cobra.Command{
	Use:   "save [segment...]",
	Short: "セグメントをアルバムに保存します",
	Long: `分割結果のセグメントをアルバム (既定: Split Videos) に保存します。
引数なしですべてのセグメントを保存します。引数には list で表示される番号かファイルパスを指定できます。`,
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

		if len(args) == 0 {
			results, err := sess.SaveAll(ctx)
			if err != nil {
				return err
			}
			return reportSaved(cmd, results)
		}

		paths, err := resolveSegments(sess.State().Results, args)
		if err != nil {
			return err
		}
		results := make([]library.SaveResult, 0, len(paths))
		for _, p := range paths {
			asset, err := sess.Save(ctx, p)
			results = append(results, library.SaveResult{Path: p, Asset: asset, Err: err})
		}
		return reportSaved(cmd, results)
	},
}

// resolveSegments maps 1-based result indexes and plain paths to segment paths.
func resolveSegments(results []string, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			if n < 1 || n > len(results) {
				return nil, fmt.Errorf("セグメント番号 %d は範囲外です (1-%d)", n, len(results))
			}
			paths = append(paths, results[n-1])
			continue
		}
		p := config.ExpandHome(a)
		if !fileExists(p) {
			return nil, fmt.Errorf("セグメントが見つかりません: %s", a)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
