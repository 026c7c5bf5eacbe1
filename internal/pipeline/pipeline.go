package pipeline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/library"
	"github.com/mt4110/split-video/internal/logger"
	"github.com/mt4110/split-video/internal/permission"
	"github.com/mt4110/split-video/internal/playlist"
	"github.com/mt4110/split-video/internal/probe"
	"github.com/mt4110/split-video/internal/split"
)

type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Info, error)
}

// Entry is the JSON line written to the log for every split and save.
// The stats command reads these back.
type Entry struct {
	Type           string  `json:"type"`
	Input          string  `json:"input"`
	OutDir         string  `json:"out_dir,omitempty"`
	Segments       int     `json:"segments,omitempty"`
	SegmentSeconds int     `json:"segment_seconds,omitempty"`
	SourceSec      float64 `json:"source_sec,omitempty"`
	SourceSize     int64   `json:"source_size,omitempty"`
	DurationSec    float64 `json:"duration_sec,omitempty"`
	Album          string  `json:"album,omitempty"`
	Location       string  `json:"location,omitempty"`
	Error          string  `json:"error,omitempty"`
	Timestamp      string  `json:"timestamp"`
}

const (
	TypeSplit = "split_result"
	TypeSave  = "save_result"
)

// Outcome is what one split produced.
type Outcome struct {
	Input    string
	OutDir   string
	Segments []string
	Playlist string
	Source   time.Duration
	Saved    []library.Asset
	// DryRun is set when nothing was run or written.
	DryRun bool
}

type Runner struct {
	Cfg      *config.Config
	Splitter *split.Splitter
	Prober   Prober
	Library  library.Library
}

func New(cfg *config.Config, splitter *split.Splitter, prober Prober, lib library.Library) *Runner {
	return &Runner{Cfg: cfg, Splitter: splitter, Prober: prober, Library: lib}
}

// SplitFile checks access, probes the source, runs the split into outDir
// and writes the segment playlist next to the segments.
func (r *Runner) SplitFile(ctx context.Context, inPath, outDir string, segmentTime int, onProgress func(split.Progress)) (Outcome, error) {
	if inPath == "" {
		return Outcome{}, split.ErrNoVideo
	}
	dryRun := r.Splitter.DryRun
	access := []permission.Result{permission.CheckRead(inPath)}
	if !dryRun {
		access = append(access, permission.CheckWrite(outDir))
	} else if res := permission.Inspect(outDir); !res.Missing {
		access = append(access, res)
	}
	if err := permission.Require(access...); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Input: inPath, OutDir: outDir, DryRun: dryRun}
	if r.Prober != nil {
		if info, err := r.Prober.Probe(ctx, inPath); err != nil {
			log.Printf("⚠️ メタデータ取得に失敗 (進捗は表示されません): %v", err)
		} else {
			out.Source = info.Duration
		}
	}

	s := *r.Splitter
	s.OnProgress = onProgress

	log.Printf("▶ 分割: %s (%d秒ごと) -> %s", inPath, segmentTime, outDir)
	start := time.Now()

	segs, err := s.Split(ctx, inPath, outDir, segmentTime, out.Source)
	if err != nil {
		var te *split.ToolError
		if errors.As(err, &te) {
			log.Printf("❌ ffmpeg 実行失敗:\n%s", te.Log)
		}
		r.logResult(Entry{Type: TypeSplit, Input: inPath, OutDir: outDir, SegmentSeconds: segmentTime, Error: err.Error()})
		return out, err
	}
	if dryRun {
		return out, nil
	}
	out.Segments = segs

	if len(segs) > 0 {
		pl, err := playlist.Write(outDir, playlist.Evenly(segs, segmentTime, out.Source))
		if err != nil {
			log.Printf("⚠️ プレイリストの書き込みに失敗: %v", err)
		} else {
			out.Playlist = pl
		}
	}

	var size int64
	if fi, err := os.Stat(inPath); err == nil {
		size = fi.Size()
	}
	r.logResult(Entry{
		Type:           TypeSplit,
		Input:          inPath,
		OutDir:         outDir,
		Segments:       len(segs),
		SegmentSeconds: segmentTime,
		SourceSec:      out.Source.Seconds(),
		SourceSize:     size,
		DurationSec:    time.Since(start).Seconds(),
	})
	return out, nil
}

// Save stores paths in the library, one log line per file.
func (r *Runner) Save(ctx context.Context, paths []string) ([]library.SaveResult, error) {
	if r.Library == nil {
		return nil, fmt.Errorf("media library is not configured")
	}
	if root := r.Library.Root(); root != "" {
		if err := permission.Require(permission.CheckWrite(root)); err != nil {
			return nil, err
		}
	}

	results := library.SaveAll(ctx, r.Library, paths)
	for _, res := range results {
		e := Entry{Type: TypeSave, Input: res.Path, Album: r.Library.Album()}
		if res.Err != nil {
			log.Printf("❌ アルバムへの保存に失敗: %s -> %v", res.Path, res.Err)
			e.Error = res.Err.Error()
		} else {
			log.Printf("💾 アルバム「%s」に保存: %s", r.Library.Album(), res.Asset.Location)
			e.Location = res.Asset.Location
		}
		r.logResult(e)
	}
	return results, nil
}

// Process splits one file into its own directory under the work dir and,
// with AutoSave, saves the segments.
func (r *Runner) Process(ctx context.Context, inPath string) (Outcome, error) {
	outDir := filepath.Join(r.Cfg.WorkDir, JobDirName(inPath))
	out, err := r.SplitFile(ctx, inPath, outDir, r.Cfg.SegmentSeconds, nil)
	if err != nil {
		return out, err
	}
	if r.Cfg.AutoSave && r.Library != nil && len(out.Segments) > 0 {
		results, err := r.Save(ctx, out.Segments)
		if err != nil {
			return out, err
		}
		for _, res := range results {
			if res.Err == nil {
				out.Saved = append(out.Saved, res.Asset)
			}
		}
	}
	return out, nil
}

// ProcessFiles runs Process over files with Cfg.Concurrent workers.
// Outcomes keep the order of files; failed entries carry only Input.
func (r *Runner) ProcessFiles(ctx context.Context, files []string) ([]Outcome, []error) {
	concurrent := r.Cfg.Concurrent
	if concurrent < 1 {
		concurrent = 1
	}

	log.Printf("分割対象: %d件", len(files))
	log.Printf("出力先: %s", r.Cfg.WorkDir)
	log.Printf("並列実行数: %d", concurrent)

	outcomes := make([]Outcome, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrent)

	for i, inPath := range files {
		wg.Add(1)
		semaphore <- struct{}{} // 実行枠を確保

		go func(i int, inPath string) {
			defer func() {
				<-semaphore // 実行枠を解放
				wg.Done()
			}()
			out, err := r.Process(ctx, inPath)
			if err != nil {
				log.Printf("❌ 分割失敗: %s -> %v", inPath, err)
				out = Outcome{Input: inPath}
			}
			outcomes[i], errs[i] = out, err
		}(i, inPath)
	}

	wg.Wait()
	log.Println("✅ すべて完了")
	return outcomes, errs
}

// JobDirName names a per-file output directory from the file stem, its
// modification time and a short hash of its absolute path, so same-named
// files from different folders never share a directory.
func JobDirName(inPath string) string {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stamp := time.Now().Format("2006-01-02_15-04-05")
	if info, err := os.Stat(inPath); err == nil {
		stamp = info.ModTime().Format("2006-01-02_15-04-05")
	}
	abs, err := filepath.Abs(inPath)
	if err != nil {
		abs = inPath
	}
	sum := sha1.Sum([]byte(abs))
	return stem + "_" + stamp + "_" + hex.EncodeToString(sum[:4])
}

func (r *Runner) logResult(e Entry) {
	e.Timestamp = time.Now().Format(time.RFC3339)
	logger.Result(e)
}
