package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/picker"
	"github.com/mt4110/split-video/internal/pipeline"
)

// Events
type FileFoundEvent struct {
	Path string
	Name string
}
type StartSplitEvent struct {
	Path string
}
type SuccessEvent struct {
	Path     string
	OutDir   string
	Segments int
}
type FailureEvent struct {
	Path string
	Err  error
}

type processor interface {
	Process(ctx context.Context, inPath string) (pipeline.Outcome, error)
}

type Watcher struct {
	Cfg       *config.Config
	Runner    processor
	EventChan chan<- interface{} // Optional: Send events for TUI
	// Settle is how long a new file is left alone before splitting, so the
	// writer can finish.
	Settle time.Duration

	mu         sync.Mutex
	processing map[string]bool
	wg         sync.WaitGroup
}

func New(cfg *config.Config, runner *pipeline.Runner) *Watcher {
	return &Watcher{
		Cfg:        cfg,
		Runner:     runner,
		Settle:     2 * time.Second,
		processing: make(map[string]bool),
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight splits.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if len(w.Cfg.WatchDirs) == 0 {
		return fmt.Errorf("監視対象のディレクトリが設定されていません")
	}

	added := 0
	for _, dir := range w.Cfg.WatchDirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			log.Printf("⚠️ ディレクトリパスの解決に失敗 (スキップ): %s -> %v", dir, err)
			continue
		}
		if err = fw.Add(absDir); err != nil {
			log.Printf("⚠️ 監視エラー (スキップ): %s -> %v", dir, err)
			continue
		}
		added++
		log.Printf("監視を開始しました: %s", absDir)
	}
	if added == 0 {
		return fmt.Errorf("監視できるディレクトリがありません")
	}

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			log.Println("監視エラー:", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.isTarget(event.Name) {
		return
	}

	w.mu.Lock()
	if w.processing[event.Name] {
		w.mu.Unlock()
		log.Printf("すでに処理中です: %s", event.Name)
		return
	}
	w.processing[event.Name] = true
	w.mu.Unlock()

	log.Printf("新規ファイルを検知: %s", event.Name)
	w.emit(FileFoundEvent{Path: event.Name, Name: filepath.Base(event.Name)})

	w.wg.Add(1)
	go w.processFile(ctx, event.Name)
}

func (w *Watcher) isTarget(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !picker.IsVideo(name, w.Cfg.Extensions) {
		return false
	}
	f := picker.Filter{Keywords: w.Cfg.Keywords, IgnoreKeywords: w.Cfg.IgnoreKeywords}
	if !f.Match(name) {
		log.Printf("キーワード条件によりスキップ: %s", name)
		return false
	}
	return true
}

func (w *Watcher) processFile(ctx context.Context, path string) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		delete(w.processing, path)
		w.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return
	case <-time.After(w.Settle): // Wait for write finish (simple)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("ファイルが見つかりません (削除または移動されました): %s", path)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		log.Printf("パスの解決に失敗: %v", err)
		return
	}
	name := filepath.Base(absPath)

	log.Printf("分割開始: %s", absPath)
	w.emit(StartSplitEvent{Path: absPath})

	out, err := w.Runner.Process(ctx, absPath)
	if err != nil {
		log.Printf("❌ 分割失敗: %v", err)
		w.emit(FailureEvent{Path: absPath, Err: err})
		if w.Cfg.Notify {
			pipeline.SendNotification("分割失敗", fmt.Sprintf("%s の分割に失敗しました。", name), "")
		}
		return
	}

	log.Printf("✅ 分割完了: %s (%d セグメント)", absPath, len(out.Segments))
	w.emit(SuccessEvent{Path: absPath, OutDir: out.OutDir, Segments: len(out.Segments)})
	if w.Cfg.Notify {
		pipeline.SendNotification("分割完了", fmt.Sprintf("%s を %d 個に分割しました。", name, len(out.Segments)), out.OutDir)
	}
}

func (w *Watcher) emit(ev interface{}) {
	if w.EventChan != nil {
		w.EventChan <- ev
	}
}
