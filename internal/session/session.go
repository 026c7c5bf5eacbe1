// Package session keeps the state of one pick → split → save run and
// persists it between invocations of the CLI.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/mt4110/split-video/internal/library"
	"github.com/mt4110/split-video/internal/picker"
	"github.com/mt4110/split-video/internal/pipeline"
	"github.com/mt4110/split-video/internal/playlist"
	"github.com/mt4110/split-video/internal/split"
)

const StateFile = ".session.json"

type State struct {
	Video           *picker.VideoInfo `json:"video,omitempty"`
	SegmentDuration string            `json:"segmentDuration"`
	Progress        split.Progress    `json:"progress"`
	Results         []string          `json:"results,omitempty"`
	Playlist        string            `json:"playlist,omitempty"`
}

type Session struct {
	mu       sync.Mutex
	state    State
	workDir  string
	runner   *pipeline.Runner
	progress func(split.Progress)
}

// New returns a session writing segments to workDir. The segment duration
// starts out as defaultSeconds.
func New(workDir string, runner *pipeline.Runner, defaultSeconds int) *Session {
	return &Session{
		workDir: workDir,
		runner:  runner,
		state:   State{SegmentDuration: strconv.Itoa(defaultSeconds)},
	}
}

// Load restores the last persisted state from workDir, if any.
func Load(workDir string, runner *pipeline.Runner, defaultSeconds int) (*Session, error) {
	s := New(workDir, runner, defaultSeconds)
	data, err := os.ReadFile(s.statePath())
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	// A crashed split leaves IsProcessing set; nothing is running now.
	s.state.Progress.IsProcessing = false
	return s, nil
}

func (s *Session) WorkDir() string { return s.workDir }

// OnProgress registers a callback for split progress.
func (s *Session) OnProgress(fn func(split.Progress)) {
	s.mu.Lock()
	s.progress = fn
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Results = append([]string(nil), s.state.Results...)
	return st
}

// Select sets the video to split and drops earlier results.
func (s *Session) Select(v picker.VideoInfo) error {
	s.mu.Lock()
	s.state.Video = &v
	s.state.Results = nil
	s.state.Playlist = ""
	s.mu.Unlock()
	return s.persist()
}

func (s *Session) SetSegmentDuration(text string) {
	s.mu.Lock()
	s.state.SegmentDuration = text
	s.mu.Unlock()
}

// Split runs the selected video through the splitter into the work dir.
func (s *Session) Split(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if s.state.Video == nil {
		s.mu.Unlock()
		return nil, split.ErrNoVideo
	}
	if s.state.Progress.IsProcessing {
		s.mu.Unlock()
		return nil, fmt.Errorf("split already in progress")
	}
	seconds, err := split.ParseDuration(s.state.SegmentDuration)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	video := *s.state.Video
	s.state.Progress = split.Progress{IsProcessing: true}
	s.mu.Unlock()

	out, err := s.runner.SplitFile(ctx, video.Path, s.workDir, seconds, s.updateProgress)

	s.mu.Lock()
	s.state.Progress.IsProcessing = false
	switch {
	case err != nil:
		// The splitter may already have removed the old segments.
		s.state.Results = nil
		s.state.Playlist = ""
	case out.DryRun:
	default:
		s.state.Results = out.Segments
		s.state.Playlist = out.Playlist
		if s.state.Video != nil && out.Source > 0 {
			s.state.Video.Duration = out.Source
		}
	}
	s.mu.Unlock()

	if err == nil && out.DryRun {
		return nil, nil
	}
	if perr := s.persist(); perr != nil {
		log.Printf("⚠️ セッションの保存に失敗: %v", perr)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("✅ 動画を %d 個のセグメントに分割しました", len(out.Segments))
	return out.Segments, nil
}

// Save stores one segment from the results in the album.
func (s *Session) Save(ctx context.Context, path string) (library.Asset, error) {
	results, err := s.runner.Save(ctx, []string{path})
	if err != nil {
		return library.Asset{}, err
	}
	return results[0].Asset, results[0].Err
}

// SaveAll stores every result segment in the album.
func (s *Session) SaveAll(ctx context.Context) ([]library.SaveResult, error) {
	st := s.State()
	if len(st.Results) == 0 {
		return nil, fmt.Errorf("no segments to save; run a split first")
	}
	return s.runner.Save(ctx, st.Results)
}

// Clear resets the session and removes the split output from the work dir.
func (s *Session) Clear() error {
	s.mu.Lock()
	if s.state.Progress.IsProcessing {
		s.mu.Unlock()
		return fmt.Errorf("split in progress")
	}
	seconds := s.state.SegmentDuration
	s.state = State{SegmentDuration: seconds}
	s.mu.Unlock()

	if err := split.ClearSegments(s.workDir); err != nil {
		return err
	}
	for _, name := range []string{playlist.FileName, StateFile} {
		if err := os.Remove(filepath.Join(s.workDir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *Session) updateProgress(p split.Progress) {
	s.mu.Lock()
	s.state.Progress = p
	fn := s.progress
	s.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

func (s *Session) statePath() string { return filepath.Join(s.workDir, StateFile) }

func (s *Session) persist() error {
	st := s.State()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.workDir, 0755); err != nil {
		return err
	}
	tmp := s.statePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.statePath())
}
