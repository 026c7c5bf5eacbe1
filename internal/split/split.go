package split

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SegmentPrefix = "segment_"
	SegmentExt    = ".mp4"
)

var (
	ErrNoVideo         = errors.New("no video selected")
	ErrInvalidDuration = errors.New("invalid segment duration")
	// ErrInputIsSegment is returned when the input is one of the segment
	// files the split would clear and rewrite.
	ErrInputIsSegment = errors.New("input is a segment file in the output dir")
)

// ToolError is returned when ffmpeg exits non-zero. Log holds its stderr.
type ToolError struct {
	ExitCode int
	Log      string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("split failed (exit %d), check the video format: %v", e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Runner executes the media tool. progress receives its stdout.
type Runner interface {
	Run(ctx context.Context, bin string, args []string, progress io.Writer) (stderr []byte, err error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, bin string, args []string, progress io.Writer) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if progress != nil {
		cmd.Stdout = progress
	}
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Splitter handles file segmentation
type Splitter struct {
	FFmpegBin  string
	Runner     Runner
	DryRun     bool
	OnProgress func(Progress)
}

func New(ffmpegBin string) *Splitter {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Splitter{FFmpegBin: ffmpegBin, Runner: ExecRunner{}}
}

// ParseDuration accepts a positive whole number of seconds.
func ParseDuration(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	return n, nil
}

// Args is the fixed segment command. Stream copy keeps it fast; the cut
// points land on the nearest keyframe after each boundary.
func Args(inFile, outDir string, segmentTime int) []string {
	return []string{
		"-i", inFile,
		"-c", "copy",
		"-map", "0",
		"-segment_time", strconv.Itoa(segmentTime),
		"-f", "segment",
		"-reset_timestamps", "1",
		filepath.Join(outDir, SegmentPrefix+"%03d"+SegmentExt),
	}
}

// Split divides inFile into segmentTime-second chunks in outDir and returns
// the generated paths. total is the source duration, 0 when unknown; it only
// feeds the progress numbers.
func (s *Splitter) Split(ctx context.Context, inFile, outDir string, segmentTime int, total time.Duration) ([]string, error) {
	if inFile == "" {
		return nil, ErrNoVideo
	}
	if segmentTime <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, segmentTime)
	}
	if IsSegmentOf(inFile, outDir) {
		return nil, fmt.Errorf("%w: %s", ErrInputIsSegment, inFile)
	}

	// -progress goes to stdout so stderr stays a readable log.
	args := append([]string{"-y", "-hide_banner", "-nostats", "-progress", "pipe:1"}, Args(inFile, outDir, segmentTime)...)

	// Dry run leaves the filesystem alone.
	if s.DryRun {
		log.Printf("[DryRun] Command: %s %s", s.FFmpegBin, strings.Join(args, " "))
		return nil, nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := ClearSegments(outDir); err != nil {
		return nil, err
	}

	tracker := newTracker(segmentTime, total, s.OnProgress)
	tracker.start()

	runner := s.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stderr, err := runner.Run(ctx, s.FFmpegBin, args, tracker)
	if err != nil {
		tracker.stop()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &ToolError{ExitCode: code, Log: string(stderr), Err: err}
	}

	files, err := ListSegments(outDir)
	if err != nil {
		tracker.stop()
		return nil, err
	}
	tracker.finish(len(files))

	log.Printf("🔪 分割完了: %s -> %d セグメント", filepath.Base(inFile), len(files))
	return files, nil
}

// ListSegments returns the .mp4 files in dir, sorted, as full paths.
func ListSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SegmentExt) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsSegmentOf reports whether path is named like a segment and lives in dir.
func IsSegmentOf(path, dir string) bool {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, SegmentPrefix) || !strings.HasSuffix(name, SegmentExt) {
		return false
	}
	absPath, err1 := filepath.Abs(path)
	absDir, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return false
	}
	return filepath.Dir(absPath) == absDir
}

// ClearSegments removes segment files left by an earlier run in dir.
func ClearSegments(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, SegmentPrefix+"*"+SegmentExt))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale segment: %w", err)
		}
	}
	return nil
}

// EstimateCount is the number of segments a source of the given duration yields.
func EstimateCount(total time.Duration, segmentTime int) int {
	if total <= 0 || segmentTime <= 0 {
		return 0
	}
	seg := time.Duration(segmentTime) * time.Second
	return int((total + seg - 1) / seg)
}
