package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeRunner writes n segments next to the output pattern and replays
// progress lines, standing in for ffmpeg.
type fakeRunner struct {
	n        int
	progress []string
	stderr   string
	err      error
	gotBin   string
	gotArgs  []string
}

func (f *fakeRunner) Run(ctx context.Context, bin string, args []string, progress io.Writer) ([]byte, error) {
	f.gotBin, f.gotArgs = bin, args
	for _, l := range f.progress {
		io.WriteString(progress, l+"\n")
	}
	if f.err != nil {
		return []byte(f.stderr), f.err
	}
	pattern := args[len(args)-1]
	for i := 0; i < f.n; i++ {
		if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("seg"), 0644); err != nil {
			return nil, err
		}
	}
	return []byte(f.stderr), nil
}

func TestArgs(t *testing.T) {
	got := strings.Join(Args("/v/in.mov", "/out", 60), " ")
	want := "-i /v/in.mov -c copy -map 0 -segment_time 60 -f segment -reset_timestamps 1 " + filepath.Join("/out", "segment_%03d.mp4")
	if got != want {
		t.Errorf("Args:\n got  %s\n want %s", got, want)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"60", 60, false},
		{" 15 ", 15, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"60abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Errorf("expected ErrInvalidDuration, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, %v", tt.in, got, err)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	out := t.TempDir()
	// stale files from an earlier run must not show up in the result
	os.WriteFile(filepath.Join(out, "segment_009.mp4"), nil, 0644)
	os.WriteFile(filepath.Join(out, "notes.txt"), nil, 0644)

	runner := &fakeRunner{
		n:        3,
		progress: []string{"out_time_us=30000000", "progress=continue", "out_time_us=150000000", "progress=end"},
	}
	var updates []Progress
	s := New("")
	s.Runner = runner
	s.OnProgress = func(p Progress) { updates = append(updates, p) }

	files, err := s.Split(context.Background(), "/v/in.mp4", out, 60, 150*time.Second)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if runner.gotBin != "ffmpeg" {
		t.Errorf("expected default ffmpeg bin, got %s", runner.gotBin)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 segments, got %v", files)
	}
	for i, f := range files {
		if want := filepath.Join(out, fmt.Sprintf("segment_%03d.mp4", i)); f != want {
			t.Errorf("files[%d] = %s, want %s", i, f, want)
		}
	}

	if len(updates) < 3 {
		t.Fatalf("expected progress updates, got %v", updates)
	}
	if !updates[0].IsProcessing || updates[0].Total != 3 {
		t.Errorf("first update = %+v", updates[0])
	}
	if mid := updates[1]; mid.Current != 1 || mid.Percentage != 20 {
		t.Errorf("mid update = %+v", mid)
	}
	last := updates[len(updates)-1]
	if last.IsProcessing || last.Percentage != 100 || last.Current != 3 {
		t.Errorf("last update = %+v", last)
	}
}

func TestSplit_ToolFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "Invalid data found when processing input"}
	var last Progress
	s := &Splitter{FFmpegBin: "ffmpeg", Runner: runner, OnProgress: func(p Progress) { last = p }}

	_, err := s.Split(context.Background(), "/v/bad.mp4", t.TempDir(), 60, 0)
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if !strings.Contains(te.Log, "Invalid data") {
		t.Errorf("tool log not kept: %q", te.Log)
	}
	if last.IsProcessing {
		t.Error("IsProcessing must be reset after failure")
	}
}

func TestSplit_Validation(t *testing.T) {
	s := &Splitter{Runner: &fakeRunner{}}
	if _, err := s.Split(context.Background(), "", t.TempDir(), 60, 0); !errors.Is(err, ErrNoVideo) {
		t.Errorf("expected ErrNoVideo, got %v", err)
	}
	if _, err := s.Split(context.Background(), "in.mp4", t.TempDir(), 0, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestSplit_DryRun(t *testing.T) {
	runner := &fakeRunner{n: 2}
	s := &Splitter{FFmpegBin: "ffmpeg", Runner: runner, DryRun: true}
	files, err := s.Split(context.Background(), "in.mp4", t.TempDir(), 10, 0)
	if err != nil || files != nil {
		t.Fatalf("dry run: files=%v err=%v", files, err)
	}
	if runner.gotArgs != nil {
		t.Error("dry run must not invoke the runner")
	}
}

func TestSplit_DryRunKeepsExistingSegments(t *testing.T) {
	out := t.TempDir()
	stale := filepath.Join(out, "segment_000.mp4")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(out, "not-yet")

	s := &Splitter{FFmpegBin: "ffmpeg", Runner: &fakeRunner{n: 2}, DryRun: true}
	if _, err := s.Split(context.Background(), "in.mp4", out, 10, 0); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Errorf("dry run removed an existing segment: %v", err)
	}
	if _, err := s.Split(context.Background(), "in.mp4", missing, 10, 0); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("dry run created the output dir: %v", err)
	}
}

func TestSplit_InputIsSegment(t *testing.T) {
	out := t.TempDir()
	in := filepath.Join(out, "segment_001.mp4")
	if err := os.WriteFile(in, []byte("seg"), 0644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{n: 2}
	s := &Splitter{FFmpegBin: "ffmpeg", Runner: runner}

	_, err := s.Split(context.Background(), in, out, 10, 0)
	if !errors.Is(err, ErrInputIsSegment) {
		t.Fatalf("expected ErrInputIsSegment, got %v", err)
	}
	if _, err := os.Stat(in); err != nil {
		t.Errorf("input segment was removed: %v", err)
	}
	if runner.gotArgs != nil {
		t.Error("runner must not be invoked")
	}
}

func TestIsSegmentOf(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/w/segment_000.mp4", "/w", true},
		{"/w/segment_000.mp4", "/w/", true},
		{"/w/sub/segment_000.mp4", "/w", false},
		{"/w/movie.mp4", "/w", false},
		{"/v/segment_000.mp4", "/w", false},
	}
	for _, tt := range tests {
		if got := IsSegmentOf(tt.path, tt.dir); got != tt.want {
			t.Errorf("IsSegmentOf(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestEstimateCount(t *testing.T) {
	tests := []struct {
		total time.Duration
		seg   int
		want  int
	}{
		{0, 60, 0},
		{60 * time.Second, 60, 1},
		{61 * time.Second, 60, 2},
		{125500 * time.Millisecond, 60, 3},
	}
	for _, tt := range tests {
		if got := EstimateCount(tt.total, tt.seg); got != tt.want {
			t.Errorf("EstimateCount(%v, %d) = %d, want %d", tt.total, tt.seg, got, tt.want)
		}
	}
}

func TestTrackerPartialLines(t *testing.T) {
	var got Progress
	tr := newTracker(10, 40*time.Second, func(p Progress) { got = p })
	tr.Write([]byte("out_time_us=2500"))
	tr.Write([]byte("0000\nspeed=1x\n"))
	if got.Current != 3 || got.Percentage != 62.5 {
		t.Errorf("got %+v", got)
	}
	tr.Write([]byte("out_time_us=99000000\n"))
	if got.Current != 4 || got.Percentage != 100 {
		t.Errorf("values must be capped: %+v", got)
	}
}
