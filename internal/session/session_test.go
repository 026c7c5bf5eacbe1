package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/library"
	"github.com/mt4110/split-video/internal/picker"
	"github.com/mt4110/split-video/internal/pipeline"
	"github.com/mt4110/split-video/internal/split"
)

type fakeFFmpeg struct {
	segments int
	fail     bool
}

func (f *fakeFFmpeg) Run(ctx context.Context, bin string, args []string, progress io.Writer) ([]byte, error) {
	if f.fail {
		return []byte("Invalid data found"), errors.New("exit status 1")
	}
	pattern := args[len(args)-1]
	for i := 0; i < f.segments; i++ {
		if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("seg"), 0644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type fixture struct {
	sess  *Session
	work  string
	album string
	video picker.VideoInfo
	ff    *fakeFFmpeg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewDefault()
	cfg.WorkDir = filepath.Join(t.TempDir(), "split-videos")
	cfg.AlbumRoot = t.TempDir()

	ff := &fakeFFmpeg{segments: 3}
	s := split.New("ffmpeg")
	s.Runner = ff
	runner := pipeline.New(cfg, s, nil, library.NewDir(cfg.AlbumRoot, cfg.Album))

	src := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0644))
	v, err := picker.Stat(src)
	require.NoError(t, err)

	return &fixture{
		sess:  New(cfg.WorkDir, runner, 60),
		work:  cfg.WorkDir,
		album: filepath.Join(cfg.AlbumRoot, cfg.Album),
		video: v,
		ff:    ff,
	}
}

func TestDefaultSegmentDuration(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "60", f.sess.State().SegmentDuration)
}

func TestSplitWithoutVideo(t *testing.T) {
	f := newFixture(t)
	_, err := f.sess.Split(context.Background())
	assert.True(t, errors.Is(err, split.ErrNoVideo))
}

func TestSplitInvalidDuration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))

	for _, text := range []string{"abc", "0", "-1", ""} {
		f.sess.SetSegmentDuration(text)
		_, err := f.sess.Split(context.Background())
		assert.True(t, errors.Is(err, split.ErrInvalidDuration), "text %q", text)
	}
}

func TestSplitAndSave(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))

	var updates int
	f.sess.OnProgress(func(split.Progress) { updates++ })

	segs, err := f.sess.Split(context.Background())
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, filepath.Join(f.work, "segment_000.mp4"), segs[0])
	assert.Positive(t, updates)

	st := f.sess.State()
	assert.False(t, st.Progress.IsProcessing)
	assert.Equal(t, segs, st.Results)

	asset, err := f.sess.Save(context.Background(), segs[1])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.album, "segment_001.mp4"), asset.Location)

	results, err := f.sess.SaveAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "segment_001_1.mp4", results[1].Asset.Name)
}

func TestSplitFailureKeepsNoResults(t *testing.T) {
	f := newFixture(t)
	f.ff.fail = true
	require.NoError(t, f.sess.Select(f.video))

	_, err := f.sess.Split(context.Background())
	var te *split.ToolError
	require.True(t, errors.As(err, &te))

	st := f.sess.State()
	assert.False(t, st.Progress.IsProcessing)
	assert.Empty(t, st.Results)
}

func TestFailedResplitDropsResults(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))
	segs, err := f.sess.Split(context.Background())
	require.NoError(t, err)
	require.Len(t, segs, 3)

	f.ff.fail = true
	_, err = f.sess.Split(context.Background())
	require.Error(t, err)

	st := f.sess.State()
	assert.Empty(t, st.Results)
	assert.Empty(t, st.Playlist)

	loaded, err := Load(f.work, nil, 60)
	require.NoError(t, err)
	assert.Empty(t, loaded.State().Results, "persisted state must not list removed segments")

	_, err = f.sess.SaveAll(context.Background())
	assert.Error(t, err)
}

func TestDryRunKeepsSegmentsAndState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))
	segs, err := f.sess.Split(context.Background())
	require.NoError(t, err)

	f.sess.runner.Splitter.DryRun = true
	got, err := f.sess.Split(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, p := range segs {
		assert.FileExists(t, p)
	}
	assert.Equal(t, segs, f.sess.State().Results)
}

func TestDryRunDoesNotCreateWorkDir(t *testing.T) {
	f := newFixture(t)
	f.sess.runner.Splitter.DryRun = true
	f.sess.state.Video = &f.video

	_, err := f.sess.Split(context.Background())
	require.NoError(t, err)
	assert.NoDirExists(t, f.work)
}

func TestSelectClearsResults(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))
	_, err := f.sess.Split(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.sess.Select(f.video))
	assert.Empty(t, f.sess.State().Results)
}

func TestPersistAndLoad(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))
	f.sess.SetSegmentDuration("30")
	segs, err := f.sess.Split(context.Background())
	require.NoError(t, err)

	loaded, err := Load(f.work, nil, 60)
	require.NoError(t, err)
	st := loaded.State()
	require.NotNil(t, st.Video)
	assert.Equal(t, f.video.Path, st.Video.Path)
	assert.Equal(t, "30", st.SegmentDuration)
	assert.Equal(t, segs, st.Results)
}

func TestLoadWithoutState(t *testing.T) {
	s, err := Load(t.TempDir(), nil, 45)
	require.NoError(t, err)
	assert.Equal(t, "45", s.State().SegmentDuration)
	assert.Nil(t, s.State().Video)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Select(f.video))
	f.sess.SetSegmentDuration("20")
	_, err := f.sess.Split(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.sess.Clear())

	st := f.sess.State()
	assert.Nil(t, st.Video)
	assert.Empty(t, st.Results)
	assert.Equal(t, split.Progress{}, st.Progress)
	assert.Equal(t, "20", st.SegmentDuration)

	left, err := split.ListSegments(f.work)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.NoFileExists(t, filepath.Join(f.work, StateFile))
}

func TestSaveAllWithoutResults(t *testing.T) {
	f := newFixture(t)
	_, err := f.sess.SaveAll(context.Background())
	assert.Error(t, err)
}
