package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt4110/split-video/internal/config"
)

func TestResolveSegments(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "other.mp4")
	require.NoError(t, os.WriteFile(extra, []byte("x"), 0644))

	results := []string{"/w/segment_000.mp4", "/w/segment_001.mp4"}

	got, err := resolveSegments(results, []string{"2", extra, "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/w/segment_001.mp4", extra, "/w/segment_000.mp4"}, got)

	_, err = resolveSegments(results, []string{"3"})
	assert.Error(t, err)
	_, err = resolveSegments(results, []string{"0"})
	assert.Error(t, err)
	_, err = resolveSegments(results, []string{filepath.Join(dir, "missing.mp4")})
	assert.Error(t, err)
}

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	// The flag structs are shared with rootCmd; forget earlier parses.
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), rootCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
	c := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	c.Flags().AddFlagSet(rootCmd.PersistentFlags())
	c.Flags().AddFlagSet(rootCmd.Flags())
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestUpdateConfigFromFlags_ProfileThenFlags(t *testing.T) {
	c := config.NewDefault()
	c.Profiles = map[string]config.Profile{
		"short": {SegmentSeconds: 15, AutoSave: true},
	}

	cmd := newFlagCommand(t, "--profile", "short", "--album", "Clips", "--dry-run")
	updateConfigFromFlags(cmd, c)

	assert.Equal(t, 15, c.SegmentSeconds)
	assert.True(t, c.AutoSave)
	assert.Equal(t, "Clips", c.Album)
	assert.True(t, c.DryRun)

	cmd = newFlagCommand(t, "--profile", "short", "--segment", "90")
	updateConfigFromFlags(cmd, c)
	assert.Equal(t, 90, c.SegmentSeconds, "explicit --segment wins over the profile")
}

func TestUpdateConfigFromFlags_Unchanged(t *testing.T) {
	c := config.NewDefault()
	c.Notify = false
	c.Concurrent = 3

	updateConfigFromFlags(newFlagCommand(t), c)

	assert.False(t, c.Notify, "notify default must not override config")
	assert.Equal(t, 3, c.Concurrent)
	assert.Equal(t, config.DefaultSegmentSeconds, c.SegmentSeconds)
}

func TestNeedsFFmpeg(t *testing.T) {
	for _, c := range []*cobra.Command{rootCmd, splitCmd, tuiCmd} {
		assert.True(t, needsFFmpeg(c), c.Name())
	}
	for _, c := range []*cobra.Command{listCmd, clearCmd, saveCmd, pickCmd, statsCmd, versionCmd, initCmd, uninstallCmd, doctorCmd} {
		assert.False(t, needsFFmpeg(c), c.Name())
	}
}
