// Package playlist writes an HLS VOD playlist that plays a set of split
// segments back in order.
package playlist

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/grafov/m3u8"
)

const FileName = "segments.m3u8"

// Entry is one segment file and its duration.
type Entry struct {
	Path     string
	Duration time.Duration
}

// Build lays out entries as a closed VOD media playlist. URIs are relative
// to the playlist's directory.
func Build(dir string, entries []Entry) (*m3u8.MediaPlaylist, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("cannot create playlist with zero segments")
	}

	p, err := m3u8.NewMediaPlaylist(uint(len(entries)), uint(len(entries)))
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	p.MediaType = m3u8.VOD

	var longest float64
	for _, e := range entries {
		uri, err := filepath.Rel(dir, e.Path)
		if err != nil {
			uri = filepath.Base(e.Path)
		}
		sec := e.Duration.Seconds()
		if err := p.Append(filepath.ToSlash(uri), sec, ""); err != nil {
			return nil, fmt.Errorf("failed to append %s: %w", e.Path, err)
		}
		longest = math.Max(longest, sec)
	}
	p.TargetDuration = math.Ceil(longest)
	p.Close()
	return p, nil
}

// Evenly assigns segmentTime to every entry and the remainder to the last
// one. It is the fallback when individual segments cannot be probed.
func Evenly(paths []string, segmentTime int, total time.Duration) []Entry {
	seg := time.Duration(segmentTime) * time.Second
	entries := make([]Entry, len(paths))
	for i, p := range paths {
		d := seg
		if i == len(paths)-1 && total > 0 {
			if rest := total - seg*time.Duration(i); rest > 0 && rest < seg {
				d = rest
			}
		}
		entries[i] = Entry{Path: p, Duration: d}
	}
	return entries
}

// Write builds the playlist and stores it as dir/segments.m3u8.
func Write(dir string, entries []Entry) (string, error) {
	p, err := Build(dir, entries)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, FileName)
	if err := os.WriteFile(out, p.Encode().Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write playlist: %w", err)
	}
	return out, nil
}
