package picker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// VideoInfo describes a video chosen from the library.
type VideoInfo struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration,omitempty"`
}

// SizeMB renders Size the way the picker list shows it.
func (v VideoInfo) SizeMB() string {
	return fmt.Sprintf("%.2f MB", float64(v.Size)/1024/1024)
}

// Stat builds a VideoInfo for a path given on the command line.
func Stat(path string) (VideoInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return VideoInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return VideoInfo{}, err
	}
	if info.IsDir() {
		return VideoInfo{}, fmt.Errorf("%s はディレクトリです", path)
	}
	name := info.Name()
	if name == "" {
		name = "unknown"
	}
	return VideoInfo{Path: abs, Name: name, Size: info.Size()}, nil
}

// Filter selects files by name. IgnoreKeywords win over Keywords.
type Filter struct {
	Keywords       []string
	IgnoreKeywords []string
}

func (f Filter) Match(name string) bool {
	lowerName := strings.ToLower(name)
	for _, k := range f.IgnoreKeywords {
		if strings.Contains(lowerName, strings.ToLower(k)) {
			return false
		}
	}
	if len(f.Keywords) == 0 {
		return true
	}
	for _, k := range f.Keywords {
		if strings.Contains(lowerName, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// IsVideo reports whether name carries one of exts (without dots, any case).
func IsVideo(name string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, e := range exts {
		if ext == strings.ToLower(strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

// Pattern builds a doublestar pattern matching exts in either case.
func Pattern(exts []string) string {
	seen := make(map[string]bool)
	var alts []string
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		for _, v := range []string{strings.ToLower(e), strings.ToUpper(e)} {
			if v != "" && !seen[v] {
				seen[v] = true
				alts = append(alts, v)
			}
		}
	}
	return "**/*.{" + strings.Join(alts, ",") + "}"
}

// Scan walks every root (a directory or a single file) and returns the
// matching videos sorted by path. Hidden files are skipped.
func Scan(roots []string, exts []string, f Filter) ([]VideoInfo, error) {
	pattern := Pattern(exts)
	seen := make(map[string]bool)
	var out []VideoInfo

	add := func(p string) {
		if seen[p] {
			return
		}
		base := filepath.Base(p)
		if strings.HasPrefix(base, ".") || !IsVideo(base, exts) || !f.Match(base) {
			return
		}
		v, err := Stat(p)
		if err != nil {
			return
		}
		seen[p] = true
		out = append(out, v)
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("ライブラリ '%s' を開けません: %w", root, err)
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(abs), pattern)
		if err != nil {
			return nil, fmt.Errorf("パターン '%s' の検索に失敗しました: %w", pattern, err)
		}
		for _, m := range matches {
			add(filepath.Join(abs, filepath.FromSlash(m)))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
