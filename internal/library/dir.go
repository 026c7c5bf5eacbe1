package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a media library kept on the local filesystem as <root>/<album>/.
type Dir struct {
	root  string
	album string
}

func NewDir(root, album string) *Dir {
	return &Dir{root: root, album: album}
}

func (d *Dir) Album() string { return d.album }

// AlbumDir is where assets are written.
func (d *Dir) AlbumDir() string { return filepath.Join(d.root, d.album) }

func (d *Dir) Root() string { return d.AlbumDir() }

func (d *Dir) Save(ctx context.Context, path string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	dir := d.AlbumDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Asset{}, fmt.Errorf("アルバムの作成に失敗: %w", err)
	}

	dst, err := copyNoOverwrite(path, dir, filepath.Base(path))
	if err != nil {
		return Asset{}, err
	}
	return Asset{Album: d.album, Name: filepath.Base(dst), Location: dst}, nil
}

// copyNoOverwrite copies src into dir under name, picking name_1, name_2...
// when the name is taken. The write goes through a dot-prefixed temp file in
// the same directory and a link, so a crash never leaves a partial asset
// under the final name.
func copyNoOverwrite(src, dir, name string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 10000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dst := filepath.Join(dir, candidate)
		// Link fails with EEXIST instead of replacing, unlike Rename.
		err := os.Link(tmpName, dst)
		if err == nil {
			return dst, nil
		}
		if os.IsExist(err) {
			continue
		}
		// Some filesystems (exFAT, SMB) have no hard links.
		if _, statErr := os.Lstat(dst); os.IsNotExist(statErr) {
			if err := os.Rename(tmpName, dst); err != nil {
				return "", err
			}
			return dst, nil
		}
		return "", err
	}
	return "", fmt.Errorf("空きファイル名が見つかりません: %s", name)
}
