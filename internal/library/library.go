package library

import (
	"context"
	"fmt"

	"github.com/mt4110/split-video/internal/config"
)

// Asset is a segment stored in the media library.
type Asset struct {
	Album    string `json:"album"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Library stores segment files into an album.
type Library interface {
	// Save creates an asset from the file at path and adds it to the album.
	// The source file is left in place.
	Save(ctx context.Context, path string) (Asset, error)
	Album() string
	// Root is the local directory assets land in, empty for remote backends.
	Root() string
}

// New picks the backend configured in cfg.
func New(cfg *config.Config) (Library, error) {
	switch cfg.Backend {
	case "", config.BackendLocal:
		return NewDir(cfg.AlbumRoot, cfg.Album), nil
	case config.BackendS3:
		return NewS3(S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		}, cfg.Album)
	default:
		return nil, fmt.Errorf("unknown library backend %q", cfg.Backend)
	}
}

// SaveResult reports the outcome for one file of SaveAll.
type SaveResult struct {
	Path  string
	Asset Asset
	Err   error
}

// SaveAll saves every path, continuing past failures.
func SaveAll(ctx context.Context, lib Library, paths []string) []SaveResult {
	results := make([]SaveResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			results = append(results, SaveResult{Path: p, Err: err})
			continue
		}
		a, err := lib.Save(ctx, p)
		results = append(results, SaveResult{Path: p, Asset: a, Err: err})
	}
	return results
}
