package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rewired-gh/readiness/internal/config"
)

// Source is a location the dataset CSV can be read from.
// Key identifies the source for caching; two sources with the same key are
// assumed to return the same bytes.
type Source interface {
	Key() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// NewSource picks a Source implementation from the configured location:
// http(s):// URLs, s3://bucket/key URIs, or a local file path.
func NewSource(ctx context.Context, cfg config.DatasetConfig) (Source, error) {
	loc := strings.TrimSpace(cfg.Location)
	switch {
	case loc == "":
		return nil, fmt.Errorf("dataset location is empty")
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return NewHTTPSource(loc, cfg.Timeout, HTTPConfig{
			MaxRetries:     cfg.MaxRetries,
			RetryDelayBase: cfg.RetryDelayBase,
		}), nil
	case strings.HasPrefix(loc, "s3://"):
		bucket, key, err := ParseS3URI(loc)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, S3Config{
			Region:    cfg.S3Region,
			Bucket:    bucket,
			Key:       key,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return NewFileSource(loc), nil
	}
}

// FileSource reads the dataset from a local file
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource. Relative paths resolve against the
// working directory at open time.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Key returns the cleaned file path
func (s *FileSource) Key() string {
	return "file:" + filepath.Clean(s.path)
}

// Open opens the file for reading
func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	return f, nil
}
