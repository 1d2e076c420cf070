package blob

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lakeforge/etl/pkg/log"
)

// Downloader fetches blobs through a Fetcher and stages them on local
// disk using a write-part/fsync/rename sequence so a crash mid-download
// never leaves a partially written file at its final name.
type Downloader struct {
	Fetcher     Fetcher
	MaxAttempts int
}

// NewDownloader wraps fetcher with attempt-bounded exponential backoff.
func NewDownloader(fetcher Fetcher, maxAttempts int) *Downloader {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Downloader{Fetcher: fetcher, MaxAttempts: maxAttempts}
}

// Download fetches d into destDir, transparently gunzipping ".gz"
// sources, and returns the final local path. The download is staged at
// "<name>.part" and atomically renamed once fully written and synced.
func (dl *Downloader) Download(ctx context.Context, tenantSlug string, d Descriptor, destDir string) (string, error) {
	logger := log.WithTenant(tenantSlug)

	finalName := filepath.Base(d.Key)
	if strings.HasSuffix(finalName, ".gz") {
		finalName = strings.TrimSuffix(finalName, ".gz")
	}
	finalPath := filepath.Join(destDir, finalName)
	partPath := finalPath + ".part"

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	bo := backoff.WithMaxRetries(b, uint64(dl.MaxAttempts-1))
	bo = backoff.WithContext(bo, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		return dl.downloadOnce(ctx, d, partPath)
	}

	err := backoff.Retry(operation, bo)
	if err != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("blob: download %s after %d attempts: %w", d.Key, attempt, err)
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		return "", fmt.Errorf("blob: rename staged download for %s: %w", d.Key, err)
	}

	logger.Debug().Str("key", d.Key).Int("attempts", attempt).Msg("blob downloaded")
	return finalPath, nil
}

func (dl *Downloader) downloadOnce(ctx context.Context, d Descriptor, partPath string) error {
	rc, err := dl.Fetcher.Open(ctx, d)
	if err != nil {
		if be, ok := err.(*Error); ok && be.Permanent() {
			return backoff.Permanent(err)
		}
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(partPath), 0o755); err != nil {
		return backoff.Permanent(fmt.Errorf("blob: create staging dir: %w", err))
	}

	f, err := os.Create(partPath)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("blob: create part file: %w", err))
	}
	defer f.Close()

	var src io.Reader = rc
	if strings.HasSuffix(d.Key, ".gz") {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("blob: open gzip stream for %s: %w", d.Key, err))
		}
		defer gz.Close()
		src = gz
	}

	written, err := io.Copy(f, src)
	if err != nil {
		return fmt.Errorf("blob: copy body for %s: %w", d.Key, err)
	}

	if !strings.HasSuffix(d.Key, ".gz") && d.Size > 0 && written != d.Size {
		return backoff.Permanent(&Error{
			Kind: KindSizeMismatch,
			Key:  d.Key,
			Err:  fmt.Errorf("expected %d bytes, got %d", d.Size, written),
		})
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("blob: fsync part file for %s: %w", d.Key, err)
	}
	return nil
}
