package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider serves blobs from a directory on the local filesystem.
// It is the only provider exercised by tests and is also used for
// on-premises tenants that stage files on a mounted volume.
type LocalProvider struct {
	Root string
}

// NewLocalProvider returns a Fetcher rooted at dir.
func NewLocalProvider(dir string) *LocalProvider {
	return &LocalProvider{Root: dir}
}

func (p *LocalProvider) List(_ context.Context, prefix string) ([]Descriptor, error) {
	root := filepath.Join(p.Root, prefix)
	var out []Descriptor
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.Root, path)
		if err != nil {
			return err
		}
		out = append(out, Descriptor{Key: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, &Error{Kind: KindTransient, Key: prefix, Err: err}
	}
	return out, nil
}

func (p *LocalProvider) Open(_ context.Context, d Descriptor) (io.ReadCloser, error) {
	path := filepath.Join(p.Root, filepath.FromSlash(d.Key))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Kind: KindNotFound, Key: d.Key, Err: err}
		}
		return nil, &Error{Kind: KindTransient, Key: d.Key, Err: err}
	}
	return f, nil
}

func (p *LocalProvider) Head(_ context.Context, d Descriptor) (Info, error) {
	path := filepath.Join(p.Root, filepath.FromSlash(d.Key))
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, &Error{Kind: KindNotFound, Key: d.Key, Err: err}
		}
		return Info{}, &Error{Kind: KindTransient, Key: d.Key, Err: err}
	}
	return Info{Size: fi.Size(), LastModified: fi.ModTime(), ContentType: contentTypeFromExt(d.Key)}, nil
}

func contentTypeFromExt(key string) string {
	switch {
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".csv"):
		return "text/csv"
	case strings.HasSuffix(key, ".parquet"):
		return "application/octet-stream"
	case strings.HasSuffix(key, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

var _ Fetcher = (*LocalProvider)(nil)
