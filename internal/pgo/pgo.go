// Package pgo downloads the profile-guided-optimization profile a checkout
// expects.
//
// The checkout pins its profile by name in chrome/build/<target>.pgo.txt;
// the profile itself lives in a public GCS bucket. The downloader reads the
// pinned name and fetches the object into chrome/build/pgo_profiles/, where
// the build expects it.
package pgo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"chromepack/internal/config"
)

// ProfileDir is the checkout-relative directory profiles are placed in.
const ProfileDir = "chrome/build/pgo_profiles"

// ObjectOpener opens a bucket object for reading.
//
// The production implementation is [GCSOpener]; tests substitute an
// in-memory opener.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// GCSOpener opens objects in Google Cloud Storage.
//
// The profile bucket is public, so the client authenticates anonymously.
type GCSOpener struct {
	client *storage.Client
}

// NewGCSOpener creates a [GCSOpener] with an unauthenticated client.
func NewGCSOpener(ctx context.Context) (*GCSOpener, error) {
	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSOpener{client: client}, nil
}

// Open returns a reader for gs://<bucket>/<object>.
func (o *GCSOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	rc, err := o.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	return rc, nil
}

// Close releases the underlying client.
func (o *GCSOpener) Close() error {
	return o.client.Close()
}

// Downloader fetches the pinned PGO profile for a checkout.
//
// Create with [NewDownloader]. The GCS client is created lazily on first
// download so constructing the downloader never needs a network.
type Downloader struct {
	cfg    config.PGOConfig
	srcDir string
	opener ObjectOpener
}

// NewDownloader creates a [Downloader] for the checkout at srcDir.
func NewDownloader(cfg config.PGOConfig, srcDir string) *Downloader {
	return &Downloader{cfg: cfg, srcDir: srcDir}
}

// SetOpener replaces the object opener; tests use an in-memory one.
func (d *Downloader) SetOpener(o ObjectOpener) {
	d.opener = o
}

// ProfileName reads the pinned profile name from the checkout's
// chrome/build/<target>.pgo.txt state file.
func (d *Downloader) ProfileName() (string, error) {
	stateFile := filepath.Join(d.srcDir, "chrome", "build", d.cfg.Target+".pgo.txt")
	data, err := os.ReadFile(stateFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PGO state file: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("PGO state file %s is empty", stateFile)
	}
	return name, nil
}

// Download fetches the pinned profile into the checkout and returns the
// destination path.
//
// A profile already present on disk is not re-downloaded: profiles are
// content-named, so an existing file with the pinned name is complete. The
// object is written to a temp file and renamed into place so an
// interrupted download never leaves a partial profile behind.
func (d *Downloader) Download(ctx context.Context) (string, error) {
	name, err := d.ProfileName()
	if err != nil {
		return "", err
	}

	destDir := filepath.Join(d.srcDir, filepath.FromSlash(ProfileDir))
	dest := filepath.Join(destDir, name)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}

	opener := d.opener
	if opener == nil {
		gcs, err := NewGCSOpener(ctx)
		if err != nil {
			return "", err
		}
		defer gcs.Close()
		opener = gcs
	}

	rc, err := opener.Open(ctx, d.cfg.Bucket, path.Join(d.cfg.ObjectPrefix, name))
	if err != nil {
		return "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(destDir, name+".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to download profile %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write profile %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move profile into place: %w", err)
	}
	return dest, nil
}
