// Package dataset keeps a local snapshot of the Open Food Facts parquet dump used
// as the offline barcode catalog.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/noot-app/foodlens/internal/config"
)

// Metadata describes the snapshot on disk
type Metadata struct {
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
	ETag         string    `json:"etag,omitempty"`
	Size         int64     `json:"size"`
}

// Options controls how the snapshot is synced
type Options struct {
	URL          string
	ParquetPath  string
	MetadataPath string
	LockPath     string
	// SkipRemoteCheck trusts an existing file without a HEAD request
	SkipRemoteCheck bool
	// IgnoreLock removes a stale lock left by a crashed process
	IgnoreLock  bool
	WaitTimeout time.Duration
}

// OptionsFromConfig builds Options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:             cfg.ParquetURL,
		ParquetPath:     cfg.ParquetPath,
		MetadataPath:    cfg.MetadataPath,
		LockPath:        cfg.LockFile,
		SkipRemoteCheck: cfg.DisableRemoteCheck,
		IgnoreLock:      cfg.IgnoreLock,
	}
}

// Manager downloads and refreshes the catalog snapshot
type Manager struct {
	opts       Options
	httpClient *http.Client
	log        *slog.Logger
}

// NewManager creates a snapshot manager
func NewManager(opts Options, logger *slog.Logger) *Manager {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 10 * time.Minute
	}
	return &Manager{
		opts:       opts,
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		log:        logger,
	}
}

// Path returns where the snapshot lives
func (m *Manager) Path() string {
	return m.opts.ParquetPath
}

// Ensure makes sure a current snapshot exists, downloading it when missing or stale.
// A failed freshness check keeps the existing file.
func (m *Manager) Ensure(ctx context.Context) error {
	start := time.Now()

	if _, err := os.Stat(m.opts.ParquetPath); err == nil {
		if m.opts.SkipRemoteCheck {
			m.log.Info("using local catalog snapshot", "path", m.opts.ParquetPath)
			return nil
		}
		fresh, err := m.isFresh(ctx)
		if err != nil {
			m.log.Warn("catalog freshness check failed, keeping local snapshot", "error", err)
			return nil
		}
		if fresh {
			m.log.Info("catalog snapshot is current", "duration", time.Since(start))
			return nil
		}
	}

	if err := m.download(ctx); err != nil {
		return fmt.Errorf("failed to sync catalog: %w", err)
	}
	m.log.Info("catalog snapshot synced", "duration", time.Since(start))
	return nil
}

// Run re-checks the snapshot every interval until ctx is cancelled, calling
// onUpdate after each successful sync
func (m *Manager) Run(ctx context.Context, interval time.Duration, onUpdate func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Ensure(ctx); err != nil {
				m.log.Error("scheduled catalog sync failed", "error", err)
				continue
			}
			if onUpdate != nil {
				onUpdate()
			}
		}
	}
}

// LoadMetadata reads the metadata written by the last download
func (m *Manager) LoadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(m.opts.MetadataPath)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("corrupt catalog metadata: %w", err)
	}
	return &meta, nil
}

func (m *Manager) isFresh(ctx context.Context) (bool, error) {
	local, err := m.LoadMetadata()
	if err != nil {
		m.log.Debug("no catalog metadata", "error", err)
		return false, nil
	}
	remote, err := m.head(ctx)
	if err != nil {
		return false, err
	}
	if remote.ETag != "" && local.ETag != "" {
		return remote.ETag == local.ETag, nil
	}
	return remote.Size == local.Size, nil
}

func (m *Manager) head(ctx context.Context) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HEAD %s returned %d", m.opts.URL, resp.StatusCode)
	}
	return &Metadata{ETag: resp.Header.Get("ETag"), Size: resp.ContentLength}, nil
}

func (m *Manager) download(ctx context.Context) error {
	if m.opts.IgnoreLock {
		if err := os.Remove(m.opts.LockPath); err == nil {
			m.log.Warn("removed existing catalog lock", "lock", m.opts.LockPath)
		}
	}

	lock, err := acquireLock(m.opts.LockPath)
	if err != nil {
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		m.log.Info("another process is syncing the catalog, waiting", "lock", m.opts.LockPath)
		return m.waitForFile(ctx)
	}
	defer releaseLock(lock, m.opts.LockPath)

	dir := filepath.Dir(m.opts.ParquetPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// same directory so the final rename is atomic
	tmp, err := os.CreateTemp(dir, ".catalog-*.parquet.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	meta, err := m.fetchInto(ctx, tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := commit(tmp); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, m.opts.ParquetPath); err != nil {
		return fmt.Errorf("failed to install snapshot: %w", err)
	}
	if err := m.saveMetadata(meta); err != nil {
		m.log.Warn("failed to save catalog metadata", "error", err)
	}

	m.log.Info("catalog downloaded", "bytes", meta.Size, "sha256", meta.SHA256[:16])
	return nil
}

// commit flushes and closes a finished download
func commit(f *os.File) error {
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return nil
}

// fetchInto streams the dump into f while hashing it
func (m *Manager) fetchInto(ctx context.Context, f *os.File) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	m.log.Info("downloading catalog", "url", m.opts.URL)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog download returned %d", resp.StatusCode)
	}

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(f, hash), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog download interrupted: %w", err)
	}

	return &Metadata{
		SHA256:       hex.EncodeToString(hash.Sum(nil)),
		DownloadedAt: time.Now().UTC(),
		ETag:         resp.Header.Get("ETag"),
		Size:         written,
	}, nil
}

func (m *Manager) waitForFile(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	timeout := time.After(m.opts.WaitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return errors.New("timed out waiting for another catalog sync")
		case <-ticker.C:
			if _, err := os.Stat(m.opts.LockPath); errors.Is(err, os.ErrNotExist) {
				if _, err := os.Stat(m.opts.ParquetPath); err == nil {
					return nil
				}
				return errors.New("other catalog sync finished without a snapshot")
			}
		}
	}
}

func (m *Manager) saveMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.opts.MetadataPath, data, 0644)
}

func acquireLock(lockPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
}

func releaseLock(f *os.File, lockPath string) {
	f.Close()
	os.Remove(lockPath)
}
