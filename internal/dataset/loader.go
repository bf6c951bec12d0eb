package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "acaipulse/internal/errors"
	"acaipulse/pkg/contracts/domain"
)

// Dataset is an immutable, normalised sales table.
type Dataset struct {
	sales []domain.Sale
	info  domain.DatasetInfo
}

// NewDataset wraps already normalised rows.
func NewDataset(sales []domain.Sale, info domain.DatasetInfo) *Dataset {
	info.Rows = len(sales)
	if len(sales) > 0 && info.DateFrom.IsZero() {
		info.DateFrom, info.DateTo = sales[0].Date, sales[0].Date
		for _, s := range sales[1:] {
			if s.Date.Before(info.DateFrom) {
				info.DateFrom = s.Date
			}
			if s.Date.After(info.DateTo) {
				info.DateTo = s.Date
			}
		}
	}
	if info.Coerced == nil {
		info.Coerced = map[string]int{}
	}
	return &Dataset{sales: sales, info: info}
}

// Sales returns the rows. Callers must treat the slice as read-only.
func (d *Dataset) Sales() []domain.Sale {
	return d.sales
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.sales)
}

// Info returns dataset metadata.
func (d *Dataset) Info() domain.DatasetInfo {
	info := d.info
	info.Coerced = make(map[string]int, len(d.info.Coerced))
	for k, v := range d.info.Coerced {
		info.Coerced[k] = v
	}
	return info
}

// FileIdentity identifies one version of a file on disk.
type FileIdentity struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Recorder receives load and cache events. It is satisfied by the
// application's OpenTelemetry metrics.
type Recorder interface {
	RecordDatasetLoad(ctx context.Context, format string, rows int, duration time.Duration, err error)
	RecordCacheLookup(ctx context.Context, hit bool)
}

type cacheEntry struct {
	dataset  *Dataset
	identity FileIdentity
	loadedAt time.Time
	hits     int64
}

// Loader reads and memoises datasets keyed by absolute path.
type Loader struct {
	opts     Options
	logger   *slog.Logger
	recorder Recorder

	mu        sync.RWMutex
	entries   map[string]*cacheEntry
	hitCount  int64
	missCount int64
	loads     int64

	group singleflight.Group
}

// NewLoader creates a loader. logger and recorder may be nil.
func NewLoader(opts Options, logger *slog.Logger, recorder Recorder) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Locale.DecimalSep == "" {
		opts.Locale = DefaultOptions().Locale
	}
	return &Loader{
		opts:     opts,
		logger:   logger.With(slog.String("component", "dataset_loader")),
		recorder: recorder,
		entries:  make(map[string]*cacheEntry),
	}
}

// Load returns the dataset for path, reading the file only on first use.
func (l *Loader) Load(ctx context.Context, path string) (*Dataset, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to resolve dataset path", err).WithContext("path", path)
	}

	l.mu.Lock()
	if entry, ok := l.entries[key]; ok {
		entry.hits++
		l.hitCount++
		l.mu.Unlock()
		l.recordLookup(ctx, true)
		return entry.dataset, nil
	}
	l.missCount++
	l.mu.Unlock()
	l.recordLookup(ctx, false)

	entry, err := l.fill(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.dataset, nil
}

// Reload re-reads path when its size or modification time changed since
// it was cached, or unconditionally when force is set. It reports whether
// a new dataset was read. On failure the previous entry stays cached.
func (l *Loader) Reload(ctx context.Context, path string, force bool) (*Dataset, bool, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, false, apperrors.NewStorageError("failed to resolve dataset path", err).WithContext("path", path)
	}

	l.mu.RLock()
	current, cached := l.entries[key]
	l.mu.RUnlock()

	if cached && !force {
		identity, err := statIdentity(key)
		if err != nil {
			return current.dataset, false, err
		}
		if identity.Size == current.identity.Size && identity.ModTime.Equal(current.identity.ModTime) {
			l.logger.DebugContext(ctx, "dataset unchanged, reload skipped", slog.String("path", key))
			return current.dataset, false, nil
		}
	}

	entry, err := l.fill(ctx, key)
	if err != nil {
		if cached {
			return current.dataset, false, err
		}
		return nil, false, err
	}
	return entry.dataset, true, nil
}

// Identity returns the file identity recorded for the cached path.
func (l *Loader) Identity(path string) (FileIdentity, bool) {
	key, err := filepath.Abs(path)
	if err != nil {
		return FileIdentity{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[key]
	if !ok {
		return FileIdentity{}, false
	}
	return entry.identity, true
}

// Peek returns the cached dataset for path without reading the file.
func (l *Loader) Peek(path string) (*Dataset, bool) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	return entry.dataset, true
}

// GetStats returns cache statistics.
func (l *Loader) GetStats() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := l.hitCount + l.missCount
	hitRatio := float64(0)
	if total > 0 {
		hitRatio = float64(l.hitCount) / float64(total)
	}
	return map[string]interface{}{
		"entries":    len(l.entries),
		"hit_count":  l.hitCount,
		"miss_count": l.missCount,
		"hit_ratio":  hitRatio,
		"loads":      l.loads,
	}
}

// fill reads key and stores the result. Concurrent callers for the same
// key share a single read.
func (l *Loader) fill(ctx context.Context, key string) (*cacheEntry, error) {
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		entry, err := l.read(ctx, key)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.entries[key] = entry
		l.loads++
		l.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cacheEntry), nil
}

func (l *Loader) read(ctx context.Context, path string) (*cacheEntry, error) {
	start := time.Now()
	format := DetectFormat(path)

	identity, err := statIdentity(path)
	if err != nil {
		l.recordLoad(ctx, format, 0, time.Since(start), err)
		return nil, err
	}

	table, err := readSource(ctx, path, l.opts)
	if err != nil {
		l.recordLoad(ctx, format, 0, time.Since(start), err)
		l.logger.ErrorContext(ctx, "dataset read failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	sales, coerced, err := normalize(ctx, table, l.opts)
	if err != nil {
		l.recordLoad(ctx, format, 0, time.Since(start), err)
		l.logger.ErrorContext(ctx, "dataset normalisation failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	now := time.Now()
	ds := NewDataset(sales, domain.DatasetInfo{
		Path:      path,
		Format:    table.format,
		SizeBytes: identity.Size,
		ModTime:   identity.ModTime,
		LoadedAt:  now,
		Coerced:   coerced,
	})

	duration := time.Since(start)
	l.recordLoad(ctx, table.format, ds.Len(), duration, nil)

	attrs := []any{
		slog.String("path", path),
		slog.String("format", table.format),
		slog.Int("rows", ds.Len()),
		slog.Duration("duration", duration),
	}
	if len(coerced) > 0 {
		attrs = append(attrs, slog.Any("coerced", coerced))
		l.logger.WarnContext(ctx, "dataset loaded with coerced values", attrs...)
	} else {
		l.logger.InfoContext(ctx, "dataset loaded", attrs...)
	}

	return &cacheEntry{dataset: ds, identity: identity, loadedAt: now}, nil
}

func statIdentity(path string) (FileIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileIdentity{}, apperrors.NewStorageError("failed to stat dataset", err).WithContext("path", path)
	}
	if info.IsDir() {
		return FileIdentity{}, apperrors.NewStorageError(fmt.Sprintf("%s is a directory", path), nil).WithContext("path", path)
	}
	return FileIdentity{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (l *Loader) recordLoad(ctx context.Context, format string, rows int, d time.Duration, err error) {
	if l.recorder != nil {
		l.recorder.RecordDatasetLoad(ctx, format, rows, d, err)
	}
}

func (l *Loader) recordLookup(ctx context.Context, hit bool) {
	if l.recorder != nil {
		l.recorder.RecordCacheLookup(ctx, hit)
	}
}
