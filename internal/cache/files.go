package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bgsforge/powerstate/internal/galaxy"
)

// FileStore keeps one JSON file per system. The modification time of a file
// is its fetch time.
type FileStore struct {
	dir string
}

// OpenFileStore creates dir if needed.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) file(systemID int64) string {
	return filepath.Join(f.dir, strconv.FormatInt(systemID, 10)+".json")
}

// Path returns the cache directory.
func (f *FileStore) Path() string { return f.dir }

// Close is a no-op.
func (f *FileStore) Close() error { return nil }

// Get returns the cached payload or ErrNotCached.
func (f *FileStore) Get(systemID int64) (*Entry, error) {
	path := f.file(systemID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var sf galaxy.SystemFactions
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &Entry{SystemID: systemID, Data: &sf, FetchedAt: info.ModTime()}, nil
}

// Put writes the payload through a temporary file and sets its mtime to fetchedAt.
func (f *FileStore) Put(systemID int64, data *galaxy.SystemFactions, fetchedAt time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode system %d: %w", systemID, err)
	}

	path := f.file(systemID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	if err := os.Chtimes(path, fetchedAt, fetchedAt); err != nil {
		return fmt.Errorf("set mtime of %s: %w", path, err)
	}
	return nil
}

func (f *FileStore) entries() ([]fs.DirEntry, error) {
	all, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", f.dir, err)
	}
	var out []fs.DirEntry
	for _, e := range all {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear removes every cache file and leaves other files alone.
func (f *FileStore) Clear() error {
	entries, err := f.entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}

// Stats counts cache files and their total size.
func (f *FileStore) Stats() (*Stats, error) {
	entries, err := f.entries()
	if err != nil {
		return nil, err
	}
	stats := &Stats{Backend: BackendFiles, Path: f.dir}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.Bytes += info.Size()
		mt := info.ModTime()
		if stats.Oldest.IsZero() || mt.Before(stats.Oldest) {
			stats.Oldest = mt
		}
		if mt.After(stats.Newest) {
			stats.Newest = mt
		}
	}
	return stats, nil
}
