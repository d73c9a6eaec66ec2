package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeHTTPCacheByAge removes HTTP cache entries older than maxAge.
// It inspects <key>.meta.json for SavedAt and deletes both meta and
// the corresponding <key>.body when expired.
func PurgeHTTPCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var e HTTPEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		return nil
	})
	return removed, err
}

// PurgeDOMCacheByAge removes DOM cache entries whose modification time is
// older than maxAge.
func PurgeDOMCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".meta.json") || !strings.HasSuffix(name, ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime().UTC()) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		return nil
	})
	return removed, err
}

// EnforceHTTPCacheLimits evicts least recently used HTTP entries until the
// cache holds at most maxCount entries and maxBytes of bodies. A zero limit
// is not enforced. Recency is the body modification time, refreshed on
// every LoadBody.
func EnforceHTTPCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0, nil
	}
	type entry struct {
		base  string
		size  int64
		mtime time.Time
	}
	var entries []entry
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".body") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, entry{base: strings.TrimSuffix(path, ".body"), size: info.Size(), mtime: info.ModTime()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mtime.Before(entries[j].mtime) })
	removed := 0
	count := len(entries)
	for _, e := range entries {
		overCount := maxCount > 0 && count > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		_ = os.Remove(e.base + ".body")
		_ = os.Remove(e.base + ".meta.json")
		count--
		total -= e.size
		removed++
	}
	return removed, nil
}
