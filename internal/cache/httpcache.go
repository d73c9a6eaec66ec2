package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPEntry captures enough metadata to support conditional revalidation
// of a converter response.
type HTTPEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores responses on disk as <key>.meta.json and <key>.body where
// key is sha256(url). Eviction is external, see EnforceHTTPCacheLimits.
type HTTPCache struct {
	Dir string
	// StrictPerms enforces 0700 on the directory and 0600 on files.
	StrictPerms bool
}

func (c *HTTPCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return ensureDir(c.Dir, c.StrictPerms)
}

func (c *HTTPCache) key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *HTTPCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *HTTPCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns entry metadata if present.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.metaPath(c.key(url)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var e HTTPEntry
	if err := json.NewDecoder(f).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadBody returns the cached body if present and marks it as recently used.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	p := c.bodyPath(c.key(url))
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, nil
}

// Save stores a new cache entry to disk.
func (c *HTTPCache) Save(_ context.Context, url string, contentType string, etag string, lastModified string, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := c.key(url)
	mode := fileMode(c.StrictPerms)
	if err := os.WriteFile(c.bodyPath(key), body, mode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := HTTPEntry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	}
	data, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(key))
}

func ensureDir(dir string, strict bool) error {
	perm := os.FileMode(0o755)
	if strict {
		perm = 0o700
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	// tighten a pre-existing directory
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}
