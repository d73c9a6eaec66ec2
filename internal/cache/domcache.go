package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DOMCache stores converter output keyed by language, resource and
// conversion mode. It serves converters that have no HTTP validators,
// such as the local wrapper process.
type DOMCache struct {
	Dir         string
	StrictPerms bool
}

func (c *DOMCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return ensureDir(c.Dir, c.StrictPerms)
}

// KeyFrom builds a cache key from its parts.
func KeyFrom(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

func (c *DOMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present.
func (c *DOMCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// mtime doubles as last access time for eviction
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to cache.
func (c *DOMCache) Save(_ context.Context, key string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), data, fileMode(c.StrictPerms))
}
