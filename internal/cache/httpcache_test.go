package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPCache_SaveLoad(t *testing.T) {
	t.Parallel()
	c := &HTTPCache{Dir: t.TempDir()}
	url := "http://jsonpedia.org/annotate/resource/json/en:List_of_rivers"
	if err := c.Save(context.Background(), url, "application/json", `"v1"`, "", []byte(`{"result":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(context.Background(), url)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.ETag != `"v1"` || meta.URL != url || meta.SavedAt.IsZero() {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	body, err := c.LoadBody(context.Background(), url)
	if err != nil || string(body) != `{"result":[]}` {
		t.Fatalf("unexpected body %q (%v)", body, err)
	}
}

func TestHTTPCache_LRUEnforcement_Count(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	urls := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3"}
	for i, u := range urls {
		if err := c.Save(context.Background(), u, "application/json", "", "", []byte(fmt.Sprintf("body-%d", i))); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Touch first to make it MRU; the second becomes the eviction victim.
	if _, err := c.LoadBody(context.Background(), urls[0]); err != nil {
		t.Fatalf("touch body: %v", err)
	}
	removed, err := EnforceHTTPCacheLimits(dir, 0, 2)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := c.LoadBody(context.Background(), urls[1]); err == nil {
		t.Fatalf("expected least recently used entry evicted")
	}
	if _, err := c.LoadBody(context.Background(), urls[0]); err != nil {
		t.Fatalf("expected touched entry kept: %v", err)
	}
}

func TestHTTPCache_LRUEnforcement_Bytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), "https://b.com/1", "application/json", "", "", []byte("1111111111")); err != nil {
		t.Fatalf("save 1: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := c.Save(context.Background(), "https://b.com/2", "application/json", "", "", []byte("22")); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	removed, err := EnforceHTTPCacheLimits(dir, 5, 0)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
}

func TestHTTPCache_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "http")
	c := &HTTPCache{Dir: dir, StrictPerms: true}
	url := "https://example.com/x"
	if err := c.Save(context.Background(), url, "application/json", "etag", "", []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(c.bodyPath(c.key(url)))
	if err != nil {
		t.Fatalf("stat body: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("body mode = %o, want 0600", got)
	}
}

func TestPurgeHTTPCacheByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), "https://old", "application/json", "", "", []byte("old")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.Save(context.Background(), "https://new", "application/json", "", "", []byte("new")); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Backdate the first entry.
	metaPath := c.metaPath(c.key("https://old"))
	b, _ := os.ReadFile(metaPath)
	var e HTTPEntry
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	e.SavedAt = time.Now().Add(-48 * time.Hour)
	b, _ = json.Marshal(e)
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		t.Fatalf("rewrite meta: %v", err)
	}
	removed, err := PurgeHTTPCacheByAge(dir, 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d (%v)", removed, err)
	}
	if _, err := c.LoadBody(context.Background(), "https://old"); err == nil {
		t.Fatalf("expired body should be gone")
	}
	if _, err := c.LoadBody(context.Background(), "https://new"); err != nil {
		t.Fatalf("fresh body should remain: %v", err)
	}
}

func TestPurge_MissingDirIsNoop(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if n, err := PurgeHTTPCacheByAge(missing, time.Hour); err != nil || n != 0 {
		t.Fatalf("expected noop, got %d (%v)", n, err)
	}
	if n, err := PurgeDOMCacheByAge(missing, time.Hour); err != nil || n != 0 {
		t.Fatalf("expected noop, got %d (%v)", n, err)
	}
}
