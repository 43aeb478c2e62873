package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTemp(t *testing.T, ttl time.Duration) *SQLiteCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "f1data.db"), ttl)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutThenGet(t *testing.T) {
	c := openTemp(t, time.Hour)

	if _, ok, err := c.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v err %v", ok, err)
	}
	if err := c.Put("k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	body, ok, err := c.Get("k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = ok %v err %v", ok, err)
	}
	if string(body) != `{"a":1}` {
		t.Errorf("body = %s", body)
	}
}

func TestPutReplaces(t *testing.T) {
	c := openTemp(t, 0)
	_ = c.Put("k", []byte("old"))
	_ = c.Put("k", []byte("new"))

	body, _, _ := c.Get("k")
	if string(body) != "new" {
		t.Errorf("body = %s, want new", body)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := openTemp(t, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Put("k", []byte("v"))
	now = now.Add(2 * time.Minute)

	if _, ok, _ := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestPurge(t *testing.T) {
	c := openTemp(t, 0)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Put("old", []byte("1"))
	now = now.Add(48 * time.Hour)
	_ = c.Put("fresh", []byte("2"))

	n, err := c.Purge(24 * time.Hour)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if _, ok, _ := c.Get("fresh"); !ok {
		t.Error("fresh entry was purged")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f1data.db")
	c, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Put("k", []byte("persisted"))
	c.Close()

	c2, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	body, ok, _ := c2.Get("k")
	if !ok || string(body) != "persisted" {
		t.Errorf("after reopen: ok %v body %s", ok, body)
	}
}

func TestOpenReportsUnusableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(filepath.Join(blocker, "sub", "f1data.db"), time.Hour)
	if err == nil || !strings.HasPrefix(err.Error(), "cache dir: ") {
		t.Fatalf("err = %v, want cache dir error", err)
	}
}
