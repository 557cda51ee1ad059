package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("embed", "openai", "some long text")
	b := Key("embed", "openai", "some long text")
	if a != b {
		t.Errorf("Expected stable keys, got %q and %q", a, b)
	}

	c := Key("embed", "openai", "different text")
	if a == c {
		t.Error("Expected distinct keys for distinct text")
	}

	d := Key("embed", "ollama", "some long text")
	if a == d {
		t.Error("Expected provider namespace to separate keys")
	}
}

func TestKey_HashesLongInput(t *testing.T) {
	long := strings.Repeat("x", 100_000)
	key := Key("embed", "openai", long)
	if len(key) > 120 {
		t.Errorf("Expected bounded key length, got %d", len(key))
	}
	if !strings.HasPrefix(key, "refute:v1:embed:openai:") {
		t.Errorf("Unexpected key shape: %q", key)
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Errorf("Expected hit with v, got %q found=%v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected expiry after TTL")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected empty cache after clear")
	}
}

func TestDiskCache_SetGetDelete(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("embed", "openai", "text")
	if err := c.Set(key, []byte("vector-bytes"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, found := c.Get(key)
	if !found || string(got) != "vector-bytes" {
		t.Errorf("Expected hit, got %q found=%v", got, found)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("Expected miss after delete")
	}

	// Deleting a missing key is not an error
	if err := c.Delete("never-set"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	first := NewDiskCache(dir, time.Minute)
	if err := first.Set("k", []byte("persisted"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	second := NewDiskCache(dir, time.Minute)
	got, found := second.Get("k")
	if !found || string(got) != "persisted" {
		t.Errorf("Expected entry to survive reopen, got %q found=%v", got, found)
	}
}

func TestDiskCache_TTLExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected expiry after TTL")
	}
}

func TestDiskCache_Clear(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected empty cache after clear")
	}
}
