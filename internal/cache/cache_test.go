package cache

import (
	"testing"
	"time"
)

func TestKey_LengthDelimited(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries must affect the key")
	}
	if Key("a", "b") != Key("a", "b") {
		t.Error("key must be deterministic")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache must miss")
	}

	if err := c.Set("k", []byte("response"), time.Minute); err != nil {
		t.Fatal(err)
	}
	v, found := c.Get("k")
	if !found || string(v) != "response" {
		t.Errorf("Get = (%q, %v)", v, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted entry must miss")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expired entry must miss")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(Key("prompt"), []byte("response"), 0); err != nil {
		t.Fatal(err)
	}
	v, found := c.Get(Key("prompt"))
	if !found || string(v) != "response" {
		t.Errorf("Get = (%q, %v)", v, found)
	}

	// A fresh instance over the same dir sees the entry.
	again := NewDiskCache(c.dir, time.Minute)
	if _, found := again.Get(Key("prompt")); !found {
		t.Error("entry must survive across instances")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry must miss")
	}
}

func TestLayeredCache_Promotion(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	// Plant an entry on disk only.
	if err := c.disk.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, found := c.memory.Get("k"); found {
		t.Fatal("entry must not be in memory yet")
	}

	v, found := c.Get("k")
	if !found || string(v) != "v" {
		t.Fatalf("Get = (%q, %v)", v, found)
	}
	if _, found := c.memory.Get("k"); !found {
		t.Error("disk hit must promote to memory")
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)
	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("cleared cache must miss")
	}
}
