package metadata

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newClockedCache(cfg CacheConfig) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(cfg)
	cache.now = clock.Now
	return cache, clock
}

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")

	val, ok := cache.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}
}

func TestCache_GetMissing(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	if _, ok := cache.Get("nonexistent"); ok {
		t.Error("expected key to not exist")
	}
}

func TestCache_Expiration(t *testing.T) {
	cache, clock := newClockedCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")
	if _, ok := cache.Get("key1"); !ok {
		t.Error("expected key1 to exist immediately")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := cache.Get("key1"); ok {
		t.Error("expected key1 to be expired")
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	cache, clock := newClockedCache(CacheConfig{TTL: time.Hour, MaxItems: 100})

	cache.SetWithTTL("key1", "value1", time.Second)
	clock.Advance(2 * time.Second)

	if _, ok := cache.Get("key1"); ok {
		t.Error("expected key1 to be expired with custom TTL")
	}
}

func TestCache_Prune(t *testing.T) {
	cache, clock := newClockedCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("old1", 1)
	cache.Set("old2", 2)
	clock.Advance(30 * time.Second)
	cache.Set("fresh", 3)
	clock.Advance(45 * time.Second)

	if removed := cache.Prune(); removed != 2 {
		t.Errorf("Prune() = %d, want 2", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 item after prune, got %d", cache.Len())
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Error("expected fresh item to survive prune")
	}
}

func TestCache_Delete(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")
	cache.Delete("key1")

	if _, ok := cache.Get("key1"); ok {
		t.Error("expected key1 to be deleted")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")

	if n := cache.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if cache.Len() != 0 {
		t.Errorf("expected cache to be empty, got %d items", cache.Len())
	}
}

func TestCache_Eviction(t *testing.T) {
	cache, clock := newClockedCache(CacheConfig{TTL: time.Minute, MaxItems: 5})

	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Second)
	}

	if cache.Len() > 5 {
		t.Errorf("expected at most 5 items, got %d", cache.Len())
	}
	if _, ok := cache.Get("k9"); !ok {
		t.Error("expected newest item to survive eviction")
	}
	if _, ok := cache.Get("k0"); ok {
		t.Error("expected oldest item to be evicted")
	}
}

func TestCache_OverwriteAtCapacityDoesNotEvict(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 2})

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("a", 3)

	if cache.Len() != 2 {
		t.Errorf("expected 2 items, got %d", cache.Len())
	}
	if v, _ := cache.Get("b"); v != 2 {
		t.Errorf("expected b to survive overwrite of a, got %v", v)
	}
}

func TestCached(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})
	loads := 0
	load := func() ([]int, error) {
		loads++
		return []int{1, 2}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := cached(cache, "nums", load)
		if err != nil {
			t.Fatalf("cached() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	}
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}
}

func TestCached_ErrorsNotStored(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})
	boom := errors.New("boom")

	if _, err := cached(cache, "k", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
	if cache.Len() != 0 {
		t.Errorf("expected error not to be cached, got %d items", cache.Len())
	}
}

func TestCached_TypeMismatchReloads(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})
	cache.Set("k", "string value")

	got, err := cached(cache, "k", func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("cached() error = %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestCached_NilCache(t *testing.T) {
	got, err := cached[int](nil, "k", func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("cached(nil) = %d, %v", got, err)
	}
}
