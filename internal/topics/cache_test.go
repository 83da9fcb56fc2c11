package topics

import (
	"context"
	"testing"

	logx "tgsched/pkg/logx"
)

func TestCacheFetchesOnce(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{topics: makeTopics(3)}
	c := NewCache(NewPaginator(fl, 10, logx.Nop()))

	for i := 0; i < 3; i++ {
		ts, err := c.Get(context.Background(), 42)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(ts) != 3 {
			t.Fatalf("got %d topics", len(ts))
		}
	}
	if fl.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", fl.calls)
	}
}

func TestCacheFailureCachesNothing(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{topics: makeTopics(3), failAt: 1}
	c := NewCache(NewPaginator(fl, 10, logx.Nop()))

	if _, err := c.Get(context.Background(), 42); err == nil {
		t.Fatal("expected error")
	}
	// The failed expansion left no entry; the retry hits upstream again.
	ts, err := c.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("retry Get: %v", err)
	}
	if len(ts) != 3 {
		t.Fatalf("got %d topics", len(ts))
	}
	if fl.calls != 2 {
		t.Fatalf("upstream calls = %d, want 2", fl.calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{topics: makeTopics(2)}
	c := NewCache(NewPaginator(fl, 10, logx.Nop()))

	if _, err := c.Get(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(42)
	if _, err := c.Get(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	if fl.calls != 2 {
		t.Fatalf("upstream calls = %d, want 2", fl.calls)
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()
	fl := &fakeLister{topics: makeTopics(2)}
	c := NewCache(NewPaginator(fl, 10, logx.Nop()))

	if _, err := c.Get(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(context.Background(), 8); err != nil {
		t.Fatal(err)
	}
	c.Clear()
	if _, err := c.Get(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if fl.calls != 3 {
		t.Fatalf("upstream calls = %d, want 3", fl.calls)
	}
}
