package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("/students", "ram", 2, 10)
	b := Key("/students", "ram", 2, 10)
	if a != b {
		t.Fatalf("same inputs produced different keys: %q vs %q", a, b)
	}
	want := "/students?search=ram&page=2&page_size=10"
	if a != want {
		t.Fatalf("Key() = %q, want %q", a, want)
	}
}

func TestKeyEscapesSearchText(t *testing.T) {
	got := Key("/students", "ram thapa&x=1", 1, 10)
	want := "/students?search=ram+thapa%26x%3D1&page=1&page_size=10"
	if got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}

func TestKeyDistinguishesRecordTypes(t *testing.T) {
	if Key("/students", "", 1, 10) == Key("/payments", "", 1, 10) {
		t.Fatal("keys for different paths must differ")
	}
}

func TestGetCachesByKey(t *testing.T) {
	c := NewCache()
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return "page-1", nil
	}

	key := Key("/students", "", 1, 10)
	first := c.Get(context.Background(), key, fetch)
	second := c.Get(context.Background(), key, fetch)

	if calls != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls)
	}
	if first.State != Ready || second.State != Ready {
		t.Fatalf("states = %v, %v, want Ready", first.State, second.State)
	}
	if second.Data != "page-1" {
		t.Fatalf("cached data = %v, want page-1", second.Data)
	}
}

func TestGetDifferentKeysFetchSeparately(t *testing.T) {
	c := NewCache()
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	c.Get(context.Background(), Key("/students", "", 1, 10), fetch)
	c.Get(context.Background(), Key("/students", "", 2, 10), fetch)
	c.Get(context.Background(), Key("/students", "ram", 1, 10), fetch)

	if calls != 3 {
		t.Fatalf("fetch ran %d times, want 3", calls)
	}
}

func TestConcurrentSameKeyGetsShareOneFetch(t *testing.T) {
	c := NewCache()
	var mu sync.Mutex
	calls := 0
	entered := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return "data", nil
	}

	key := Key("/payments", "", 1, 10)
	var wg sync.WaitGroup
	results := make([]Entry, 5)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = c.Get(context.Background(), key, fetch)
	}()
	<-entered

	for i := 1; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Get(context.Background(), key, fetch)
		}()
	}
	// Give the joiners time to reach the in-flight call before it
	// completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls)
	}
	for i, e := range results {
		if e.State != Ready || e.Data != "data" {
			t.Fatalf("caller %d got %+v, want Ready data", i, e)
		}
	}
}

func TestPeekReportsLoadingDuringFetch(t *testing.T) {
	c := NewCache()
	entered := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		close(entered)
		<-release
		return "data", nil
	}

	key := Key("/students", "", 1, 10)
	done := make(chan struct{})
	go func() {
		c.Get(context.Background(), key, fetch)
		close(done)
	}()
	<-entered

	e, ok := c.Peek(key)
	if !ok || e.State != Loading {
		t.Fatalf("Peek mid-fetch = %+v (ok=%v), want Loading", e, ok)
	}

	close(release)
	<-done
	if e, _ := c.Peek(key); e.State != Ready {
		t.Fatalf("Peek after fetch = %+v, want Ready", e)
	}
}

func TestFailedFetchIsCachedUntilInvalidated(t *testing.T) {
	c := NewCache()
	calls := 0
	boom := errors.New("backend down")
	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	key := Key("/students", "", 1, 10)
	if e := c.Get(context.Background(), key, fetch); e.State != Failed || !errors.Is(e.Err, boom) {
		t.Fatalf("first Get = %+v, want Failed(backend down)", e)
	}

	// No automatic retry: the failure is served from cache.
	if e := c.Get(context.Background(), key, fetch); e.State != Failed {
		t.Fatalf("second Get = %+v, want cached Failed", e)
	}
	if calls != 1 {
		t.Fatalf("fetch ran %d times before invalidation, want 1", calls)
	}

	c.Invalidate(key)
	if e := c.Get(context.Background(), key, fetch); e.State != Ready || e.Data != "recovered" {
		t.Fatalf("Get after invalidation = %+v, want Ready recovered", e)
	}
}

func TestInvalidatePrefixDropsOnlyThatRecordType(t *testing.T) {
	c := NewCache()
	calls := map[string]int{}
	fetchFor := func(name string) FetchFunc {
		return func(ctx context.Context) (any, error) {
			calls[name]++
			return name, nil
		}
	}

	s1 := Key("/students", "", 1, 10)
	s2 := Key("/students", "ram", 1, 10)
	p1 := Key("/payments", "", 1, 10)
	c.Get(context.Background(), s1, fetchFor("s1"))
	c.Get(context.Background(), s2, fetchFor("s2"))
	c.Get(context.Background(), p1, fetchFor("p1"))

	c.InvalidatePrefix("/students")

	c.Get(context.Background(), s1, fetchFor("s1"))
	c.Get(context.Background(), s2, fetchFor("s2"))
	c.Get(context.Background(), p1, fetchFor("p1"))

	if calls["s1"] != 2 || calls["s2"] != 2 {
		t.Fatalf("student fetches = %d/%d, want 2/2", calls["s1"], calls["s2"])
	}
	if calls["p1"] != 1 {
		t.Fatalf("payment fetch = %d, want 1 (untouched by /students invalidation)", calls["p1"])
	}
}

func TestInvalidationDuringFetchDiscardsLateResult(t *testing.T) {
	c := NewCache()
	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			close(entered)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}

	key := Key("/students", "", 1, 10)
	got := make(chan Entry, 1)
	go func() {
		got <- c.Get(context.Background(), key, fetch)
	}()
	<-entered

	// The key is invalidated while its fetch is in flight.
	c.Invalidate(key)
	close(release)

	// The late result still reaches its own caller...
	if e := <-got; e.State != Ready || e.Data != "stale" {
		t.Fatalf("in-flight caller got %+v, want its own result", e)
	}
	// ...but is never stored for anyone else.
	if _, ok := c.Peek(key); ok {
		t.Fatal("late result was stored despite invalidation")
	}
	if e := c.Get(context.Background(), key, fetch); e.Data != "fresh" {
		t.Fatalf("Get after invalidation = %v, want fresh re-fetch", e.Data)
	}
}
