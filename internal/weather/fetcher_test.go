package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chrissnell/gardensim/internal/calendar"
	"go.uber.org/zap"
)

type blockingProvider struct {
	started chan calendar.Day
	release chan struct{}
}

func newBlockingProvider() *blockingProvider {
	return &blockingProvider{
		started: make(chan calendar.Day, 4),
		release: make(chan struct{}),
	}
}

func (b *blockingProvider) Fetch(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error) {
	b.started <- day
	select {
	case <-ctx.Done():
		return Day{}, ctx.Err()
	case <-b.release:
		return Day{Daily: Daily{Day: day, TMeanC: float64(day % 100)}}, nil
	}
}

type fetchResult struct {
	day Day
	err error
}

func fetchAsync(f *Fetcher, key string, day calendar.Day) <-chan fetchResult {
	out := make(chan fetchResult, 1)
	go func() {
		d, err := f.Fetch(context.Background(), key, 0, 0, day)
		out <- fetchResult{d, err}
	}()
	return out
}

func wait(t *testing.T, ch <-chan fetchResult) fetchResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not complete")
	}
	return fetchResult{}
}

func TestFetcherCancelsSupersededDate(t *testing.T) {
	p := newBlockingProvider()
	f := NewFetcher(p, zap.NewNop().Sugar())

	day1, day2 := calendar.FromDate(2024, 6, 1), calendar.FromDate(2024, 6, 2)

	first := fetchAsync(f, "bed-1", day1)
	<-p.started
	second := fetchAsync(f, "bed-1", day2)
	<-p.started

	r := wait(t, first)
	if !errors.Is(r.err, ErrSuperseded) {
		t.Fatalf("first fetch err = %v, want ErrSuperseded", r.err)
	}

	close(p.release)
	r = wait(t, second)
	if r.err != nil {
		t.Fatalf("second fetch: %v", r.err)
	}
	if r.day.Day != day2 {
		t.Errorf("second fetch day = %v, want %v", r.day.Day, day2)
	}
}

func TestFetcherLastRequestWinsForSameDate(t *testing.T) {
	p := newBlockingProvider()
	f := NewFetcher(p, zap.NewNop().Sugar())
	day := calendar.FromDate(2024, 6, 1)

	first := fetchAsync(f, "bed-1", day)
	<-p.started
	second := fetchAsync(f, "bed-1", day)
	<-p.started
	close(p.release)

	if r := wait(t, first); !errors.Is(r.err, ErrSuperseded) {
		t.Errorf("first fetch err = %v, want ErrSuperseded", r.err)
	}
	if r := wait(t, second); r.err != nil {
		t.Errorf("second fetch: %v", r.err)
	}
}

func TestFetcherKeysAreIndependent(t *testing.T) {
	p := newBlockingProvider()
	f := NewFetcher(p, zap.NewNop().Sugar())

	a := fetchAsync(f, "bed-a", calendar.FromDate(2024, 6, 1))
	<-p.started
	b := fetchAsync(f, "bed-b", calendar.FromDate(2024, 6, 2))
	<-p.started
	close(p.release)

	if r := wait(t, a); r.err != nil {
		t.Errorf("bed-a: %v", r.err)
	}
	if r := wait(t, b); r.err != nil {
		t.Errorf("bed-b: %v", r.err)
	}
}

func TestFetcherClose(t *testing.T) {
	p := newBlockingProvider()
	f := NewFetcher(p, zap.NewNop().Sugar())

	inflight := fetchAsync(f, "bed-1", calendar.FromDate(2024, 6, 1))
	<-p.started
	f.Close()

	if r := wait(t, inflight); r.err == nil {
		t.Error("in-flight fetch succeeded after Close")
	}
	if _, err := f.Fetch(context.Background(), "bed-1", 0, 0, calendar.FromDate(2024, 6, 2)); err == nil {
		t.Error("fetch after Close succeeded")
	}
}
