package weather

import (
	"context"
	"errors"
	"sync"

	"github.com/chrissnell/gardensim/internal/calendar"
	"go.uber.org/zap"
)

// ErrSuperseded is returned for a fetch whose result was discarded because a
// newer fetch for the same key was started.
var ErrSuperseded = errors.New("weather request superseded")

// Fetcher serializes provider calls per key (a bed id). Starting a fetch for
// a key cancels any in-flight fetch for that key with a different date, and
// only the most recent fetch for a key may deliver a result.
type Fetcher struct {
	provider Provider
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	seq      uint64
	inflight map[string]*request
	closed   bool
}

type request struct {
	seq    uint64
	day    calendar.Day
	cancel context.CancelFunc
}

func NewFetcher(p Provider, logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		provider: p,
		logger:   logger,
		inflight: make(map[string]*request),
	}
}

// Fetch retrieves weather for day on behalf of key.
func (f *Fetcher) Fetch(ctx context.Context, key string, lat, lon float64, day calendar.Day) (Day, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Day{}, context.Canceled
	}
	f.seq++
	req := &request{seq: f.seq, day: day, cancel: cancel}
	if prev, ok := f.inflight[key]; ok && prev.day != day {
		f.logger.Debugw("cancelling superseded weather fetch", "key", key, "day", prev.day.ISO(), "next", day.ISO())
		prev.cancel()
	}
	f.inflight[key] = req
	f.mu.Unlock()

	w, err := f.provider.Fetch(ctx, lat, lon, day)

	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.inflight[key]
	if !ok || current.seq != req.seq {
		return Day{}, ErrSuperseded
	}
	delete(f.inflight, key)

	if err != nil {
		return Day{}, err
	}
	return w, nil
}

// Provider returns a Provider that fetches on behalf of key.
func (f *Fetcher) Provider(key string) Provider {
	return ProviderFunc(func(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error) {
		return f.Fetch(ctx, key, lat, lon, day)
	})
}

// Close cancels every in-flight fetch. Later fetches fail immediately.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for key, req := range f.inflight {
		req.cancel()
		delete(f.inflight, key)
	}
}
