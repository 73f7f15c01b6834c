package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc loads one snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Poller refreshes a snapshot on a fixed interval. Each fetch is numbered when
// it starts; a result is kept only if no later-started fetch has already been
// applied, and nothing is applied after Stop. Fetch errors are logged and the
// loop keeps going.
type Poller[T any] struct {
	interval time.Duration
	fetch    FetchFunc[T]
	onUpdate func(T)
	logger   *zap.Logger

	mu      sync.Mutex
	seq     uint64
	applied uint64
	latest  T
	has     bool
	stopped bool
	cancel  context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPoller returns a stopped poller. onUpdate may be nil; it is called with
// the poller's lock released.
func NewPoller[T any](interval time.Duration, fetch FetchFunc[T], onUpdate func(T), logger *zap.Logger) *Poller[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller[T]{interval: interval, fetch: fetch, onUpdate: onUpdate, logger: logger}
}

// Start fetches immediately, then every interval until ctx is done or Stop is
// called. Calling Start more than once has no effect.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil || p.stopped {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	// Add under the lock so a concurrent Stop always waits for this loop.
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		_ = p.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = p.Refresh(ctx)
			}
		}
	}()
}

// Refresh runs one fetch now, outside the schedule. It reports the fetch error;
// a result that lost the ordering race is dropped without error.
func (p *Poller[T]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return context.Canceled
	}
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	v, err := p.fetch(ctx)
	if err != nil {
		p.logger.Debug("poll failed", zap.Uint64("seq", seq), zap.Error(err))
		return err
	}

	p.mu.Lock()
	if p.stopped || seq <= p.applied {
		p.mu.Unlock()
		return nil
	}
	p.applied = seq
	p.latest = v
	p.has = true
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(v)
	}
	return nil
}

// Latest returns the most recent applied snapshot.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.has
}

// Update replaces the snapshot in place, e.g. to drop an item the caller
// knows is gone. It does not move the fetch ordering.
func (p *Poller[T]) Update(fn func(T) T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || !p.has {
		return
	}
	p.latest = fn(p.latest)
}

// Stop cancels the loop and waits for it to exit. It is idempotent.
func (p *Poller[T]) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		cancel := p.cancel
		p.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
	p.wg.Wait()
}
