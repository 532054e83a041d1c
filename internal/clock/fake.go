package clock

import (
	"sync"
	"time"
)

// Fake is a Clock whose time only moves when Advance or Set is called.
// Tickers created from it fire during Advance for every period that elapsed;
// like real tickers they drop ticks when the receiver is not keeping up.
type Fake struct {
	// mu protects now and tickers.
	mu sync.Mutex
	// now is the current fake time.
	now time.Time
	// tickers holds the active fake tickers.
	tickers []*fakeTicker
}

// NewFake returns a Fake clock set to the provided time.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

// NewTicker creates a ticker that fires every d of fake time.
//
//nolint:ireturn // Clock implementations return the Ticker abstraction.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{
		clock:  f,
		period: d,
		next:   f.now.Add(d),
		ch:     make(chan time.Time, 1),
	}

	f.tickers = append(f.tickers, t)

	return t
}

// Advance moves the clock forward by d and fires due tickers.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	tickers := append([]*fakeTicker(nil), f.tickers...)
	f.mu.Unlock()

	for _, t := range tickers {
		t.fire(now)
	}
}

// Set jumps the clock to the provided time without firing tickers.
// It models a system clock adjustment.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = now

	for _, t := range f.tickers {
		t.next = now.Add(t.period)
	}
}

// TickerCount reports the number of tickers that were created and not stopped.
func (f *Fake) TickerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.tickers)
}

// remove detaches a stopped ticker.
func (f *Fake) remove(t *fakeTicker) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, candidate := range f.tickers {
		if candidate == t {
			f.tickers = append(f.tickers[:i], f.tickers[i+1:]...)
			return
		}
	}
}

// fakeTicker is a Ticker driven by a Fake clock.
type fakeTicker struct {
	clock  *Fake
	period time.Duration
	// next is guarded by clock.mu.
	next time.Time
	ch   chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.clock.remove(t)
}

// fire delivers a tick for every period that elapsed up to now.
func (t *fakeTicker) fire(now time.Time) {
	t.clock.mu.Lock()
	var due []time.Time
	for !t.next.After(now) {
		due = append(due, t.next)
		t.next = t.next.Add(t.period)
	}
	t.clock.mu.Unlock()

	for _, at := range due {
		select {
		case t.ch <- at:
		default:
		}
	}
}
