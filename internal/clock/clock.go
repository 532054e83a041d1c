package clock

import "time"

// Clock supplies the current time and periodic tickers.
//
// Times returned by Now carry a monotonic reading where the implementation
// supports it, so Sub between two readings is immune to wall-clock changes.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// System is the Clock backed by the time package.
type System struct{}

// Now returns the current local time including its monotonic reading.
func (System) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker.
//
//nolint:ireturn // Clock implementations return the Ticker abstraction.
func (System) NewTicker(d time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

// systemTicker adapts *time.Ticker to the Ticker interface.
type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *systemTicker) Stop() {
	t.ticker.Stop()
}
