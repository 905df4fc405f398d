package timer

import (
	"sync"
	"time"
)

// Timer represents a repeating tick source that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock schedules periodic callbacks. Tests swap in a manual clock.
type Clock interface {
	Every(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemClock is the default Clock implementation using the standard library.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Every(d time.Duration, f func()) Timer {
	t := &repeatingTimer{
		ticker: time.NewTicker(d),
		stopCh: make(chan struct{}),
	}
	go t.run(f)
	return t
}

func (systemClock) Now() time.Time {
	return time.Now()
}

type repeatingTimer struct {
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once
}

func (t *repeatingTimer) run(f func()) {
	defer t.ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C:
			select {
			case <-t.stopCh:
				return
			default:
			}
			f()
		}
	}
}

// Stop cancels the ticker. It reports whether this call stopped it.
func (t *repeatingTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.stopCh)
		stopped = true
	})
	return stopped
}
