package refresh

import "time"

// Sleeper abstracts blocking delays (rate-limit backoff, inter-asset
// pacing) so tests can substitute a no-op and assert on requested
// durations instead of actually waiting.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}

// NewSleeper returns a Sleeper backed by time.Sleep
func NewSleeper() Sleeper {
	return realSleeper{}
}
