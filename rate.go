package tempo

import "time"

// Every returns the pacing interval for n events per d, i.e. d/n. It is pure
// convenience sugar for populating Config.MinInterval from an "N every
// Duration" rate description; tempo's core has no notion of rates, only a
// fixed interval.
func Every(n int, d time.Duration) time.Duration {
	if n <= 0 {
		panic(programmerError("Every: n must be positive, got %d", n))
	}
	return d / time.Duration(n)
}
