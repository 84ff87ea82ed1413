package pwm

import "time"

// Intervals is one consistent pair of phase lengths. On plus Off always equals
// the cycle length the pair was derived from, since Off is computed from On
// rather than rounded on its own.
type Intervals struct {
	On  time.Duration
	Off time.Duration
}

// SplitCycle converts a duty fraction into phase lengths with microsecond
// granularity. The on interval is truncated toward zero.
//
// Fractions outside [0.0, 1.0] are passed through unclamped: the caller gets
// an on interval exceeding the cycle length or a negative off interval.
func SplitCycle(cycleLength time.Duration, fraction float64) Intervals {
	on := time.Duration(int64(float64(cycleLength.Microseconds())*fraction)) * time.Microsecond
	return Intervals{
		On:  on,
		Off: cycleLength - on,
	}
}
