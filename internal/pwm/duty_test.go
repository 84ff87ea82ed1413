package pwm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func usec(n int) time.Duration {
	return time.Duration(n) * time.Microsecond
}

func TestSplitCycleSumsToCycleLength(t *testing.T) {
	// GIVEN
	cycleLength := usec(20000)
	fractions := []float64{0.0, 0.025, 0.1, 0.25, 0.333333, 0.5, 0.666667, 0.9, 1.0}

	for _, fraction := range fractions {
		// WHEN
		intervals := SplitCycle(cycleLength, fraction)

		// THEN
		assert.Equal(t, cycleLength, intervals.On+intervals.Off, "fraction %f", fraction)
	}
}

func TestSplitCycleFullyOff(t *testing.T) {
	intervals := SplitCycle(usec(20000), 0.0)

	assert.Equal(t, usec(0), intervals.On)
	assert.Equal(t, usec(20000), intervals.Off)
}

func TestSplitCycleFullyOn(t *testing.T) {
	intervals := SplitCycle(usec(20000), 1.0)

	assert.Equal(t, usec(20000), intervals.On)
	assert.Equal(t, usec(0), intervals.Off)
}

func TestSplitCycleHalf(t *testing.T) {
	intervals := SplitCycle(usec(20000), 0.5)

	assert.Equal(t, usec(10000), intervals.On)
	assert.Equal(t, usec(10000), intervals.Off)
}

func TestSplitCycleServoMinimumPulse(t *testing.T) {
	// SG90-style minimum pulse: 2.5% of a 2 ms cycle
	intervals := SplitCycle(usec(2000), 0.025)

	assert.Equal(t, usec(50), intervals.On)
	assert.Equal(t, usec(1950), intervals.Off)
}

func TestSplitCycleTruncatesTowardZero(t *testing.T) {
	// 1/3 of 100 usec truncates to 33, the remainder goes to the off phase
	intervals := SplitCycle(usec(100), 1.0/3.0)

	assert.Equal(t, usec(33), intervals.On)
	assert.Equal(t, usec(67), intervals.Off)
}

// Fractions outside [0.0, 1.0] are passed through unclamped; the sum
// invariant still holds.
func TestSplitCycleDoesNotClamp(t *testing.T) {
	cycleLength := usec(1000)

	over := SplitCycle(cycleLength, 1.5)
	assert.Equal(t, usec(1500), over.On)
	assert.Equal(t, usec(-500), over.Off)
	assert.Equal(t, cycleLength, over.On+over.Off)

	under := SplitCycle(cycleLength, -0.5)
	assert.Equal(t, usec(-500), under.On)
	assert.Equal(t, usec(1500), under.Off)
	assert.Equal(t, cycleLength, under.On+under.Off)
}
