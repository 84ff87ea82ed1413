package pwm

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/kevinboone/pi-servo/internal/gpio"
	"github.com/stretchr/testify/assert"
)

type mockPin struct {
	mu       sync.Mutex
	claimed  bool
	released bool
	writes   []gpio.Level

	claimErr error
	writeErr error

	// failLevel fails the next failRemaining writes of a specific level.
	failLevel     gpio.Level
	failRemaining int

	// block, when set, stalls every Write until the channel is closed.
	block chan struct{}
}

func (m *mockPin) Label() string {
	return "mock"
}

func (m *mockPin) Claim() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimErr != nil {
		return m.claimErr
	}
	m.claimed = true
	m.released = false
	return nil
}

func (m *mockPin) Write(level gpio.Level) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.failRemaining > 0 && level == m.failLevel {
		m.failRemaining--
		return errors.New("write: input/output error")
	}
	m.writes = append(m.writes, level)
	return nil
}

func (m *mockPin) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimed = false
	m.released = true
	return nil
}

func (m *mockPin) failNext(level gpio.Level, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLevel = level
	m.failRemaining = n
}

func (m *mockPin) levels() []gpio.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]gpio.Level, len(m.writes))
	copy(result, m.writes)
	return result
}

func (m *mockPin) isReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func TestStartClaimFailure(t *testing.T) {
	// GIVEN
	pin := &mockPin{claimErr: errors.New("pin already claimed")}
	p := New("out1", pin)

	// WHEN
	err := p.Start(usec(2000))

	// THEN
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pin already claimed")
	assert.False(t, p.Running())
	assert.Empty(t, pin.levels())
}

func TestStartIsFullyOff(t *testing.T) {
	// GIVEN
	pin := &mockPin{}
	p := New("out1", pin)

	// WHEN
	err := p.Start(usec(2000))
	assert.NoError(t, err)
	defer p.Close()
	time.Sleep(20 * time.Millisecond)

	// THEN
	intervals := p.Intervals()
	assert.Equal(t, usec(0), intervals.On)
	assert.Equal(t, usec(2000), intervals.Off)
	for _, level := range pin.levels() {
		assert.Equal(t, gpio.Low, level)
	}
}

func TestSetDutyTogglesPin(t *testing.T) {
	pin := &mockPin{}
	p := New("out1", pin)

	err := p.Start(usec(2000))
	assert.NoError(t, err)
	defer p.Close()

	p.SetDuty(0.5)
	time.Sleep(50 * time.Millisecond)

	levels := pin.levels()
	highs := 0
	lows := 0
	for _, level := range levels {
		if level == gpio.High {
			highs++
		} else {
			lows++
		}
	}
	assert.Greater(t, highs, 0)
	assert.Greater(t, lows, 0)
	assert.Greater(t, p.Cycles(), uint64(0))
}

func TestEndToEndIntervals(t *testing.T) {
	pin := &mockPin{}
	p := New("gpio17", pin)

	err := p.Start(usec(20000))
	assert.NoError(t, err)
	defer p.Close()

	p.SetDuty(0.5)
	intervals := p.Intervals()
	assert.Equal(t, usec(10000), intervals.On)
	assert.Equal(t, usec(10000), intervals.Off)
	assert.Equal(t, 0.5, p.Duty())
}

// Two updates in quick succession: the loop must only ever observe complete
// pairs, and the published pair is the latest one.
func TestLatestDutyWins(t *testing.T) {
	pin := &mockPin{}
	p := New("out1", pin)

	err := p.Start(usec(50000))
	assert.NoError(t, err)
	defer p.Close()

	p.SetDuty(0.2)
	p.SetDuty(0.8)

	intervals := p.Intervals()
	assert.Equal(t, SplitCycle(usec(50000), 0.8), intervals)
	assert.Equal(t, usec(50000), intervals.On+intervals.Off)
}

func TestStopReleasesPinAndLeavesItLow(t *testing.T) {
	// GIVEN a running, fully-on output
	pin := &mockPin{}
	p := New("out1", pin)

	err := p.Start(usec(2000))
	assert.NoError(t, err)
	p.SetDuty(1.0)
	time.Sleep(20 * time.Millisecond)

	// WHEN
	p.Stop()

	// THEN
	assert.False(t, p.Running())
	assert.True(t, pin.isReleased())
	levels := pin.levels()
	assert.NotEmpty(t, levels)
	assert.Equal(t, gpio.Low, levels[len(levels)-1])
}

func TestStopIsIdempotent(t *testing.T) {
	pin := &mockPin{}
	p := New("out1", pin)

	err := p.Start(usec(2000))
	assert.NoError(t, err)

	p.Stop()
	p.Stop()
	p.Close()

	assert.False(t, p.Running())
}

func TestCloseWithoutStart(t *testing.T) {
	pin := &mockPin{}
	p := New("out1", pin)

	p.Close()

	assert.False(t, p.Running())
	assert.False(t, pin.isReleased())
}

// A stopped instance releases its claim, so starting again must succeed.
func TestRestartAfterStop(t *testing.T) {
	pin := &mockPin{}
	p := New("out1", pin)

	assert.NoError(t, p.Start(usec(2000)))
	p.Stop()

	assert.NoError(t, p.Start(usec(2000)))
	assert.True(t, p.Running())
	p.Close()
}

func TestStartWhileRunning(t *testing.T) {
	pin := &mockPin{}
	p := New("out1", pin)

	assert.NoError(t, p.Start(usec(2000)))
	defer p.Close()

	err := p.Start(usec(2000))
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestWriteFailuresAreCounted(t *testing.T) {
	pin := &mockPin{writeErr: errors.New("write: input/output error")}
	p := New("out1", pin)
	p.FailurePolicy = configuration.FailurePolicyContinue

	assert.NoError(t, p.Start(usec(2000)))
	defer p.Close()

	p.SetDuty(0.5)
	time.Sleep(20 * time.Millisecond)

	assert.Greater(t, p.WriteFailures(), uint64(0))
}

func TestWriteFailureStopAbortsLoop(t *testing.T) {
	// GIVEN a running waveform whose next low write fails
	pin := &mockPin{}
	p := New("out1", pin)
	p.FailurePolicy = configuration.FailurePolicyStop

	assert.NoError(t, p.Start(usec(2000)))
	p.SetDuty(0.5)
	time.Sleep(10 * time.Millisecond)
	pin.failNext(gpio.Low, 1)
	time.Sleep(50 * time.Millisecond)

	// THEN the loop has terminated itself and settled the line low
	assert.False(t, p.Running())
	assert.Equal(t, uint64(1), p.WriteFailures())
	levels := pin.levels()
	assert.NotEmpty(t, levels)
	assert.Equal(t, gpio.Low, levels[len(levels)-1])
	// the pin stays claimed until Stop runs
	assert.False(t, pin.isReleased())

	p.Stop()
	assert.True(t, pin.isReleased())
}

func TestStopTimeoutLeavesPinClaimed(t *testing.T) {
	// GIVEN a pin whose writes stall indefinitely
	pin := &mockPin{block: make(chan struct{})}
	p := New("out1", pin)

	assert.NoError(t, p.Start(usec(2000)))
	time.Sleep(10 * time.Millisecond)

	// WHEN the bounded wait for the timing loop expires
	p.Stop()

	// THEN the claim is leaked instead of racing the stalled write
	assert.False(t, pin.isReleased())
	assert.True(t, p.Running())

	// WHEN the stalled write completes, a later Stop releases the pin
	close(pin.block)
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	// THEN
	assert.True(t, pin.isReleased())
	assert.False(t, p.Running())
}
