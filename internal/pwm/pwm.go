package pwm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/kevinboone/pi-servo/internal/gpio"
	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/kevinboone/pi-servo/internal/util"
)

var ErrAlreadyStarted = errors.New("pwm is already started")

// stopSlack is added to the cycle length when waiting for the timing loop to
// exit; the loop observes the stop signal at most one cycle after it is raised.
const stopSlack = 1 * time.Second

// Pwm generates a software PWM signal on a single pin.
//
// A Pwm is created idle and touches no hardware until Start, which claims the
// pin and launches the timing loop as a background goroutine. SetDuty may be
// called at any time while running; the loop picks up the new interval pair at
// its next phase boundary, at most one full cycle later. Stop signals the
// loop, waits for it to exit and then releases the pin, so the loop can never
// write to a released handle.
type Pwm struct {
	id  string
	pin gpio.Pin

	// FailurePolicy selects how pin write failures during toggling are
	// handled. Failures are always counted; FailurePolicyStop additionally
	// terminates the timing loop.
	FailurePolicy string

	cycleLength time.Duration

	// intervals holds the current phase pair as a single immutable value, so
	// the timing loop never observes a torn on/off combination.
	intervals atomic.Pointer[Intervals]
	duty      atomic.Uint64

	cycles        atomic.Uint64
	writeFailures atomic.Uint64
	cycleTimes    *rolling.PointPolicy

	// aborted is set when the timing loop terminates itself on a failed
	// write under FailurePolicyStop, before Stop has run.
	aborted atomic.Bool

	// mu guards lifecycle transitions; the timing loop itself only touches
	// the atomics above.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(id string, pin gpio.Pin) *Pwm {
	windowSize := configuration.CurrentConfig.CycleTimeWindowSize
	if windowSize <= 0 {
		windowSize = 50
	}

	p := &Pwm{
		id:            id,
		pin:           pin,
		FailurePolicy: configuration.FailurePolicyContinue,
		cycleTimes:    util.CreateRollingWindow(windowSize),
	}
	p.intervals.Store(&Intervals{})
	return p
}

func (p *Pwm) Id() string {
	return p.id
}

func (p *Pwm) CycleLength() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cycleLength
}

func (p *Pwm) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && !p.aborted.Load()
}

// Start claims the pin, sets the output to fully off and launches the timing
// loop. On claim failure the pin stays unclaimed, no loop is launched and the
// underlying OS error is part of the returned error.
func (p *Pwm) Start(cycleLength time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyStarted
	}
	if cycleLength <= 0 {
		return fmt.Errorf("cannot start %s: cycle length must be positive", p.id)
	}

	if err := p.pin.Claim(); err != nil {
		return fmt.Errorf("cannot start %s: %w", p.id, err)
	}

	p.cycleLength = cycleLength
	p.intervals.Store(&Intervals{On: 0, Off: cycleLength})
	p.duty.Store(math.Float64bits(0.0))
	p.aborted.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(ctx)

	ui.Debug("Started PWM %s on %s with a cycle length of %v", p.id, p.pin.Label(), cycleLength)
	return nil
}

// SetDuty publishes a new interval pair for the timing loop. The fraction is
// not clamped; values outside [0.0, 1.0] produce intervals outside the cycle.
func (p *Pwm) SetDuty(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intervals := SplitCycle(p.cycleLength, fraction)
	p.intervals.Store(&intervals)
	p.duty.Store(math.Float64bits(fraction))

	ui.Debug("Setting %s to %f (on %v, off %v)", p.id, fraction, intervals.On, intervals.Off)
}

func (p *Pwm) Duty() float64 {
	return math.Float64frombits(p.duty.Load())
}

func (p *Pwm) Intervals() Intervals {
	return *p.intervals.Load()
}

// Cycles returns the number of completed PWM cycles since Start.
func (p *Pwm) Cycles() uint64 {
	return p.cycles.Load()
}

// WriteFailures returns the number of failed pin writes since Start.
func (p *Pwm) WriteFailures() uint64 {
	return p.writeFailures.Load()
}

// AvgCycleTime returns the rolling mean of recently measured cycle times in
// microseconds. Comparing it against the configured cycle length makes timing
// jitter observable.
func (p *Pwm) AvgCycleTime() float64 {
	return util.GetWindowAvg(p.cycleTimes)
}

// Stop signals the timing loop, waits for it to exit and releases the pin.
// The wait is bounded by one cycle length plus slack. Safe to call multiple
// times and on a never-started instance.
func (p *Pwm) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	select {
	case <-p.done:
	case <-time.After(p.cycleLength + stopSlack):
		// Leak the claim rather than racing the loop's writes against a
		// released handle. A later Stop can retry once the loop has exited.
		ui.Warning("Timing loop of %s did not exit in time, leaving %s claimed", p.id, p.pin.Label())
		return
	}

	if err := p.pin.Release(); err != nil {
		ui.Warning("Unable to release %s: %v", p.pin.Label(), err)
	}
	p.running = false

	ui.Debug("Stopped PWM %s", p.id)
}

// Close stops the instance if it is running. Closing a never-started instance
// is a no-op.
func (p *Pwm) Close() {
	p.Stop()
}

// loop realizes the waveform: write high unless the on interval is zero,
// sleep, write low unless the off interval is zero, sleep, repeat. Skipping
// the write when an interval is zero avoids a kernel call per cycle at fully
// on or fully off duty. The stop signal is observed at the two phase
// boundaries, and the pair is re-read fresh for each phase.
func (p *Pwm) loop(ctx context.Context) {
	defer close(p.done)

	level := gpio.Low
	warned := false
	for {
		select {
		case <-ctx.Done():
			p.settle(level)
			return
		default:
		}

		cycleStart := time.Now()

		intervals := p.intervals.Load()
		if intervals.On != 0 {
			if !p.write(gpio.High, &warned) {
				p.abort(level)
				return
			}
			level = gpio.High
		}
		time.Sleep(intervals.On)

		select {
		case <-ctx.Done():
			p.settle(level)
			return
		default:
		}

		intervals = p.intervals.Load()
		if intervals.Off != 0 {
			if !p.write(gpio.Low, &warned) {
				p.abort(level)
				return
			}
			level = gpio.Low
		}
		time.Sleep(intervals.Off)

		p.cycles.Add(1)
		p.cycleTimes.Append(float64(time.Since(cycleStart).Microseconds()))
	}
}

// write reports whether the loop should keep running.
func (p *Pwm) write(level gpio.Level, warned *bool) bool {
	err := p.pin.Write(level)
	if err == nil {
		return true
	}

	p.writeFailures.Add(1)
	if !*warned {
		// warn once per run, count the rest
		ui.Warning("Write to %s failed: %v", p.pin.Label(), err)
		*warned = true
	}

	return p.FailurePolicy != configuration.FailurePolicyStop
}

// abort marks the loop as self-terminated on a failed write. The pin stays
// claimed until Stop runs.
func (p *Pwm) abort(level gpio.Level) {
	p.settle(level)
	p.aborted.Store(true)
}

// settle leaves the line low when the loop exits mid-high-phase.
func (p *Pwm) settle(level gpio.Level) {
	if level == gpio.High {
		_ = p.pin.Write(gpio.Low)
	}
}
