package gpio

import (
	"fmt"
	"os"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// CdevPin drives a GPIO line through the Linux GPIO character device.
type CdevPin struct {
	// Chip is the gpiochip device name. When empty, available chips are
	// probed in order until one accepts the line request.
	Chip string
	// Pin is the line offset on the chip.
	Pin int

	line *gpiocdev.Line
}

func (p *CdevPin) Label() string {
	if len(p.Chip) > 0 {
		return fmt.Sprintf("%s:%d", p.Chip, p.Pin)
	}
	return fmt.Sprintf("gpio%d", p.Pin)
}

func (p *CdevPin) Claim() error {
	var lastErr error
	for _, chip := range p.chipCandidates() {
		line, err := gpiocdev.RequestLine(chip, p.Pin,
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer("pi-servo"))
		if err != nil {
			lastErr = err
			continue
		}
		p.line = line
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no gpiochip device found")
	}
	return &ClaimError{Pin: p.Label(), Cause: lastErr}
}

func (p *CdevPin) Write(level Level) error {
	if p.line == nil {
		return fmt.Errorf("%s is not claimed", p.Label())
	}
	return p.line.SetValue(int(level))
}

func (p *CdevPin) Release() error {
	if p.line == nil {
		return nil
	}

	// Leave the line in a defined low state before giving it up.
	_ = p.line.SetValue(int(Low))
	err := p.line.Close()
	p.line = nil
	return err
}

func (p *CdevPin) chipCandidates() []string {
	if len(p.Chip) > 0 {
		return []string{p.Chip}
	}

	candidates := []string{"gpiochip0"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") && name != "gpiochip0" {
			candidates = append(candidates, name)
		}
	}
	return candidates
}
