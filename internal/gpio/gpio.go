package gpio

import (
	"fmt"

	"github.com/kevinboone/pi-servo/internal/configuration"
)

type Level int

const (
	Low  Level = 0
	High Level = 1
)

// Pin is a single GPIO line driven as a digital output.
//
// A Pin is created unclaimed; Claim acquires the kernel resources and
// configures the line for output. Write must only be called between a
// successful Claim and the matching Release. Release is idempotent.
type Pin interface {
	// Label identifies the pin for logging and error messages.
	Label() string

	Claim() error
	Write(level Level) error
	Release() error
}

// ClaimError reports that a pin could not be claimed from the kernel,
// carrying the underlying OS error.
type ClaimError struct {
	Pin   string
	Cause error
}

func (e *ClaimError) Error() string {
	return fmt.Sprintf("cannot claim %s: %v", e.Pin, e.Cause)
}

func (e *ClaimError) Unwrap() error {
	return e.Cause
}

func NewPin(config configuration.OutputConfig) (Pin, error) {
	if config.Sysfs != nil {
		return &SysfsPin{
			Pin: config.Sysfs.Pin,
		}, nil
	}

	if config.Cdev != nil {
		return &CdevPin{
			Chip: config.Cdev.Chip,
			Pin:  config.Cdev.Pin,
		}, nil
	}

	if config.File != nil {
		return &FilePin{
			Path: config.File.Path,
		}, nil
	}

	return nil, fmt.Errorf("no pin backend configured for output %s", config.ID)
}
