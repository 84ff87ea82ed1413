package configuration

const (
	// FailurePolicyContinue keeps the timing loop running when a pin write
	// fails; the failure is still counted and logged.
	FailurePolicyContinue = "continue"
	// FailurePolicyStop terminates the timing loop on the first failed write.
	FailurePolicyStop = "stop"
)

type OutputConfig struct {
	// ID is the unique identifier of this output.
	ID string `json:"id"`
	// CycleLength is the total period of one PWM cycle, in microseconds.
	CycleLength int `json:"cycleLength"`
	// Duty is the initial duty fraction applied when the daemon starts the
	// output, unless a persisted value overrides it.
	Duty float64 `json:"duty"`
	// FailurePolicy selects how write failures during toggling are handled,
	// one of "continue" (default) or "stop".
	FailurePolicy string `json:"failurePolicy"`

	Sysfs *SysfsOutputConfig `json:"sysfs,omitempty"`
	Cdev  *CdevOutputConfig  `json:"cdev,omitempty"`
	File  *FileOutputConfig  `json:"file,omitempty"`
}

type SysfsOutputConfig struct {
	// Pin is the GPIO number as used by /sys/class/gpio.
	Pin int `json:"pin"`
}

type CdevOutputConfig struct {
	// Chip is the gpiochip device name, f.ex. "gpiochip0".
	// When empty, likely chips are probed.
	Chip string `json:"chip"`
	// Pin is the line offset on the chip.
	Pin int `json:"pin"`
}

type FileOutputConfig struct {
	Path string `json:"path"`
}
