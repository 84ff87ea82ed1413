package configuration

import (
	"errors"
	"fmt"
)

func Validate(config *Configuration) error {
	return validateOutputs(config)
}

func validateOutputs(config *Configuration) error {
	ids := map[string]bool{}
	sysfsPins := map[int]bool{}
	cdevPins := map[string]bool{}

	for _, output := range config.Outputs {
		if len(output.ID) <= 0 {
			return errors.New("output has no id")
		}
		if ids[output.ID] {
			return fmt.Errorf("duplicate output id: %s", output.ID)
		}
		ids[output.ID] = true

		if output.CycleLength <= 0 {
			return fmt.Errorf("output %s: cycleLength must be a positive number of microseconds", output.ID)
		}
		if output.Duty < 0.0 || output.Duty > 1.0 {
			return fmt.Errorf("output %s: duty must be in [0.0, 1.0]", output.ID)
		}

		switch output.FailurePolicy {
		case "", FailurePolicyContinue, FailurePolicyStop:
		default:
			return fmt.Errorf("output %s: unknown failurePolicy: %s", output.ID, output.FailurePolicy)
		}

		backends := 0
		if output.Sysfs != nil {
			backends++
			if sysfsPins[output.Sysfs.Pin] {
				return fmt.Errorf("output %s: sysfs pin %d is used by another output", output.ID, output.Sysfs.Pin)
			}
			sysfsPins[output.Sysfs.Pin] = true
		}
		if output.Cdev != nil {
			backends++
			key := fmt.Sprintf("%s:%d", output.Cdev.Chip, output.Cdev.Pin)
			if cdevPins[key] {
				return fmt.Errorf("output %s: cdev pin %d is used by another output", output.ID, output.Cdev.Pin)
			}
			cdevPins[key] = true
		}
		if output.File != nil {
			backends++
		}

		if backends != 1 {
			return fmt.Errorf("output %s: exactly one of sysfs, cdev or file must be configured", output.ID)
		}
	}

	return nil
}
