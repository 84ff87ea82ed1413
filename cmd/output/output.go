package output

import (
	"errors"
	"fmt"

	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "output",
	Short:            "Output related commands",
	Long:             ``,
	TraverseChildren: true,
}

func getOutputConfig(id string) (configuration.OutputConfig, error) {
	configuration.ReadConfigFile()

	for _, config := range configuration.CurrentConfig.Outputs {
		if config.ID == id {
			return config, nil
		}
	}

	return configuration.OutputConfig{}, errors.New(fmt.Sprintf("No output with id found: %s", id))
}

func describeBackend(config configuration.OutputConfig) (backend string, pin string) {
	if config.Sysfs != nil {
		return "sysfs", fmt.Sprintf("gpio%d", config.Sysfs.Pin)
	}
	if config.Cdev != nil {
		chip := config.Cdev.Chip
		if len(chip) <= 0 {
			chip = "auto"
		}
		return "cdev", fmt.Sprintf("%s:%d", chip, config.Cdev.Pin)
	}
	if config.File != nil {
		return "file", config.File.Path
	}
	return "none", ""
}
