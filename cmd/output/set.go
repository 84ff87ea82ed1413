package output

import (
	"strconv"
	"time"

	"github.com/kevinboone/pi-servo/internal/gpio"
	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/spf13/cobra"
)

var holdTime time.Duration

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Drive an output at the given duty fraction for a while",
	Long:  `Starts the output, applies the given duty fraction and stops again after the hold time.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputIdFlag := cmd.Flag("id")
		outputId := outputIdFlag.Value.String()

		fraction, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}

		config, err := getOutputConfig(outputId)
		if err != nil {
			return err
		}

		pin, err := gpio.NewPin(config)
		if err != nil {
			return err
		}

		p := pwm.New(config.ID, pin)
		err = p.Start(time.Duration(config.CycleLength) * time.Microsecond)
		if err != nil {
			return err
		}
		defer p.Close()

		p.SetDuty(fraction)
		ui.Info("Driving %s at %f for %v", config.ID, fraction, holdTime)
		time.Sleep(holdTime)

		return nil
	},
}

func init() {
	setCmd.Flags().StringP("id", "i", "", "Output ID as specified in the config")
	_ = setCmd.MarkFlagRequired("id")
	setCmd.Flags().DurationVarP(&holdTime, "for", "f", 2*time.Second, "How long to hold the duty fraction")

	Command.AddCommand(setCmd)
}
