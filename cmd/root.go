package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/kevinboone/pi-servo/cmd/global"
	"github.com/kevinboone/pi-servo/cmd/output"
	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/kevinboone/pi-servo/internal/console"
	"github.com/kevinboone/pi-servo/internal/gpio"
	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	pinNumber   int
	cycleLength int
	backend     string
	chip        string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pi-servo",
	Short: "Software PWM on a GPIO pin.",
	Long: `pi-servo generates a software pulse-width-modulated signal on a
single GPIO pin, for boards without a free hardware PWM peripheral.
The default command drives one pin interactively from the console.`,
	// this is the default command to run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		printHeader()

		outputConfig := configuration.OutputConfig{
			ID:          fmt.Sprintf("gpio%d", pinNumber),
			CycleLength: cycleLength,
		}
		switch backend {
		case "sysfs":
			outputConfig.Sysfs = &configuration.SysfsOutputConfig{Pin: pinNumber}
		case "cdev":
			outputConfig.Cdev = &configuration.CdevOutputConfig{Chip: chip, Pin: pinNumber}
		default:
			ui.Fatal("Unknown backend: %s", backend)
		}

		pin, err := gpio.NewPin(outputConfig)
		if err != nil {
			ui.Fatal(err.Error())
		}

		p := pwm.New(outputConfig.ID, pin)
		err = p.Start(time.Duration(cycleLength) * time.Microsecond)
		if err != nil {
			ui.Error("Can't start PWM: %v", err)
			os.Exit(1)
		}

		console.Run(os.Stdin, p.SetDuty)

		// Important -- this stops the output and leaves the pin released,
		// in the low state.
		p.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is $HOME/pi-servo.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.Flags().IntVarP(&pinNumber, "pin", "p", 17, "GPIO pin to drive")
	rootCmd.Flags().IntVarP(&cycleLength, "cycle", "t", 20000, "PWM cycle length in microseconds")
	rootCmd.Flags().StringVarP(&backend, "backend", "b", "sysfs", "pin backend (sysfs or cdev)")
	rootCmd.Flags().StringVarP(&chip, "chip", "", "", "gpiochip device for the cdev backend")

	rootCmd.AddCommand(output.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("pi", pterm.NewStyle(pterm.FgLightBlue)),
		pterm.NewLettersFromStringWithStyle("servo", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("pi-servo")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
