package console

import (
	"bufio"
	"io"
	"strconv"

	"github.com/kevinboone/pi-servo/internal/ui"
)

// Run reads duty fractions from in, one number per prompt, and forwards every
// value greater than zero to setDuty. A value less than or equal to zero, or
// end of input, ends the loop.
func Run(in io.Reader, setDuty func(fraction float64)) {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	for {
		ui.Printf("Set on fraction (0.0-1.0) or a negative number to stop: ")
		if !scanner.Scan() {
			return
		}

		value, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			ui.Warning("Not a number: %s", scanner.Text())
			continue
		}

		if value <= 0.0 {
			return
		}

		ui.Printfln("Setting %f", value)
		setDuty(value)
	}
}
