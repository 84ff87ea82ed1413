package output

import (
	"bytes"
	"fmt"

	"github.com/kevinboone/pi-servo/cmd/global"
	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured outputs",
	Run: func(cmd *cobra.Command, args []string) {
		configuration.ReadConfigFile()

		rows := [][]string{}
		for _, config := range configuration.CurrentConfig.Outputs {
			backend, pin := describeBackend(config)
			rows = append(rows, []string{
				config.ID,
				backend,
				pin,
				fmt.Sprintf("%d", config.CycleLength),
				fmt.Sprintf("%.3f", config.Duty),
			})
		}

		tab := table.Table{
			Headers: []string{"ID", "Backend", "Pin", "Cycle (usec)", "Initial duty"},
			Rows:    rows,
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if tableErr != nil {
			panic(tableErr)
		}
		ui.Printfln(buf.String())
	},
}

func init() {
	Command.AddCommand(listCmd)
}
