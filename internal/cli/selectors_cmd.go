package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/harvest/internal/ui"
)

var selectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "Show the active extraction selectors",
	Long: `Prints the CSS selectors used to locate listing containers and their fields,
after defaults, the config file and HARVEST_SELECTORS_* variables are applied.`,
	Example: `  # Show the built-in selectors
  harvest selectors

  # Check overrides from a config file
  harvest selectors --config harvest.yaml`,
	Args: cobra.NoArgs,
	RunE: runSelectors,
}

func init() {
	rootCmd.AddCommand(selectorsCmd)
}

func runSelectors(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n", ui.Bold("Selectors:"))
	for _, field := range a.Selectors.Spec().Fields() {
		fmt.Fprintf(out, "  %s %s\n", ui.ColorBold+fmt.Sprintf("%-13s", field[0]+":")+ui.ColorReset, ui.ColorWhite+field[1]+ui.ColorReset)
	}
	if a.Config.ConfigFile != "" {
		fmt.Fprintf(out, "\n%s %s\n", ui.Info("Config file:"), a.Config.ConfigFile)
	}
	fmt.Fprintln(out)
	return nil
}
