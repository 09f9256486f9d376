// internal/cli/slot.go
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/ui"
)

// slotCmd groups commands for the product info kept between a product page
// and its review list
var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Inspect or clear the saved product info",
}

var slotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the product info waiting for the next crawl",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp(cmd)
		if err != nil {
			return err
		}
		info, ok, err := a.Slot.Load()
		if err != nil {
			return fmt.Errorf("failed to read product slot: %w", err)
		}
		if !ok {
			fmt.Fprintln(stdout, ui.Info("No product info saved."))
			return nil
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	},
}

var slotClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved product info",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp(cmd)
		if err != nil {
			return err
		}
		if err := a.Slot.Clear(); err != nil {
			return fmt.Errorf("failed to clear product slot: %w", err)
		}
		fmt.Fprintln(stdout, ui.Success("✓")+" Product slot cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(slotCmd)
	slotCmd.AddCommand(slotShowCmd, slotClearCmd)
}
