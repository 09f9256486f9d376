// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/app"
	"github.com/law-makers/revscrape/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revscrape",
	Short: "Collect customer reviews from Amazon product pages",
	Long: `Revscrape walks every page of an Amazon review list and exports the
reviews as JSON, CSV, TXT or Markdown.

Point it at a product page and it records the title and price, opens the
full review list and carries on from there. Saved HTML pages can be parsed
offline with the parse command.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.main().
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails
	if cerr := closeApp(rootCmd); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorMark(), err)
		return 1
	}
	return 0
}

func init() {
	config.RegisterFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd)
	}
}

func closeApp(cmd *cobra.Command) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
	defer cancel()
	err := a.Close(ctx)
	SetApp(cmd, nil)
	return err
}

// mustApp returns the Application or an error when the pre-run hook was skipped
func mustApp(cmd *cobra.Command) (*app.Application, error) {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}
