// internal/cli/parse.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/app"
	"github.com/law-makers/revscrape/internal/export"
	"github.com/law-makers/revscrape/internal/static"
)

var parseFlags struct {
	format string
	output string
	url    string
	print  bool
}

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file.html>...",
	Short: "Extract reviews from saved HTML pages",
	Long: `Replays saved pages in the order given, as if each next-page click
loaded the following file. A saved product page may come first, followed by
the review list pages it leads to.`,
	Example: `  # Parse three saved review list pages
  revscrape parse page1.html page2.html page3.html -f md

  # Product page first, then its reviews
  revscrape parse product.html reviews1.html reviews2.html --url https://www.amazon.com/dp/B0EXAMPLE`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	f := parseCmd.Flags()
	f.StringVarP(&parseFlags.format, "format", "f", "", "Export format: json, csv, txt or md")
	f.StringVarP(&parseFlags.output, "output", "o", "", "Directory to write the export to")
	f.StringVar(&parseFlags.url, "url", "", "Original URL of the first page, recorded as the product URL")
	f.BoolVar(&parseFlags.print, "print", false, "Write the export to stdout instead of a file")
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(orDefault(parseFlags.format, a.Config.Format))
	if err != nil {
		return err
	}

	seq, err := static.OpenFiles(args...)
	if err != nil {
		return err
	}

	result, err := crawlPage(cmd.Context(), a, seq, parseFlags.url, app.CrawlOptions{}, true, seq.Remaining)
	if err != nil {
		return err
	}

	if parseFlags.print {
		artifact, err := export.Render(result, format)
		if err != nil {
			return err
		}
		_, err = stdout.Write(artifact.Data)
		return err
	}

	path, err := writeResult(result, format, orDefault(parseFlags.output, a.Config.OutputDir))
	if err != nil {
		return fmt.Errorf("failed to save export: %w", err)
	}
	printSummary(result, path)
	return nil
}
