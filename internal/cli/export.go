// internal/cli/export.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/export"
	"github.com/law-makers/revscrape/pkg/models"
)

var exportFlags struct {
	formats []string
	output  string
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <result.json>",
	Short: "Convert a saved JSON result to other formats",
	Example: `  # Produce CSV and Markdown from an earlier crawl
  revscrape export amazon_Widget_reviews.json -f csv -f md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringArrayVarP(&exportFlags.formats, "format", "f", []string{"csv"}, "Export format: json, csv, txt or md (repeatable)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "Directory to write the exports to")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}

	result, err := readResult(args[0])
	if err != nil {
		return err
	}

	dir := orDefault(exportFlags.output, a.Config.OutputDir)
	for _, name := range exportFlags.formats {
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		path, err := writeResult(result, format, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✓ Saved to %s\n", path)
	}
	return nil
}

func readResult(path string) (*models.CrawlResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}
	result, err := export.ReadJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return result, nil
}
