// internal/cli/images.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/law-makers/revscrape/internal/utils/headers"
)

var imagesFlags struct {
	output      string
	zip         bool
	concurrency int
	headers     []string
}

// imagesCmd represents the images command
var imagesCmd = &cobra.Command{
	Use:   "images <result.json>",
	Short: "Download the review images of a saved JSON result",
	Example: `  # Download into ./review_images and zip them
  revscrape images amazon_Widget_reviews.json --zip`,
	Args: cobra.ExactArgs(1),
	RunE: runImages,
}

func init() {
	rootCmd.AddCommand(imagesCmd)

	imagesCmd.Flags().StringVarP(&imagesFlags.output, "output", "o", "review_images", "Directory for downloaded images")
	imagesCmd.Flags().BoolVar(&imagesFlags.zip, "zip", false, "Bundle downloaded images into a zip archive")
	imagesCmd.Flags().IntVarP(&imagesFlags.concurrency, "concurrency", "c", 0, "Parallel downloads (default from config)")
	imagesCmd.Flags().StringArrayVarP(&imagesFlags.headers, "header", "H", []string{}, "Custom headers sent with each download")
}

func runImages(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	headerMap, err := headers.ParseHeaders(imagesFlags.headers)
	if err != nil {
		return err
	}
	result, err := readResult(args[0])
	if err != nil {
		return err
	}
	return downloadImages(cmd.Context(), a, result, imageOptions{
		dir:         imagesFlags.output,
		zip:         imagesFlags.zip,
		concurrency: imagesFlags.concurrency,
		headers:     headerMap,
	})
}
