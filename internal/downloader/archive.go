package downloader

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveName returns <title[:30]>_review_images.zip with the title made filename safe
func ArchiveName(title string) string {
	runes := []rune(title)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	base := sanitizeFilename(string(runes))
	if title == "" {
		base = "amazon"
	}
	return base + "_review_images.zip"
}

// Zip writes every successful download into a zip archive on w
func Zip(w io.Writer, results []*DownloadResult) (int, error) {
	zw := zip.NewWriter(w)
	added := 0
	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		if err := addFile(zw, r.FilePath); err != nil {
			zw.Close()
			return added, err
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("failed to finish archive: %w", err)
	}
	return added, nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	entry, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.Base(path), Method: zip.Deflate})
	if err != nil {
		return err
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}
