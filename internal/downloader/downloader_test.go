package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/revscrape/pkg/models"
)

func TestJobs(t *testing.T) {
	result := models.NewCrawlResult(models.ProductInfo{}, []models.Review{
		{ID: "R1", ImageURLs: []string{"https://m.media-amazon.com/images/I/71HE2s0wqhL._SY88_.jpg", "https://m.media-amazon.com/images/I/abc.png"}},
		{ID: "R2"},
		{ID: "", ImageURLs: []string{"https://m.media-amazon.com/"}},
	})

	jobs := Jobs(result)
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].URL != "https://m.media-amazon.com/images/I/71HE2s0wqhL.jpg" {
		t.Errorf("Expected full size URL, got %q", jobs[0].URL)
	}
	if jobs[0].Filename != "R1_0_71HE2s0wqhL.jpg" {
		t.Errorf("Unexpected filename %q", jobs[0].Filename)
	}
	if jobs[1].Filename != "R1_1_abc.png" {
		t.Errorf("Unexpected filename %q", jobs[1].Filename)
	}
	if jobs[2].Filename != "no_id_0.jpg" {
		t.Errorf("Expected fallback filename, got %q", jobs[2].Filename)
	}
}

func TestWorkerPool_Run(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasSuffix(r.URL.Path, "missing.jpg") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("img:" + r.URL.Path))
	}))
	defer server.Close()

	jobs := []Job{
		{URL: server.URL + "/a.jpg", Filename: "R1_0_a.jpg"},
		{URL: server.URL + "/missing.jpg", Filename: "R1_1_missing.jpg"},
		{URL: server.URL + "/b.jpg", Filename: "R2_0_b.jpg"},
	}

	dir := t.TempDir()
	var done atomic.Int32
	pool := NewWorkerPool(NewDownloader(5*time.Second, nil, "Test/1.0", nil, nil), 2)
	results := pool.Run(context.Background(), jobs, dir, func(*DownloadResult) { done.Add(1) })

	if len(results) != 3 || done.Load() != 3 {
		t.Fatalf("Expected 3 results and callbacks, got %d / %d", len(results), done.Load())
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("Expected successes, got %v / %v", results[0].Error, results[2].Error)
	}
	if results[1].Success || results[1].Error == nil {
		t.Error("Expected 404 to fail")
	}
	if hits.Load() != 3 {
		t.Errorf("Expected no retries, got %d requests", hits.Load())
	}

	data, err := os.ReadFile(results[0].FilePath)
	if err != nil || string(data) != "img:/a.jpg" {
		t.Errorf("Unexpected file content %q (%v)", data, err)
	}

	var buf bytes.Buffer
	n, err := Zip(&buf, results)
	if err != nil || n != 2 {
		t.Fatalf("Zip returned %d, %v", n, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "R1_0_a.jpg" {
		t.Errorf("Unexpected archive entries %v", zr.File)
	}
}

func TestWorkerPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewWorkerPool(NewDownloader(time.Second, nil, "", nil, nil), 1)
	results := pool.Run(ctx, []Job{{URL: "http://127.0.0.1:1/x.jpg", Filename: "x.jpg"}}, t.TempDir(), nil)
	if len(results) != 1 || results[0].Success {
		t.Fatalf("Expected failed result, got %+v", results)
	}
}

func TestSanitizeFilename_Security(t *testing.T) {
	for _, input := range []string{"../../etc/passwd", "/etc/shadow", "file:with:colons", "..."} {
		t.Run(input, func(t *testing.T) {
			result := sanitizeFilename(input)
			if strings.ContainsAny(result, `/\`) || strings.Contains(result, "..") || result == "" {
				t.Errorf("Unsafe filename %q", result)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	if got := ArchiveName("Wireless Mouse"); got != "Wireless Mouse_review_images.zip" {
		t.Errorf("Unexpected archive name %q", got)
	}
	if got := ArchiveName(""); got != "amazon_review_images.zip" {
		t.Errorf("Unexpected archive name %q", got)
	}
}

func TestDownloader_UsesProxy(t *testing.T) {
	var seen atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.String())
		w.Write([]byte("via proxy"))
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDownloader(5*time.Second, nil, "Test/1.0", nil, http.ProxyURL(proxyURL))
	result := d.Download(context.Background(), Job{URL: "http://images.example.invalid/a.jpg", Filename: "a.jpg"}, t.TempDir())
	if !result.Success {
		t.Fatalf("Expected download through proxy, got %v", result.Error)
	}
	if got, _ := seen.Load().(string); got != "http://images.example.invalid/a.jpg" {
		t.Errorf("Expected proxy to receive the image URL, got %q", got)
	}
	data, err := os.ReadFile(result.FilePath)
	if err != nil || string(data) != "via proxy" {
		t.Errorf("Unexpected file content %q (%v)", data, err)
	}
}
