package downloader

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// WorkerPool runs downloads with bounded concurrency
type WorkerPool struct {
	downloader  *Downloader
	concurrency int
}

// NewWorkerPool creates a pool with the given number of workers
func NewWorkerPool(d *Downloader, concurrency int) *WorkerPool {
	if concurrency <= 0 {
		concurrency = 4
	}
	if concurrency > 32 {
		concurrency = 32
	}
	return &WorkerPool{downloader: d, concurrency: concurrency}
}

// Run downloads every job into dir. Results keep the order of jobs. onDone,
// when set, is called from worker goroutines as each job finishes.
// Failed downloads are reported in their result and never retried.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job, dir string, onDone func(*DownloadResult)) []*DownloadResult {
	results := make([]*DownloadResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(wp.concurrency)

	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := wp.downloader.Download(ctx, job, dir)
			results[i] = res
			if !res.Success {
				log.Warn().Err(res.Error).Str("url", job.URL).Msg("Image download failed")
			}
			if onDone != nil {
				onDone(res)
			}
			// Failures stay in their result and never stop the other downloads
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for i, r := range results {
		if r == nil {
			results[i] = &DownloadResult{Job: jobs[i], Error: ctx.Err()}
			continue
		}
		if r.Success {
			succeeded++
		}
	}
	log.Info().Int("total", len(jobs)).Int("succeeded", succeeded).Msg("Image downloads finished")

	return results
}
