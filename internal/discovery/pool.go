package discovery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

// DefaultWorkers is the default width of the discovery pool.
const DefaultWorkers = 3

// DiscoverAll runs d over chapters with at most workers discoveries in
// flight and returns the chapters whose discovery failed, in input order.
// Chapters not yet started when ctx ends count as failed.
func DiscoverAll(ctx context.Context, d Discoverer, chapters []*model.Chapter, workers int, log zerolog.Logger) ([]*model.Chapter, error) {
	pool, err := workerpool.New(workers, log)
	if err != nil {
		return nil, err
	}

	ok := make([]bool, len(chapters))
	pool.Run(ctx, len(chapters), func(ctx context.Context, i int) {
		if ctx.Err() != nil {
			return
		}
		ok[i] = d.Discover(ctx, chapters[i])
	})

	var failed []*model.Chapter
	for i, ch := range chapters {
		if !ok[i] {
			failed = append(failed, ch)
		}
	}
	log.Info().
		Int("chapters", len(chapters)).
		Int("failed", len(failed)).
		Msg("discovery finished")
	return failed, nil
}
