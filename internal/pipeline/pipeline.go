package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jdhoffa/lookout-g/internal/ics"
	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/metrics"
	"github.com/jdhoffa/lookout-g/internal/publish"
)

// FeedFetcher retrieves raw feed bytes.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed ics.Feed) (ics.FetchResult, error)
}

// Runner executes one fetch, normalize and publish cycle.
type Runner struct {
	Fetcher   FeedFetcher
	Filter    ics.Filter
	Publisher publish.Publisher
}

// Report summarizes a completed cycle.
type Report struct {
	Feed        ics.Feed
	StartedAt   time.Time
	FromCache   bool
	Result      *ics.Result
	Receipts    []publish.Receipt
	PublishedBy string
}

// Run fetches feed and publishes the retained events. Fetch and publisher
// failures abort the cycle; everything the engine reports is non-fatal and
// returned in the report.
func (r *Runner) Run(ctx context.Context, feed ics.Feed) (*Report, error) {
	started := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(started).Seconds()) }()

	fetched, err := r.Fetcher.Fetch(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	res, err := ics.Normalize(bytes.NewReader(fetched.Body), r.Filter)
	if err != nil {
		return nil, fmt.Errorf("normalize feed: %w", err)
	}

	rep := &Report{
		Feed:        feed,
		StartedAt:   started,
		FromCache:   fetched.FromCache,
		Result:      res,
		PublishedBy: r.Publisher.Name(),
	}

	rep.Receipts, err = r.Publisher.Publish(ctx, res.Events)
	if err != nil {
		return rep, fmt.Errorf("publish via %s: %w", r.Publisher.Name(), err)
	}

	appLog.Info("cycle completed",
		"feed", feed.ID,
		"publisher", rep.PublishedBy,
		"events", len(res.Events),
		"failed", publish.Failed(rep.Receipts),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	metrics.LastSuccess.SetToCurrentTime()
	return rep, nil
}
