package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/naka-gawa/release-stats/internal/domain"
	"github.com/naka-gawa/release-stats/internal/gateway"
	"github.com/naka-gawa/release-stats/internal/storage"
)

// Tracker is the use case for recording daily download snapshots.
// It orchestrates fetching, aggregation and persistence per repository.
type Tracker struct {
	fetcher gateway.Fetcher
	store   *storage.Store
	logger  *log.Logger
	out     io.Writer
	now     func() time.Time
}

// TrackResult summarizes one tracking run.
type TrackResult struct {
	Processed      int
	Failed         int
	TotalDownloads int
}

// NewTracker creates a new Tracker instance. Progress lines go to out.
func NewTracker(fetcher gateway.Fetcher, store *storage.Store, logger *log.Logger, out io.Writer) *Tracker {
	return &Tracker{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		out:     out,
		now:     time.Now,
	}
}

// Track processes each configured "owner/name" repository in order,
// strictly sequentially. A failure in one repository is logged and does not
// stop the remaining repositories.
func (t *Tracker) Track(ctx context.Context, repos []string) TrackResult {
	var result TrackResult
	for _, name := range repos {
		repo, err := domain.ParseRepository(name)
		if err != nil {
			fmt.Fprintf(t.out, "Error processing %q: %v\n", name, err)
			result.Failed++
			continue
		}
		total, err := t.trackRepository(ctx, repo)
		if err != nil {
			fmt.Fprintf(t.out, "Error processing %s: %v\n", repo, err)
			result.Failed++
			continue
		}
		result.Processed++
		result.TotalDownloads += total
	}
	fmt.Fprintf(t.out, "Done: %d repositories processed, %d failed, %d downloads in total.\n",
		result.Processed, result.Failed, result.TotalDownloads)
	return result
}

func (t *Tracker) trackRepository(ctx context.Context, repo domain.Repository) (int, error) {
	fmt.Fprintf(t.out, "Processing %s...\n", repo)

	history, err := t.store.Load(repo)
	if err != nil {
		return 0, err
	}

	releases, err := t.fetcher.FetchReleases(ctx, repo.Owner, repo.Name)
	if err != nil {
		return 0, err
	}
	snapshot := BuildSnapshot(t.now().UTC().Format(domain.DateLayout), releases)

	// Clone traffic is only worth fetching once, to seed a brand-new history.
	var clones []domain.CloneStat
	if len(history) == 0 {
		traffic := t.fetcher.FetchClones(ctx, repo.Owner, repo.Name)
		if traffic.Status == domain.CloneFetchOK {
			clones = traffic.Clones
			t.logger.Printf("  Seeding %d clone snapshots for %s", len(clones), repo)
		}
	}

	history = storage.Upsert(history, snapshot, clones)
	if err := t.store.Save(repo, history); err != nil {
		return 0, err
	}

	fmt.Fprintf(t.out, "  %s: %d downloads across %d formats\n",
		snapshot.Date, snapshot.Total, len(snapshot.Formats))
	return snapshot.Total, nil
}
