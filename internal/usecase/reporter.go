package usecase

import (
	"fmt"
	"io"
	"log"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/release-stats/internal/domain"
	"github.com/naka-gawa/release-stats/internal/storage"
)

// Reporter summarizes persisted histories without touching the network.
type Reporter struct {
	store  *storage.Store
	logger *log.Logger
	out    io.Writer
}

// RepoReport is the per-repository summary printed by the report command.
// Growth figures are computed over deltas between consecutive download
// snapshots; clone-seeded entries are excluded from the math.
type RepoReport struct {
	Repo         domain.Repository
	Snapshots    int
	Seeded       int
	LatestDate   string
	LatestTotal  int
	Delta        int
	MeanGrowth   float64
	MedianGrowth float64
	MaxGrowth    float64
}

// NewReporter creates a new Reporter instance.
func NewReporter(store *storage.Store, logger *log.Logger, out io.Writer) *Reporter {
	return &Reporter{store: store, logger: logger, out: out}
}

// Report prints a summary for each configured repository. Repositories
// whose history is missing or corrupt are reported and skipped.
func (r *Reporter) Report(repos []string) {
	r.logger.Printf("Reporting on %d repositories", len(repos))
	for _, name := range repos {
		repo, err := domain.ParseRepository(name)
		if err != nil {
			fmt.Fprintf(r.out, "Skipping %q: %v\n", name, err)
			continue
		}
		history, err := r.store.Load(repo)
		if err != nil {
			fmt.Fprintf(r.out, "Skipping %s: %v\n", repo, err)
			continue
		}
		if len(history) == 0 {
			fmt.Fprintf(r.out, "%s: no history recorded yet\n", repo)
			continue
		}
		report := buildReport(repo, history)
		fmt.Fprintf(r.out, "%s: %d downloads as of %s (%d snapshots",
			report.Repo, report.LatestTotal, report.LatestDate, report.Snapshots)
		if report.Seeded > 0 {
			fmt.Fprintf(r.out, ", %d clone-seeded", report.Seeded)
		}
		fmt.Fprintln(r.out, ")")
		if report.Snapshots-report.Seeded >= 2 {
			fmt.Fprintf(r.out, "  growth: %+d since previous snapshot, mean %.1f, median %.1f, max %.0f per snapshot\n",
				report.Delta, report.MeanGrowth, report.MedianGrowth, report.MaxGrowth)
		}
	}
}

func buildReport(repo domain.Repository, history []domain.Snapshot) RepoReport {
	report := RepoReport{Repo: repo, Snapshots: len(history)}

	var downloads []domain.Snapshot
	for _, snapshot := range history {
		if snapshot.IsCloneSeed() {
			report.Seeded++
			continue
		}
		downloads = append(downloads, snapshot)
	}
	if len(downloads) == 0 {
		return report
	}

	latest := downloads[len(downloads)-1]
	report.LatestDate = latest.Date
	report.LatestTotal = latest.Total
	if len(downloads) < 2 {
		return report
	}
	report.Delta = latest.Total - downloads[len(downloads)-2].Total

	growth := make(stats.Float64Data, 0, len(downloads)-1)
	for i := 1; i < len(downloads); i++ {
		growth = append(growth, float64(downloads[i].Total-downloads[i-1].Total))
	}
	report.MeanGrowth, _ = stats.Mean(growth)
	report.MedianGrowth, _ = stats.Median(growth)
	report.MaxGrowth, _ = stats.Max(growth)
	return report
}
