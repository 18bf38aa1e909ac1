// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"

	"github.com/naka-gawa/release-stats/internal/domain"
)

// BuildSnapshot tallies download counts across every asset of every release
// and groups them by format for the given date.
// Formats are ordered by count descending; groups with equal counts keep
// their first-encounter order from the left-to-right scan of the releases.
func BuildSnapshot(date string, releases []domain.Release) domain.Snapshot {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, release := range releases {
		for _, asset := range release.Assets {
			format := domain.AssetFormat(asset.Name)
			if _, seen := counts[format]; !seen {
				order = append(order, format)
			}
			counts[format] += asset.DownloadCount
			total += asset.DownloadCount
		}
	}

	formats := make([]domain.FormatCount, 0, len(order))
	for _, format := range order {
		formats = append(formats, domain.FormatCount{Extension: format, Count: counts[format]})
	}
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Count > formats[j].Count
	})

	return domain.Snapshot{
		SchemaVersion: domain.HistorySchemaVersion,
		Date:          date,
		Total:         total,
		Formats:       formats,
	}
}
