// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
)

// DateLayout is the calendar-date format used for snapshot dates.
const DateLayout = "2006-01-02"

// NoExtension is the format key assigned to assets whose name contains no dot.
const NoExtension = "no-ext"

// CloneFormat is the format key used for snapshots synthesized from clone traffic.
const CloneFormat = "clones"

// HistorySchemaVersion is written into every persisted snapshot. Files
// written before the field existed carry version 0 and still load.
const HistorySchemaVersion = 1

// Repository identifies a GitHub repository by owner and name.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/name" string into a Repository.
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// FileKey is the per-repository persistence key, e.g. "owner_name".
func (r Repository) FileKey() string {
	return r.Owner + "_" + r.Name
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name          string
	DownloadCount int
}

// Release is a remote release record. It is consumed only to produce
// aggregates and is never persisted directly.
type Release struct {
	TagName string
	Assets  []Asset
}

// AssetFormat derives an asset's format key: the substring after the last
// dot in its name, lower-cased, or NoExtension when no dot is present.
func AssetFormat(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return NoExtension
	}
	return strings.ToLower(name[idx+1:])
}

// FormatCount is the summed download count for one format.
type FormatCount struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
}

// Snapshot is one day's aggregated download totals and format breakdown
// for a repository.
type Snapshot struct {
	SchemaVersion int           `json:"schema_version,omitempty"`
	Date          string        `json:"date"`
	Total         int           `json:"total"`
	Formats       []FormatCount `json:"formats"`
}

// IsCloneSeed reports whether the snapshot was synthesized from clone
// traffic rather than aggregated from release downloads.
func (s Snapshot) IsCloneSeed() bool {
	return len(s.Formats) == 1 && s.Formats[0].Extension == CloneFormat
}

// CloneStat is one day's repository clone count.
type CloneStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CloneStatus classifies the outcome of a clone-traffic fetch.
type CloneStatus int

const (
	// CloneFetchOK means clone data was retrieved.
	CloneFetchOK CloneStatus = iota
	// CloneFetchUnsupported means the repository does not expose traffic
	// data to the caller (push access is required).
	CloneFetchUnsupported
	// CloneFetchTransient means the fetch failed for a reason that might
	// not recur, e.g. a network or server error.
	CloneFetchTransient
)

// CloneTraffic is the typed best-effort result of a clone-traffic fetch.
// Clones is non-empty only when Status is CloneFetchOK.
type CloneTraffic struct {
	Status CloneStatus
	Clones []CloneStat
}
