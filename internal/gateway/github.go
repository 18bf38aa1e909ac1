// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST client.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/release-stats/internal/domain"
)

// releasePageSize is the fixed per_page value for release pagination.
const releasePageSize = 100

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// FetchReleases returns every release of the repository, in the
	// remote pagination order.
	FetchReleases(ctx context.Context, owner, repo string) ([]domain.Release, error)
	// FetchClones is best-effort: it never fails outward, but reports via
	// the result's Status why no data is available.
	FetchClones(ctx context.Context, owner, repo string) domain.CloneTraffic
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	client *github.Client
	logger *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The token may be empty, in which case requests go out unauthenticated and
// are subject to the lower anonymous rate limit.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{Transport: rateLimitWaiter}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		}
	}
	return &GitHubGateway{
		client: github.NewClient(httpClient),
		logger: logger,
	}, nil
}

// FetchReleases pages through the repository's releases, 100 at a time,
// stopping on an empty page or a page shorter than the page size.
func (g *GitHubGateway) FetchReleases(ctx context.Context, owner, repo string) ([]domain.Release, error) {
	opts := &github.ListOptions{PerPage: releasePageSize, Page: 1}
	var releases []domain.Release
	for {
		page, _, err := g.client.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases for %s/%s: %w", owner, repo, err)
		}
		if len(page) == 0 {
			break
		}
		for _, rel := range page {
			release := domain.Release{TagName: rel.GetTagName()}
			for _, asset := range rel.Assets {
				release.Assets = append(release.Assets, domain.Asset{
					Name:          asset.GetName(),
					DownloadCount: asset.GetDownloadCount(),
				})
			}
			releases = append(releases, release)
		}
		g.logger.Printf("  Fetched %d releases (page %d)", len(page), opts.Page)
		if len(page) < releasePageSize {
			break
		}
		opts.Page++
	}
	return releases, nil
}

// FetchClones retrieves the per-day clone counts the platform keeps for
// roughly the last two weeks. Traffic data requires push access, so a
// refusal is an expected outcome, not a hard failure.
func (g *GitHubGateway) FetchClones(ctx context.Context, owner, repo string) domain.CloneTraffic {
	traffic, _, err := g.client.Repositories.ListTrafficClones(ctx, owner, repo, &github.TrafficBreakdownOptions{Per: "day"})
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) {
			code := errResp.Response.StatusCode
			if code == http.StatusForbidden || code == http.StatusNotFound {
				g.logger.Printf("  Clone traffic is not available for %s/%s (HTTP %d, push access required)", owner, repo, code)
				return domain.CloneTraffic{Status: domain.CloneFetchUnsupported}
			}
		}
		g.logger.Printf("  Clone traffic fetch failed for %s/%s: %v", owner, repo, err)
		return domain.CloneTraffic{Status: domain.CloneFetchTransient}
	}
	clones := make([]domain.CloneStat, 0, len(traffic.Clones))
	for _, c := range traffic.Clones {
		clones = append(clones, domain.CloneStat{
			Date:  c.GetTimestamp().Format(domain.DateLayout),
			Count: c.GetCount(),
		})
	}
	g.logger.Printf("  Fetched %d days of clone traffic for %s/%s", len(clones), owner, repo)
	return domain.CloneTraffic{Status: domain.CloneFetchOK, Clones: clones}
}
