package library

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// maxFetchWorkers bounds concurrent metadata fetches of one AddLinks call.
	maxFetchWorkers = 4
	fetchTimeout    = 30 * time.Second
)

// AddResult reports what AddLinks did with each link.
type AddResult struct {
	Added   []string          `json:"added"`
	Skipped []string          `json:"skipped"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// AddLinks resolves links with fetcher and adds the videos to p in link
// order. Links already stored are skipped without fetching.
func AddLinks(ctx context.Context, p *Playlist, fetcher MetadataFetcher, links []string) AddResult {
	res := AddResult{Added: []string{}, Skipped: []string{}}
	videos := make([]*Video, len(links))
	errs := make([]error, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchWorkers)
	for i, link := range links {
		if p.ContainsURL(link) {
			continue
		}
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, fetchTimeout)
			defer cancel()
			videos[i], errs[i] = fetcher.Fetch(fctx, link)
			return nil
		})
	}
	_ = g.Wait()

	for i, link := range links {
		switch {
		case errs[i] != nil:
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			msg := errs[i].Error()
			if errors.Is(errs[i], ErrUnsupportedLink) {
				msg = ErrUnsupportedLink.Error()
			} else {
				p.t.log.Warn("Failed to fetch %s: %v", link, errs[i])
			}
			res.Errors[link] = msg
		case videos[i] != nil && p.AddVideo(videos[i]):
			res.Added = append(res.Added, link)
		default:
			res.Skipped = append(res.Skipped, link)
		}
	}
	return res
}
