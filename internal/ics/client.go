package ics

import (
	"context"
	"fmt"
	"time"

	"weeklybrief/internal/model"
)

// Client is the calendar source adapter: it fetches, parses and expands all
// configured ICS subscriptions into per-calendar event lists ready for
// aggregation.
type Client struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location
}

// NewClient builds a Client over the given sources, normalizing event times
// into loc.
func NewClient(sources []Source, cacheDir string, loc *time.Location) *Client {
	return &Client{
		fetcher: NewFetcher(cacheDir),
		sources: sources,
		loc:     loc,
	}
}

// FetchEvents returns the raw event list per calendar ID for the given
// window. Per-source failures (fetch, parse) are reported in the error
// slice and that calendar is simply absent from the map.
func (c *Client) FetchEvents(ctx context.Context, windowStart, windowEnd time.Time) (map[string][]model.Event, []error) {
	results, errs := c.fetcher.FetchAll(ctx, c.sources)

	bySource := make(map[string][]model.Event, len(results))
	for _, res := range results {
		parsed, err := Parse(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse calendar %s: %w", res.Source.ID, err))
			continue
		}

		events, err := Expand(parsed, ExpandConfig{
			DisplayLocation: c.loc,
			RangeStart:      windowStart,
			RangeEnd:        windowEnd,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expand calendar %s: %w", res.Source.ID, err))
			continue
		}

		bySource[res.Source.ID] = events
	}

	return bySource, errs
}
