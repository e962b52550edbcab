package sources

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"

	"call-insights-go/internal/types"
)

// Feed reads the audio enclosures of an RSS or Atom feed. Location may be a
// URL or a local file.
type Feed struct {
	Location string
	parser   *gofeed.Parser
}

func NewFeed(location string) *Feed {
	return &Feed{Location: location, parser: gofeed.NewParser()}
}

func (f *Feed) Enumerate(ctx context.Context) ([]types.Source, error) {
	var (
		feed *gofeed.Feed
		err  error
	)
	if isHTTP(f.Location) {
		feed, err = f.parser.ParseURLWithContext(f.Location, ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: parse feed %s: %w", types.ErrFetch, f.Location, err)
		}
	} else {
		fh, oerr := os.Open(f.Location)
		if oerr != nil {
			return nil, fmt.Errorf("%w: open feed: %w", types.ErrConfiguration, oerr)
		}
		defer fh.Close()
		feed, err = f.parser.Parse(fh)
		if err != nil {
			// unparseable feed file counts as empty input
			return nil, nil
		}
	}
	if feed == nil {
		return nil, nil
	}

	var out []types.Source
	for _, item := range feed.Items {
		loc := enclosureURL(item)
		if loc == "" {
			continue
		}
		out = append(out, NewSource(loc, types.SourceURL, strings.TrimSpace(item.Title)))
	}
	return out, nil
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "audio/") || hasAudioExt(enc.URL) {
			return enc.URL
		}
	}
	if item.Link != "" && hasAudioExt(item.Link) {
		return item.Link
	}
	return ""
}
