package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"call-insights-go/internal/types"
)

// Page collects audio links from an HTML index page.
type Page struct {
	URL    string
	Client *http.Client
}

func (p Page) Enumerate(ctx context.Context) ([]types.Source, error) {
	base, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: page url: %w", types.ErrConfiguration, err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: page request: %w", types.ErrConfiguration, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch page: %w", types.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch page: unexpected status code: %d", types.ErrFetch, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil
	}
	return ExtractAudioLinks(doc, base), nil
}

// ExtractAudioLinks returns absolute audio links from a, audio and source
// elements in document order, skipping repeats on the same page.
func ExtractAudioLinks(doc *goquery.Document, base *url.URL) []types.Source {
	var out []types.Source
	seen := map[string]bool{}
	doc.Find("a[href], audio[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("href")
		if !ok {
			ref, ok = s.Attr("src")
		}
		ref = strings.TrimSpace(ref)
		if !ok || ref == "" || !hasAudioExt(ref) {
			return
		}
		u, err := base.Parse(ref)
		if err != nil {
			return
		}
		loc := u.String()
		if seen[loc] {
			return
		}
		seen[loc] = true
		out = append(out, NewSource(loc, types.SourceURL, strings.TrimSpace(s.Text())))
	})
	return out
}
