package http

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/siteport"
)

// Ensure SitemapSource implements siteport.TargetDiscoverer.
var _ siteport.TargetDiscoverer = (*SitemapSource)(nil)

// SitemapSource expands a "sitemap:" target-list entry into concrete
// page URLs. Sitemaps are found via robots.txt Sitemap: directives with
// a /sitemap.xml fallback, and <sitemapindex> documents are followed
// recursively.
type SitemapSource struct {
	client *http.Client
}

// NewSitemapSource creates a new SitemapSource. If client is nil,
// http.DefaultClient is used.
func NewSitemapSource(client *http.Client) *SitemapSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapSource{client: client}
}

// Discover returns every unique page URL reachable from the site's
// sitemaps, in sitemap order. A site with no discoverable sitemap
// yields an empty slice, not an error. When siteURL carries a path,
// only URLs under that path are returned, so a target line like
// "sitemap: https://www.example.com/blog/" scopes the expansion to the
// blog section.
func (s *SitemapSource) Discover(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, siteport.Errorf(siteport.EINVALID, "invalid sitemap target %q", siteURL)
	}

	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}

	root := *base
	root.Path = ""
	root.RawQuery = ""

	sitemaps, err := s.sitemapURLs(ctx, &root)
	if err != nil {
		return nil, err
	}

	var pages []string
	seenSitemaps := make(map[string]bool)
	seenPages := make(map[string]bool)
	for _, sm := range sitemaps {
		urls, err := s.expand(ctx, sm, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if seenPages[u] {
				continue
			}
			seenPages[u] = true
			if pathPrefix != "" && !underPath(u, pathPrefix) {
				continue
			}
			pages = append(pages, u)
		}
	}
	if pages == nil {
		pages = []string{}
	}
	return pages, nil
}

// sitemapURLs finds the site's sitemap locations, preferring robots.txt
// Sitemap: directives over the conventional /sitemap.xml location.
func (s *SitemapSource) sitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	if directives, err := s.robotsSitemaps(ctx, robots.String()); err == nil && len(directives) > 0 {
		return directives, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fallback.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return []string{fallback.String()}, nil
	}
	return nil, nil
}

// robotsSitemaps extracts Sitemap: directives from a robots.txt file.
func (s *SitemapSource) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, siteport.Errorf(siteport.ENOTFOUND, "no robots.txt at %s", robotsURL)
	}

	var sitemaps []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if loc := strings.TrimSpace(line[len("sitemap:"):]); loc != "" {
			sitemaps = append(sitemaps, loc)
		}
	}
	return sitemaps, scanner.Err()
}

// expand fetches one sitemap document and returns its page URLs,
// recursing into sitemap indexes. Each sitemap is processed at most
// once regardless of how many indexes reference it.
func (s *SitemapSource) expand(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "fetching sitemap %s: %v", sitemapURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "HTTP %d for sitemap %s", resp.StatusCode, sitemapURL)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, siteport.Errorf(siteport.EINVALID, "parsing sitemap %s: %v", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, siteport.Errorf(siteport.EINVALID, "empty sitemap document at %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var all []string
		for _, child := range root.SelectElements("sitemap") {
			loc := child.SelectElement("loc")
			if loc == nil {
				continue
			}
			nested := strings.TrimSpace(loc.Text())
			if nested == "" {
				continue
			}
			urls, err := s.expand(ctx, nested, seen)
			if err != nil {
				return nil, err
			}
			all = append(all, urls...)
		}
		return all, nil
	}

	var urls []string
	for _, entry := range root.SelectElements("url") {
		loc := entry.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// underPath reports whether a URL's path falls under the given prefix,
// respecting segment boundaries.
func underPath(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path, prefix) ||
		parsed.Path+"/" == prefix
}
