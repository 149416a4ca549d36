package fs

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/fwojciec/siteport"
)

// TargetList is the parsed target file: concrete page targets plus
// sitemap references awaiting expansion.
type TargetList struct {
	Targets  []*siteport.ScrapeTarget
	Sitemaps []string
}

// ParseTargets reads a target list. One entry per line:
//
//	https://www.example.com/blog/post        # classifier decides
//	https://www.example.com/about-us page    # explicit kind
//	sitemap: https://www.example.com/blog/   # expand via sitemaps
//
// Blank lines and lines starting with # or // are skipped, and
// duplicate URLs keep their first occurrence.
func ParseTargets(r io.Reader) (*TargetList, error) {
	list := &TargetList{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}

		if rest, ok := strings.CutPrefix(strings.ToLower(text), "sitemap:"); ok {
			// Re-slice the original text to preserve URL case.
			ref := strings.TrimSpace(text[len(text)-len(rest):])
			if ref == "" {
				return nil, siteport.Errorf(siteport.EINVALID, "line %d: sitemap entry missing URL", line)
			}
			if !seen[ref] {
				seen[ref] = true
				list.Sitemaps = append(list.Sitemaps, ref)
			}
			continue
		}

		fields := strings.Fields(text)
		target := &siteport.ScrapeTarget{URL: fields[0]}
		if len(fields) > 1 {
			kind, ok := siteport.ParseKind(fields[1])
			if !ok {
				return nil, siteport.Errorf(siteport.EINVALID, "line %d: unknown kind %q", line, fields[1])
			}
			target.ExplicitKind = kind
		}
		if err := target.Validate(); err != nil {
			return nil, siteport.Errorf(siteport.EINVALID, "line %d: %s", line, siteport.ErrorMessage(err))
		}
		if !seen[target.URL] {
			seen[target.URL] = true
			list.Targets = append(list.Targets, target)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// LoadTargetFile parses the target list at path.
func LoadTargetFile(path string) (*TargetList, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, siteport.Errorf(siteport.ENOTFOUND, "target file %s not found", path)
		}
		return nil, err
	}
	defer f.Close()
	return ParseTargets(f)
}
