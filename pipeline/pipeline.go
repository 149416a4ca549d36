// Package pipeline orchestrates the four migration stages: capture,
// asset download, sanitization, and export. Stages run sequentially
// and communicate only through the stores, so each stage can be re-run
// on its own.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/siteport"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline wires the stage implementations together. Dependency fields
// are exported; the caller sets the ones the run needs and leaves the
// rest nil (a nil Discoverer only matters when the target list carries
// sitemap entries, a nil Converter or Embedder degrades that feature).
type Pipeline struct {
	Config siteport.Config

	Fetcher    siteport.Fetcher
	Discoverer siteport.TargetDiscoverer
	Scanner    siteport.ImageScanner
	Downloader siteport.Downloader
	Converter  siteport.ImageConverter
	Embedder   siteport.MetadataEmbedder
	Classifier siteport.Classifier
	Sanitizer  siteport.Sanitizer
	Builder    siteport.RecordBuilder

	Captures siteport.CaptureStore
	Assets   siteport.AssetStore
	Cleans   siteport.CleanStore
	Export   siteport.ExportWriter

	Tracker siteport.Tracker

	limiter *DomainLimiter
	runID   string
	now     func() time.Time
}

// New creates a Pipeline for the given config with a fresh run ID.
func New(cfg siteport.Config) *Pipeline {
	rps := cfg.FetchInterval
	if rps <= 0 {
		rps = 0.5
	}
	return &Pipeline{
		Config:  cfg,
		limiter: NewDomainLimiter(rps),
		runID:   uuid.NewString(),
		now:     time.Now,
	}
}

// RunID returns the identifier shared by all artifacts of this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

func (p *Pipeline) step(name string, percent int, counters map[string]int) {
	if p.Tracker != nil {
		p.Tracker.Step(name, percent, counters)
	}
}

func (p *Pipeline) log(level siteport.LogLevel, stage, message string, context map[string]any) {
	if p.Tracker != nil {
		p.Tracker.Log(level, stage, message, context)
	}
}

// Run executes all four stages. Per-item failures in the first three
// stages are recorded and tolerated; an export failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, targets []*siteport.ScrapeTarget, sitemaps []string) (*siteport.ExportSummary, error) {
	if _, err := p.Capture(ctx, targets, sitemaps); err != nil {
		return nil, err
	}
	if p.Config.ImagesEnabled {
		if _, err := p.DownloadAssets(ctx); err != nil {
			return nil, err
		}
	} else {
		p.log(siteport.LogInfo, "assets", "image pipeline disabled, skipping", nil)
	}
	if err := p.SanitizeAll(ctx); err != nil {
		return nil, err
	}
	return p.ExportAll(ctx)
}

// Capture fetches every target sequentially and persists the rendered
// HTML. Sitemap entries are expanded first and deduplicated against
// the explicit targets, which win on conflict because they may carry
// an operator-supplied kind.
func (p *Pipeline) Capture(ctx context.Context, targets []*siteport.ScrapeTarget, sitemaps []string) (*siteport.CaptureIndex, error) {
	all, err := p.expandTargets(ctx, targets, sitemaps)
	if err != nil {
		return nil, err
	}

	started := p.now()
	idx := &siteport.CaptureIndex{
		RunID:     p.runID,
		StartedAt: started,
		Documents: make(map[string]*siteport.CapturedDocument),
	}

	// A previous index lets re-runs report unchanged captures.
	prev, err := p.Captures.LoadIndex(ctx)
	if err != nil && siteport.ErrorCode(err) != siteport.ENOTFOUND {
		return nil, err
	}

	delays := DefaultRetryDelays(p.Config.FetchRetries)
	for i, target := range all {
		if err := p.limiter.WaitURL(ctx, target.URL); err != nil {
			return nil, err
		}

		url := target.URL
		res, err := Retry(ctx, delays, func(ctx context.Context) (*siteport.FetchResult, error) {
			return p.Fetcher.Fetch(ctx, url)
		}, func(attempt int, err error) {
			p.log(siteport.LogWarn, "capture", "retrying fetch", map[string]any{
				"url": url, "attempt": attempt, "err": err.Error(),
			})
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			idx.Failed++
			idx.Failures = append(idx.Failures, siteport.CaptureFailure{
				URL:    url,
				Reason: siteport.ErrorMessage(err),
			})
			p.log(siteport.LogError, "capture", "fetch failed after retries", map[string]any{
				"url": url, "err": err.Error(),
			})
			continue
		}

		doc := &siteport.CapturedDocument{
			SourceKey:    siteport.SourceKey(url),
			SourceURL:    url,
			RawHTML:      res.HTML,
			ContentHash:  xxhash.Sum64String(res.HTML),
			HTTPStatus:   res.HTTPStatus,
			CapturedAt:   p.now(),
			ExplicitKind: target.ExplicitKind,
		}
		if prev != nil {
			if old, ok := prev.Documents[doc.SourceKey]; ok && old.ContentHash == doc.ContentHash {
				p.log(siteport.LogDebug, "capture", "content unchanged since last run", map[string]any{
					"sourceKey": doc.SourceKey,
				})
			}
		}
		if err := p.Captures.SaveDocument(ctx, doc); err != nil {
			return nil, err
		}
		idx.Successful++
		idx.Documents[doc.SourceKey] = doc

		p.step("capture", (i+1)*100/len(all), map[string]int{
			"ok": idx.Successful, "failed": idx.Failed,
		})
	}

	idx.Duration = p.now().Sub(started)
	if err := p.Captures.SaveIndex(ctx, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// expandTargets merges explicit targets with sitemap expansions,
// first occurrence winning.
func (p *Pipeline) expandTargets(ctx context.Context, targets []*siteport.ScrapeTarget, sitemaps []string) ([]*siteport.ScrapeTarget, error) {
	seen := make(map[string]bool, len(targets))
	all := make([]*siteport.ScrapeTarget, 0, len(targets))
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if !seen[t.URL] {
			seen[t.URL] = true
			all = append(all, t)
		}
	}

	if len(sitemaps) > 0 && p.Discoverer == nil {
		return nil, siteport.Errorf(siteport.EINVALID, "target list has sitemap entries but no discoverer is configured")
	}
	for _, ref := range sitemaps {
		urls, err := p.Discoverer.Discover(ctx, ref)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if !seen[u] {
				seen[u] = true
				all = append(all, &siteport.ScrapeTarget{URL: u})
			}
		}
	}

	if len(all) == 0 {
		return nil, siteport.Errorf(siteport.EINVALID, "no targets to capture")
	}
	return all, nil
}

// DownloadAssets scans every captured document for image references,
// deduplicates them by normalized URL, and downloads each unique image
// at most once, in fixed-size concurrent batches. Failures are
// recorded in the manifest, never fatal.
func (p *Pipeline) DownloadAssets(ctx context.Context) (*siteport.AssetManifest, error) {
	docs, err := p.Captures.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}

	started := p.now()
	m := &siteport.AssetManifest{
		RunID:     p.runID,
		StartedAt: started,
		Images:    make(map[string]*siteport.ImageAsset),
	}

	refs := p.collectRefs(docs, m)

	// The previous manifest records the names actually written, which
	// differ from the predicted names when the downloader corrected an
	// extension from the response content type. Without it a renamed
	// asset would be re-fetched on every run.
	prev, err := p.Assets.LoadManifest(ctx)
	if err != nil && siteport.ErrorCode(err) != siteport.ENOTFOUND {
		return nil, err
	}

	batchSize := p.Config.AssetConcurrency
	if batchSize <= 0 {
		batchSize = 5
	}
	delays := DefaultRetryDelays(p.Config.AssetRetries)

	var mu sync.Mutex
	done := 0
	for start := 0; start < len(refs); start += batchSize {
		end := min(start+batchSize, len(refs))

		g, gctx := errgroup.WithContext(ctx)
		for _, ref := range refs[start:end] {
			g.Go(func() error {
				asset, err := p.fetchAsset(gctx, ref, prev, delays)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					m.Errors = append(m.Errors, siteport.AssetError{
						NormalizedURL: ref.NormalizedURL,
						SourceKey:     ref.SourceKey,
						Reason:        siteport.ErrorMessage(err),
					})
					return nil
				}
				if asset.ByteSize == 0 {
					m.Skipped++
				} else {
					m.Downloaded++
				}
				m.Images[ref.NormalizedURL] = asset
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		done = end
		p.step("assets", done*100/len(refs), map[string]int{
			"downloaded": m.Downloaded, "skipped": m.Skipped,
			"dropped": m.Dropped, "failed": len(m.Errors),
		})
	}

	m.Duration = p.now().Sub(started)
	if err := p.Assets.SaveManifest(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// collectRefs scans all documents and returns the unique kept
// references, first occurrence winning. Drops are counted on the
// manifest.
func (p *Pipeline) collectRefs(docs []*siteport.CapturedDocument, m *siteport.AssetManifest) []*siteport.ImageReference {
	seen := make(map[string]bool)
	var refs []*siteport.ImageReference
	for _, doc := range docs {
		found, err := p.Scanner.Scan(doc)
		if err != nil {
			p.log(siteport.LogWarn, "assets", "image scan failed", map[string]any{
				"sourceKey": doc.SourceKey, "err": err.Error(),
			})
			continue
		}
		for _, ref := range found {
			if seen[ref.NormalizedURL] {
				continue
			}
			seen[ref.NormalizedURL] = true
			if !ref.Decision.Keep {
				m.Dropped++
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// fetchAsset downloads one reference, skipping files already on disk,
// then runs the optional conversion and metadata steps. The probe uses
// the name the previous run actually wrote when the manifest has one,
// so extension-corrected files still count as present.
func (p *Pipeline) fetchAsset(ctx context.Context, ref *siteport.ImageReference, prev *siteport.AssetManifest, delays []time.Duration) (*siteport.ImageAsset, error) {
	slug := siteport.ArticleSlug(ref.SourceKey + ".html")
	filename := siteport.ImageFilename(slug, ref.NormalizedURL)

	existing := filename
	var old *siteport.ImageAsset
	if prev != nil {
		if a, ok := prev.Images[ref.NormalizedURL]; ok && a.LocalFilename != "" {
			old = a
			existing = a.LocalFilename
		}
	}
	if p.Assets.Exists(existing) {
		asset := &siteport.ImageAsset{
			NormalizedURL: ref.NormalizedURL,
			LocalFilename: existing,
			ArticleSlug:   slug,
			SourceKey:     ref.SourceKey,
			AltText:       ref.AltText,
		}
		if old != nil {
			asset.Format = old.Format
			asset.FormatConverted = old.FormatConverted
			asset.MetadataEmbedded = old.MetadataEmbedded
		}
		return asset, nil
	}

	if err := p.limiter.WaitURL(ctx, ref.NormalizedURL); err != nil {
		return nil, err
	}
	asset, err := Retry(ctx, delays, func(ctx context.Context) (*siteport.ImageAsset, error) {
		return p.Downloader.Download(ctx, ref, p.Assets.Dir(), filename)
	}, func(attempt int, err error) {
		p.log(siteport.LogWarn, "assets", "retrying download", map[string]any{
			"url": ref.NormalizedURL, "attempt": attempt, "err": err.Error(),
		})
	})
	if err != nil {
		return nil, err
	}
	asset.ArticleSlug = slug

	if strings.EqualFold(asset.Format, "avif") && p.Converter != nil && p.Converter.Available() {
		newPath, err := p.Converter.ConvertToJPEG(ctx, filepath.Join(p.Assets.Dir(), asset.LocalFilename))
		if err != nil {
			p.log(siteport.LogWarn, "assets", "conversion failed, keeping original", map[string]any{
				"file": asset.LocalFilename, "err": err.Error(),
			})
		} else {
			asset.LocalFilename = filepath.Base(newPath)
			asset.Format = "jpg"
			asset.FormatConverted = true
		}
	}

	if asset.AltText != "" && p.Embedder != nil && p.Embedder.Available() {
		if err := p.Embedder.Embed(ctx, filepath.Join(p.Assets.Dir(), asset.LocalFilename), asset.AltText); err != nil {
			p.log(siteport.LogDebug, "assets", "metadata embed failed", map[string]any{
				"file": asset.LocalFilename, "err": err.Error(),
			})
		} else {
			asset.MetadataEmbedded = true
		}
	}
	return asset, nil
}

// SanitizeAll classifies and sanitizes every captured document.
// Classification runs on the captured markup before any destructive
// cleaning. Per-document failures are logged and skipped.
func (p *Pipeline) SanitizeAll(ctx context.Context) error {
	docs, err := p.Captures.LoadDocuments(ctx)
	if err != nil {
		return err
	}

	var manifest *siteport.AssetManifest
	if p.Config.ImagesEnabled {
		manifest, err = p.Assets.LoadManifest(ctx)
		if err != nil && siteport.ErrorCode(err) != siteport.ENOTFOUND {
			return err
		}
	}

	posts, pages, failed := 0, 0, 0
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		class, err := p.Classifier.Classify(doc)
		if err != nil {
			failed++
			p.log(siteport.LogError, "sanitize", "classification failed", map[string]any{
				"sourceKey": doc.SourceKey, "err": err.Error(),
			})
			continue
		}
		cleaned, err := p.Sanitizer.Sanitize(doc, class, manifest)
		if err != nil {
			failed++
			p.log(siteport.LogError, "sanitize", "sanitization failed", map[string]any{
				"sourceKey": doc.SourceKey, "err": err.Error(),
			})
			continue
		}
		if err := p.Cleans.SaveDocument(ctx, cleaned); err != nil {
			return err
		}

		switch cleaned.Kind {
		case siteport.KindPost:
			posts++
		case siteport.KindPage:
			pages++
		}
		p.step("sanitize", (i+1)*100/len(docs), map[string]int{
			"posts": posts, "pages": pages, "failed": failed,
		})
	}
	return nil
}

// ExportAll builds one record per sanitized document, in source-key
// order, and writes the import file. Unlike the earlier stages, any
// failure here is fatal: a partial import file is worse than none.
func (p *Pipeline) ExportAll(ctx context.Context) (*siteport.ExportSummary, error) {
	captured, err := p.Captures.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*siteport.CapturedDocument, len(captured))
	for _, doc := range captured {
		byKey[doc.SourceKey] = doc
	}

	cleaned, err := p.Cleans.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}

	now := p.now()
	records := make([]*siteport.ExportRecord, 0, len(cleaned))
	for _, doc := range cleaned {
		source, ok := byKey[doc.SourceKey]
		if !ok {
			return nil, siteport.Errorf(siteport.EINTERNAL, "sanitized document %q has no capture", doc.SourceKey)
		}
		rec, err := p.Builder.Build(source, doc, now)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	summary, err := p.Export.Write(ctx, records)
	if err != nil {
		return nil, err
	}
	p.step("export", 100, map[string]int{
		"posts": summary.Posts, "pages": summary.Pages,
	})
	return summary, nil
}
