package pipeline_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/siteport"
	"github.com/fwojciec/siteport/mock"
	"github.com/fwojciec/siteport/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCaptures is an in-memory CaptureStore for orchestration tests.
type memCaptures struct {
	mu   sync.Mutex
	docs map[string]*siteport.CapturedDocument
	idx  *siteport.CaptureIndex
}

func newMemCaptures() *memCaptures {
	return &memCaptures{docs: make(map[string]*siteport.CapturedDocument)}
}

func (s *memCaptures) SaveDocument(ctx context.Context, doc *siteport.CapturedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.SourceKey] = doc
	return nil
}

func (s *memCaptures) SaveIndex(ctx context.Context, idx *siteport.CaptureIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx
	return nil
}

func (s *memCaptures) LoadDocuments(ctx context.Context) ([]*siteport.CapturedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	docs := make([]*siteport.CapturedDocument, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, s.docs[k])
	}
	return docs, nil
}

func (s *memCaptures) LoadIndex(ctx context.Context) (*siteport.CaptureIndex, error) {
	if s.idx == nil {
		return nil, siteport.Errorf(siteport.ENOTFOUND, "no index")
	}
	return s.idx, nil
}

func noManifest(context.Context) (*siteport.AssetManifest, error) {
	return nil, siteport.Errorf(siteport.ENOTFOUND, "no manifest")
}

func testConfig() siteport.Config {
	cfg := siteport.DefaultConfig()
	cfg.FetchInterval = 1000 // no politeness waits in tests
	cfg.FetchRetries = 0
	cfg.AssetRetries = 0
	return cfg
}

func TestPipeline_Capture(t *testing.T) {
	t.Parallel()

	t.Run("captures targets and records failures", func(t *testing.T) {
		t.Parallel()

		captures := newMemCaptures()
		p := pipeline.New(testConfig())
		p.Captures = captures
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*siteport.FetchResult, error) {
				if url == "https://www.example.com/broken" {
					return nil, errors.New("timeout")
				}
				return &siteport.FetchResult{
					HTML:       "<article>content for " + url + "</article>",
					HTTPStatus: 200,
				}, nil
			},
		}

		idx, err := p.Capture(context.Background(), []*siteport.ScrapeTarget{
			{URL: "https://www.example.com/blog/first-post"},
			{URL: "https://www.example.com/broken"},
			{URL: "https://www.example.com/about-us", ExplicitKind: siteport.KindPage},
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, idx.Successful)
		assert.Equal(t, 1, idx.Failed)
		require.Len(t, idx.Failures, 1)
		assert.Equal(t, "https://www.example.com/broken", idx.Failures[0].URL)

		doc := idx.Documents["www.example.com_about-us"]
		require.NotNil(t, doc)
		assert.Equal(t, siteport.KindPage, doc.ExplicitKind)
		assert.NotZero(t, doc.ContentHash)
		assert.Equal(t, 200, doc.HTTPStatus)

		// Index was persisted.
		saved, err := captures.LoadIndex(context.Background())
		require.NoError(t, err)
		assert.Equal(t, idx.Successful, saved.Successful)
	})

	t.Run("records the navigation status from the fetch", func(t *testing.T) {
		t.Parallel()

		p := pipeline.New(testConfig())
		p.Captures = newMemCaptures()
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*siteport.FetchResult, error) {
				return &siteport.FetchResult{HTML: "<h1>Not Found</h1>", HTTPStatus: 404}, nil
			},
		}

		idx, err := p.Capture(context.Background(), []*siteport.ScrapeTarget{
			{URL: "https://www.example.com/gone"},
		}, nil)
		require.NoError(t, err)

		doc := idx.Documents["www.example.com_gone"]
		require.NotNil(t, doc)
		assert.Equal(t, 404, doc.HTTPStatus)
	})

	t.Run("expands sitemap entries and deduplicates against targets", func(t *testing.T) {
		t.Parallel()

		var fetched []string
		var mu sync.Mutex
		p := pipeline.New(testConfig())
		p.Captures = newMemCaptures()
		p.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*siteport.FetchResult, error) {
				mu.Lock()
				fetched = append(fetched, url)
				mu.Unlock()
				return &siteport.FetchResult{HTML: "<p>x</p>", HTTPStatus: 200}, nil
			},
		}
		p.Discoverer = &mock.TargetDiscoverer{
			DiscoverFn: func(ctx context.Context, siteURL string) ([]string, error) {
				return []string{
					"https://www.example.com/blog/first-post", // duplicate of explicit target
					"https://www.example.com/blog/second-post",
				}, nil
			},
		}

		idx, err := p.Capture(context.Background(), []*siteport.ScrapeTarget{
			{URL: "https://www.example.com/blog/first-post", ExplicitKind: siteport.KindPost},
		}, []string{"https://www.example.com/blog/"})
		require.NoError(t, err)

		assert.Equal(t, 2, idx.Successful)
		assert.Equal(t, []string{
			"https://www.example.com/blog/first-post",
			"https://www.example.com/blog/second-post",
		}, fetched)
		// The explicit target's kind survived deduplication.
		assert.Equal(t, siteport.KindPost, idx.Documents["www.example.com_blog_first-post"].ExplicitKind)
	})

	t.Run("empty target list is invalid", func(t *testing.T) {
		t.Parallel()

		p := pipeline.New(testConfig())
		p.Captures = newMemCaptures()
		_, err := p.Capture(context.Background(), nil, nil)
		assert.Equal(t, siteport.EINVALID, siteport.ErrorCode(err))
	})

	t.Run("sitemap entries without a discoverer are invalid", func(t *testing.T) {
		t.Parallel()

		p := pipeline.New(testConfig())
		p.Captures = newMemCaptures()
		_, err := p.Capture(context.Background(), []*siteport.ScrapeTarget{
			{URL: "https://www.example.com/a"},
		}, []string{"https://www.example.com/"})
		assert.Equal(t, siteport.EINVALID, siteport.ErrorCode(err))
	})
}

func TestPipeline_DownloadAssets(t *testing.T) {
	t.Parallel()

	capturesWith := func(t *testing.T, docs ...*siteport.CapturedDocument) *memCaptures {
		t.Helper()
		s := newMemCaptures()
		idx := &siteport.CaptureIndex{Documents: make(map[string]*siteport.CapturedDocument)}
		for _, d := range docs {
			require.NoError(t, s.SaveDocument(context.Background(), d))
			idx.Documents[d.SourceKey] = d
		}
		require.NoError(t, s.SaveIndex(context.Background(), idx))
		return s
	}

	t.Run("downloads each normalized URL once across documents", func(t *testing.T) {
		t.Parallel()

		docA := &siteport.CapturedDocument{SourceKey: "www.example.com_blog_first-post", SourceURL: "https://www.example.com/blog/first-post"}
		docB := &siteport.CapturedDocument{SourceKey: "www.example.com_blog_second-post", SourceURL: "https://www.example.com/blog/second-post"}

		shared := "https://www.example.com/img/hero.jpg"
		var mu sync.Mutex
		downloads := 0

		var saved *siteport.AssetManifest
		p := pipeline.New(testConfig())
		p.Captures = capturesWith(t, docA, docB)
		p.Scanner = &mock.ImageScanner{
			ScanFn: func(doc *siteport.CapturedDocument) ([]*siteport.ImageReference, error) {
				return []*siteport.ImageReference{
					{
						OriginURL:     shared + "?w=300",
						NormalizedURL: shared,
						SourceKey:     doc.SourceKey,
						Decision:      siteport.FilterDecision{Keep: true},
					},
					{
						OriginURL:     "https://www.example.com/img/spacer.gif",
						NormalizedURL: "https://www.example.com/img/spacer.gif",
						SourceKey:     doc.SourceKey,
						Decision:      siteport.FilterDecision{Keep: false, Reason: "tracking pixel"},
					},
				}, nil
			},
		}
		p.Downloader = &mock.Downloader{
			DownloadFn: func(ctx context.Context, ref *siteport.ImageReference, destDir, filename string) (*siteport.ImageAsset, error) {
				mu.Lock()
				downloads++
				mu.Unlock()
				return &siteport.ImageAsset{
					NormalizedURL: ref.NormalizedURL,
					LocalFilename: filename,
					SourceKey:     ref.SourceKey,
					ByteSize:      100,
					Format:        "jpg",
				}, nil
			},
		}
		p.Assets = &mock.AssetStore{
			DirFn:          func() string { return t.TempDir() },
			ExistsFn:       func(string) bool { return false },
			LoadManifestFn: noManifest,
			SaveManifestFn: func(ctx context.Context, m *siteport.AssetManifest) error {
				saved = m
				return nil
			},
		}

		m, err := p.DownloadAssets(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, downloads, "shared image downloads once")
		assert.Equal(t, 1, m.Downloaded)
		assert.Equal(t, 1, m.Dropped, "dropped URL counted once despite appearing twice")
		require.NotNil(t, m.AssetFor(shared))
		assert.Equal(t, "first-post_hero.jpg", m.AssetFor(shared).LocalFilename)
		require.NotNil(t, saved)
	})

	t.Run("existing files are skipped not re-downloaded", func(t *testing.T) {
		t.Parallel()

		doc := &siteport.CapturedDocument{SourceKey: "www.example.com_blog_first-post", SourceURL: "https://www.example.com/blog/first-post"}

		p := pipeline.New(testConfig())
		p.Captures = capturesWith(t, doc)
		p.Scanner = &mock.ImageScanner{
			ScanFn: func(*siteport.CapturedDocument) ([]*siteport.ImageReference, error) {
				return []*siteport.ImageReference{{
					NormalizedURL: "https://www.example.com/img/hero.jpg",
					SourceKey:     doc.SourceKey,
					Decision:      siteport.FilterDecision{Keep: true},
				}}, nil
			},
		}
		p.Downloader = &mock.Downloader{
			DownloadFn: func(ctx context.Context, ref *siteport.ImageReference, destDir, filename string) (*siteport.ImageAsset, error) {
				t.Fatal("download should not run for an existing file")
				return nil, nil
			},
		}
		p.Assets = &mock.AssetStore{
			DirFn:          func() string { return t.TempDir() },
			ExistsFn:       func(string) bool { return true },
			LoadManifestFn: noManifest,
			SaveManifestFn: func(context.Context, *siteport.AssetManifest) error { return nil },
		}

		m, err := p.DownloadAssets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, m.Skipped)
		assert.Equal(t, 0, m.Downloaded)
	})

	t.Run("skips assets the downloader renamed on a previous run", func(t *testing.T) {
		t.Parallel()

		// A .jpg URL that served image/png landed on disk with a .png
		// name. The predicted name never matches, so the skip probe
		// has to go through the previous manifest.
		doc := &siteport.CapturedDocument{SourceKey: "www.example.com_blog_first-post", SourceURL: "https://www.example.com/blog/first-post"}

		p := pipeline.New(testConfig())
		p.Captures = capturesWith(t, doc)
		p.Scanner = &mock.ImageScanner{
			ScanFn: func(*siteport.CapturedDocument) ([]*siteport.ImageReference, error) {
				return []*siteport.ImageReference{{
					NormalizedURL: "https://www.example.com/img/hero.jpg",
					SourceKey:     doc.SourceKey,
					Decision:      siteport.FilterDecision{Keep: true},
				}}, nil
			},
		}
		p.Downloader = &mock.Downloader{
			DownloadFn: func(context.Context, *siteport.ImageReference, string, string) (*siteport.ImageAsset, error) {
				t.Fatal("download should not run for an already-downloaded asset")
				return nil, nil
			},
		}
		p.Assets = &mock.AssetStore{
			DirFn:    func() string { return t.TempDir() },
			ExistsFn: func(filename string) bool { return filename == "first-post_hero.png" },
			LoadManifestFn: func(context.Context) (*siteport.AssetManifest, error) {
				return &siteport.AssetManifest{
					Images: map[string]*siteport.ImageAsset{
						"https://www.example.com/img/hero.jpg": {
							NormalizedURL: "https://www.example.com/img/hero.jpg",
							LocalFilename: "first-post_hero.png",
							SourceKey:     doc.SourceKey,
							Format:        "png",
						},
					},
				}, nil
			},
			SaveManifestFn: func(context.Context, *siteport.AssetManifest) error { return nil },
		}

		m, err := p.DownloadAssets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, m.Skipped)
		assert.Equal(t, 0, m.Downloaded)
		require.NotNil(t, m.AssetFor("https://www.example.com/img/hero.jpg"))
		assert.Equal(t, "first-post_hero.png", m.AssetFor("https://www.example.com/img/hero.jpg").LocalFilename)
	})

	t.Run("download failures are recorded not fatal", func(t *testing.T) {
		t.Parallel()

		doc := &siteport.CapturedDocument{SourceKey: "www.example.com_blog_first-post", SourceURL: "https://www.example.com/blog/first-post"}

		p := pipeline.New(testConfig())
		p.Captures = capturesWith(t, doc)
		p.Scanner = &mock.ImageScanner{
			ScanFn: func(*siteport.CapturedDocument) ([]*siteport.ImageReference, error) {
				return []*siteport.ImageReference{{
					NormalizedURL: "https://www.example.com/img/broken.jpg",
					SourceKey:     doc.SourceKey,
					Decision:      siteport.FilterDecision{Keep: true},
				}}, nil
			},
		}
		p.Downloader = &mock.Downloader{
			DownloadFn: func(context.Context, *siteport.ImageReference, string, string) (*siteport.ImageAsset, error) {
				return nil, siteport.Errorf(siteport.EUNAVAILABLE, "HTTP 404")
			},
		}
		p.Assets = &mock.AssetStore{
			DirFn:          func() string { return t.TempDir() },
			ExistsFn:       func(string) bool { return false },
			LoadManifestFn: noManifest,
			SaveManifestFn: func(context.Context, *siteport.AssetManifest) error { return nil },
		}

		m, err := p.DownloadAssets(context.Background())
		require.NoError(t, err)
		require.Len(t, m.Errors, 1)
		assert.Equal(t, "HTTP 404", m.Errors[0].Reason)
	})
}

func TestPipeline_SanitizeAndExport(t *testing.T) {
	t.Parallel()

	t.Run("classifies before sanitizing and exports in key order", func(t *testing.T) {
		t.Parallel()

		captures := newMemCaptures()
		docs := []*siteport.CapturedDocument{
			{SourceKey: "www.example.com_blog_zebra", SourceURL: "https://www.example.com/blog/zebra", RawHTML: "<article>z</article>"},
			{SourceKey: "www.example.com_about-us", SourceURL: "https://www.example.com/about-us", RawHTML: "<div>a</div>"},
		}
		idx := &siteport.CaptureIndex{Documents: make(map[string]*siteport.CapturedDocument)}
		for _, d := range docs {
			require.NoError(t, captures.SaveDocument(context.Background(), d))
			idx.Documents[d.SourceKey] = d
		}
		require.NoError(t, captures.SaveIndex(context.Background(), idx))

		cfg := testConfig()
		cfg.ImagesEnabled = false

		cleanDocs := make(map[string]*siteport.SanitizedDocument)
		p := pipeline.New(cfg)
		p.Captures = captures
		p.Classifier = &mock.Classifier{
			ClassifyFn: func(doc *siteport.CapturedDocument) (siteport.ContentClassification, error) {
				kind := siteport.KindPage
				if doc.SourceKey == "www.example.com_blog_zebra" {
					kind = siteport.KindPost
				}
				return siteport.ContentClassification{Kind: kind, Confidence: 95}, nil
			},
		}
		p.Sanitizer = &mock.Sanitizer{
			SanitizeFn: func(doc *siteport.CapturedDocument, class siteport.ContentClassification, assets *siteport.AssetManifest) (*siteport.SanitizedDocument, error) {
				assert.Nil(t, assets, "no manifest when images are disabled")
				return &siteport.SanitizedDocument{
					SourceKey: doc.SourceKey,
					CleanHTML: doc.RawHTML,
					Kind:      class.Kind,
				}, nil
			},
		}
		p.Cleans = &mock.CleanStore{
			SaveDocumentFn: func(ctx context.Context, doc *siteport.SanitizedDocument) error {
				cleanDocs[doc.SourceKey] = doc
				return nil
			},
			LoadDocumentsFn: func(ctx context.Context) ([]*siteport.SanitizedDocument, error) {
				return []*siteport.SanitizedDocument{
					cleanDocs["www.example.com_about-us"],
					cleanDocs["www.example.com_blog_zebra"],
				}, nil
			},
		}
		p.Builder = &mock.RecordBuilder{
			BuildFn: func(captured *siteport.CapturedDocument, cleaned *siteport.SanitizedDocument, now time.Time) (*siteport.ExportRecord, error) {
				require.Equal(t, captured.SourceKey, cleaned.SourceKey, "builder pairs capture with its clean doc")
				return &siteport.ExportRecord{
					Title: cleaned.SourceKey,
					Slug:  siteport.ArticleSlug(cleaned.SourceKey + ".html"),
					Kind:  cleaned.Kind,
				}, nil
			},
		}
		var written []*siteport.ExportRecord
		p.Export = &mock.ExportWriter{
			WriteFn: func(ctx context.Context, records []*siteport.ExportRecord) (*siteport.ExportSummary, error) {
				written = records
				return &siteport.ExportSummary{Posts: 1, Pages: 1}, nil
			},
		}

		require.NoError(t, p.SanitizeAll(context.Background()))
		summary, err := p.ExportAll(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Posts)
		require.Len(t, written, 2)
		assert.Equal(t, "www.example.com_about-us", written[0].Title)
		assert.Equal(t, siteport.KindPost, written[1].Kind)
	})

	t.Run("classification failure skips the document", func(t *testing.T) {
		t.Parallel()

		captures := newMemCaptures()
		doc := &siteport.CapturedDocument{SourceKey: "www.example.com_bad", SourceURL: "https://www.example.com/bad"}
		require.NoError(t, captures.SaveDocument(context.Background(), doc))
		require.NoError(t, captures.SaveIndex(context.Background(), &siteport.CaptureIndex{
			Documents: map[string]*siteport.CapturedDocument{doc.SourceKey: doc},
		}))

		cfg := testConfig()
		cfg.ImagesEnabled = false

		p := pipeline.New(cfg)
		p.Captures = captures
		p.Classifier = &mock.Classifier{
			ClassifyFn: func(*siteport.CapturedDocument) (siteport.ContentClassification, error) {
				return siteport.ContentClassification{}, errors.New("unparseable")
			},
		}
		p.Sanitizer = &mock.Sanitizer{
			SanitizeFn: func(*siteport.CapturedDocument, siteport.ContentClassification, *siteport.AssetManifest) (*siteport.SanitizedDocument, error) {
				t.Fatal("sanitize should not run when classification fails")
				return nil, nil
			},
		}
		p.Cleans = &mock.CleanStore{
			SaveDocumentFn: func(context.Context, *siteport.SanitizedDocument) error {
				t.Fatal("nothing should be saved")
				return nil
			},
		}

		require.NoError(t, p.SanitizeAll(context.Background()))
	})
}
