package siteport

import "time"

// Config is the single configuration object for a pipeline run. It is
// constructed once at run start and injected into each component
// constructor; nothing reads configuration ambiently.
type Config struct {
	// Browser.
	Headless      bool
	PageTimeout   time.Duration // per-navigation timeout
	SettleTime    time.Duration // wait after load before probing selectors
	FetchInterval float64       // navigations per second, politeness

	// Retry.
	FetchRetries int
	AssetRetries int

	// Assets.
	ImagesEnabled    bool
	AssetTimeout     time.Duration
	AssetConcurrency int // batch size for concurrent downloads

	// Content discovery.
	ContentSelectors []string // prioritized, most specific first
	MinContentLength int

	// Destination platform.
	DealerSlug  string
	UploadYear  string
	UploadMonth string
	UploadBase  string // e.g. https://cdn.example.com

	// Output layout.
	CaptureDir string
	AssetDir   string
	CleanDir   string
	ExportDir  string

	// Per-site behavior overrides.
	Overrides *SiteOverrides
}

// SiteOverrides adjusts pipeline behavior for a specific source site.
// Overrides extend the shipped defaults, they never replace them.
type SiteOverrides struct {
	// PostSelector and PageSelector are decisive classification
	// selectors: presence of a match classifies at high confidence.
	PostSelector string `yaml:"postSelector,omitempty"`
	PageSelector string `yaml:"pageSelector,omitempty"`

	// KindByFilename maps capture filenames to explicit kinds, the
	// highest-priority classification signal.
	KindByFilename map[string]Kind `yaml:"kindByFilename,omitempty"`

	// ContentSelectors, when set, are probed before the default chain.
	ContentSelectors []string `yaml:"contentSelectors,omitempty"`

	// StripSelectors are extra elements removed during sanitization.
	StripSelectors []string `yaml:"stripSelectors,omitempty"`

	// ExcludedImageContainers are class names whose nested images are
	// never downloaded.
	ExcludedImageContainers []string `yaml:"excludedImageContainers,omitempty"`

	// BoilerplateRules extend DefaultBoilerplateRules.
	BoilerplateRules []BoilerplateRule `yaml:"boilerplateRules,omitempty"`
}

// DefaultContentSelectors is the shipped content-region probe chain,
// most specific structural containers first, falling back to body.
var DefaultContentSelectors = []string{
	"main article",
	"article.post",
	"div.entry-content",
	"div.post-content",
	"div.page-content",
	"main .content",
	"main",
	"article",
	"#content",
	"div.content",
	"body",
}

// DefaultConfig returns a Config with the documented defaults. Callers
// override fields before passing the config to component constructors.
func DefaultConfig() Config {
	return Config{
		Headless:         true,
		PageTimeout:      60 * time.Second,
		SettleTime:       2 * time.Second,
		FetchInterval:    0.5,
		FetchRetries:     3,
		AssetRetries:     3,
		ImagesEnabled:    true,
		AssetTimeout:     30 * time.Second,
		AssetConcurrency: 5,
		ContentSelectors: DefaultContentSelectors,
		MinContentLength: 200,
		CaptureDir:       "out/capture",
		AssetDir:         "out/assets",
		CleanDir:         "out/clean",
		ExportDir:        "out/export",
	}
}

// ContentSelectorChain returns the probe chain with per-site overrides
// prepended.
func (c *Config) ContentSelectorChain() []string {
	if c.Overrides == nil || len(c.Overrides.ContentSelectors) == 0 {
		return c.ContentSelectors
	}
	chain := make([]string, 0, len(c.Overrides.ContentSelectors)+len(c.ContentSelectors))
	chain = append(chain, c.Overrides.ContentSelectors...)
	chain = append(chain, c.ContentSelectors...)
	return chain
}

// UploadURL returns the destination upload URL for a local asset
// filename: {base}/{dealerSlug}/uploads/{year}/{month}/{filename}.
func (c *Config) UploadURL(filename string) string {
	return c.UploadBase + "/" + c.DealerSlug + "/uploads/" + c.UploadYear + "/" + c.UploadMonth + "/" + filename
}
