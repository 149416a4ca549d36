package siteport

import (
	"context"
	"time"
)

// ImageDiscovery identifies how an image reference was found in markup.
type ImageDiscovery string

// Discovery channels for image references.
const (
	DiscoveredViaTag        ImageDiscovery = "tag"
	DiscoveredViaBackground ImageDiscovery = "background"
	DiscoveredViaMalformed  ImageDiscovery = "malformed-tag"
)

// FilterDecision records whether a scanned image is downloaded or
// dropped, with the reason for auditability.
type FilterDecision struct {
	Keep   bool   `json:"keep"`
	Reason string `json:"reason,omitempty"`
}

// ImageReference is a transient record of one image found during asset
// scanning. References are deduplicated by NormalizedURL before
// download.
type ImageReference struct {
	OriginURL     string         `json:"originUrl"`
	NormalizedURL string         `json:"normalizedUrl"`
	SourceKey     string         `json:"sourceKey"`
	AltText       string         `json:"altText,omitempty"`
	Title         string         `json:"title,omitempty"`
	DiscoveredVia ImageDiscovery `json:"discoveredVia"`
	Decision      FilterDecision `json:"decision"`
}

// ImageAsset is one successfully downloaded image.
type ImageAsset struct {
	NormalizedURL    string `json:"normalizedUrl"`
	LocalFilename    string `json:"localFilename"`
	ArticleSlug      string `json:"articleSlug"`
	SourceKey        string `json:"sourceKey"`
	ByteSize         int64  `json:"byteSize"`
	Format           string `json:"format"`
	AltText          string `json:"altText,omitempty"`
	FormatConverted  bool   `json:"formatConverted"`
	MetadataEmbedded bool   `json:"metadataEmbedded"`
}

// AssetError records one image that failed to download after retries.
type AssetError struct {
	NormalizedURL string `json:"normalizedUrl"`
	SourceKey     string `json:"sourceKey"`
	Reason        string `json:"reason"`
}

// AssetManifest binds normalized URLs to downloaded assets. It is one of
// the two cross-run state files.
type AssetManifest struct {
	RunID      string                 `json:"runId"`
	StartedAt  time.Time              `json:"startedAt"`
	Duration   time.Duration          `json:"duration"`
	Downloaded int                    `json:"downloaded"`
	Skipped    int                    `json:"skipped"`
	Dropped    int                    `json:"dropped"`
	Images     map[string]*ImageAsset `json:"images"` // keyed by normalized URL
	Errors     []AssetError           `json:"errors,omitempty"`
}

// AssetFor returns the downloaded asset for a normalized URL, or nil.
func (m *AssetManifest) AssetFor(normalizedURL string) *ImageAsset {
	if m == nil {
		return nil
	}
	return m.Images[normalizedURL]
}

// ImageScanner finds image references in a captured document's markup,
// including lazy-load variants, srcset entries, CSS background images,
// and malformed tags, and applies the exclusion heuristics.
type ImageScanner interface {
	Scan(doc *CapturedDocument) ([]*ImageReference, error)
}

// Downloader fetches one image to a local file. Implementations reject
// empty and HTML-error-page payloads and rename the file when the
// response content type disagrees with the URL's apparent extension.
type Downloader interface {
	// Download fetches ref.NormalizedURL into destDir under the given
	// filename, returning the asset record on success. The returned
	// asset's LocalFilename may differ from filename when the declared
	// content type forces a rename.
	Download(ctx context.Context, ref *ImageReference, destDir, filename string) (*ImageAsset, error)
}

// ImageConverter converts AVIF/AV1 images to JPEG when the external
// converter tool is available. Available is probed once per run.
type ImageConverter interface {
	Available() bool
	ConvertToJPEG(ctx context.Context, path string) (newPath string, err error)
}

// MetadataEmbedder writes alt text into image metadata when the external
// tool is available. Failures degrade gracefully and never fail the item.
type MetadataEmbedder interface {
	Available() bool
	Embed(ctx context.Context, path, altText string) error
}

// AssetStore persists downloaded images and the asset manifest.
type AssetStore interface {
	// Dir returns the directory downloads are written to.
	Dir() string

	// Exists reports whether a local filename is already present, which
	// makes a re-run skip the download.
	Exists(filename string) bool

	// SaveManifest writes the asset manifest JSON.
	SaveManifest(ctx context.Context, m *AssetManifest) error

	// LoadManifest reads the asset manifest. Returns ENOTFOUND if none
	// exists.
	LoadManifest(ctx context.Context) (*AssetManifest, error)
}
