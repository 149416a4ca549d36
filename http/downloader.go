// Package http provides the HTTP-based pieces of the pipeline: the
// image downloader and the sitemap target discoverer.
package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/siteport"
)

// DefaultDownloadTimeout is the default per-asset timeout.
const DefaultDownloadTimeout = 30 * time.Second

// maxDownloadBytes caps a single asset download.
const maxDownloadBytes = 64 << 20

// Ensure Downloader implements siteport.Downloader at compile time.
var _ siteport.Downloader = (*Downloader)(nil)

// extByContentType maps declared content types to canonical extensions,
// used to rename assets whose URL extension lies.
var extByContentType = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

// Downloader fetches image assets over HTTP. Empty payloads and
// HTML-shaped error pages are failures, not successes, and a declared
// content type that disagrees with the URL's extension renames the
// local file.
type Downloader struct {
	client  *http.Client
	timeout time.Duration
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadTimeout sets the per-asset timeout.
// Defaults to DefaultDownloadTimeout.
func WithDownloadTimeout(d time.Duration) DownloaderOption {
	return func(dl *Downloader) {
		dl.timeout = d
	}
}

// WithClient sets the HTTP client. Defaults to a fresh client.
func WithClient(client *http.Client) DownloaderOption {
	return func(dl *Downloader) {
		dl.client = client
	}
}

// NewDownloader creates a new Downloader.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	dl := &Downloader{
		timeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(dl)
	}
	if dl.client == nil {
		dl.client = &http.Client{}
	}
	return dl
}

// Download fetches the reference's normalized URL into destDir under
// filename and returns the asset record.
func (dl *Downloader) Download(ctx context.Context, ref *siteport.ImageReference, destDir, filename string) (*siteport.ImageAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, dl.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.NormalizedURL, nil)
	if err != nil {
		return nil, siteport.Errorf(siteport.EINVALID, "building request for %s: %v", ref.NormalizedURL, err)
	}

	resp, err := dl.client.Do(req)
	if err != nil {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "downloading %s: %v", ref.NormalizedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, ref.NormalizedURL)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "reading %s: %v", ref.NormalizedURL, err)
	}

	if len(payload) == 0 {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "empty payload for %s", ref.NormalizedURL)
	}
	if looksLikeHTML(payload) {
		return nil, siteport.Errorf(siteport.EUNAVAILABLE, "HTML error page for %s", ref.NormalizedURL)
	}

	contentType := parseContentType(resp.Header.Get("Content-Type"))
	localName := renameForContentType(filename, contentType)

	path := filepath.Join(destDir, localName)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return nil, err
	}

	return &siteport.ImageAsset{
		NormalizedURL: ref.NormalizedURL,
		LocalFilename: localName,
		SourceKey:     ref.SourceKey,
		ByteSize:      int64(len(payload)),
		Format:        strings.TrimPrefix(filepath.Ext(localName), "."),
		AltText:       ref.AltText,
	}, nil
}

// looksLikeHTML reports whether a payload is an HTML document rather
// than image bytes, which some servers return with a 200 status.
func looksLikeHTML(payload []byte) bool {
	head := payload
	if len(head) > 512 {
		head = head[:512]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	lower := bytes.ToLower(trimmed)
	return bytes.HasPrefix(lower, []byte("<!doctype")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<head"))
}

func parseContentType(header string) string {
	if i := strings.Index(header, ";"); i >= 0 {
		header = header[:i]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

// renameForContentType swaps the filename extension when the declared
// content type disagrees with it.
func renameForContentType(filename, contentType string) string {
	want, ok := extByContentType[contentType]
	if !ok {
		return filename
	}
	have := strings.ToLower(filepath.Ext(filename))
	if have == want || (want == ".jpg" && have == ".jpeg") {
		return filename
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + want
}
