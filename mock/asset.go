package mock

import (
	"context"

	"github.com/fwojciec/siteport"
)

var _ siteport.ImageScanner = (*ImageScanner)(nil)

// ImageScanner is a mock implementation of siteport.ImageScanner.
type ImageScanner struct {
	ScanFn func(doc *siteport.CapturedDocument) ([]*siteport.ImageReference, error)
}

func (s *ImageScanner) Scan(doc *siteport.CapturedDocument) ([]*siteport.ImageReference, error) {
	return s.ScanFn(doc)
}

var _ siteport.Downloader = (*Downloader)(nil)

// Downloader is a mock implementation of siteport.Downloader.
type Downloader struct {
	DownloadFn func(ctx context.Context, ref *siteport.ImageReference, destDir, filename string) (*siteport.ImageAsset, error)
}

func (d *Downloader) Download(ctx context.Context, ref *siteport.ImageReference, destDir, filename string) (*siteport.ImageAsset, error) {
	return d.DownloadFn(ctx, ref, destDir, filename)
}

var _ siteport.ImageConverter = (*ImageConverter)(nil)

// ImageConverter is a mock implementation of siteport.ImageConverter.
type ImageConverter struct {
	AvailableFn     func() bool
	ConvertToJPEGFn func(ctx context.Context, path string) (string, error)
}

func (c *ImageConverter) Available() bool {
	return c.AvailableFn()
}

func (c *ImageConverter) ConvertToJPEG(ctx context.Context, path string) (string, error) {
	return c.ConvertToJPEGFn(ctx, path)
}

var _ siteport.MetadataEmbedder = (*MetadataEmbedder)(nil)

// MetadataEmbedder is a mock implementation of siteport.MetadataEmbedder.
type MetadataEmbedder struct {
	AvailableFn func() bool
	EmbedFn     func(ctx context.Context, path, altText string) error
}

func (e *MetadataEmbedder) Available() bool {
	return e.AvailableFn()
}

func (e *MetadataEmbedder) Embed(ctx context.Context, path, altText string) error {
	return e.EmbedFn(ctx, path, altText)
}
