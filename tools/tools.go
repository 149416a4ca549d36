// Package tools wraps the optional external image utilities: an
// ImageMagick-based AVIF to JPEG converter and an exiftool-based alt
// text embedder. Each tool's availability is probed once and cached;
// an absent tool degrades its feature instead of failing the run.
package tools

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fwojciec/siteport"
)

// Ensure implementations satisfy the pipeline interfaces.
var (
	_ siteport.ImageConverter   = (*Converter)(nil)
	_ siteport.MetadataEmbedder = (*Embedder)(nil)
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// probe caches one binary lookup.
type probe struct {
	once      sync.Once
	path      string
	available bool
}

func (p *probe) resolve(names ...string) {
	p.once.Do(func() {
		for _, name := range names {
			if path, err := lookPath(name); err == nil {
				p.path = path
				p.available = true
				return
			}
		}
	})
}

// Converter converts AVIF images to JPEG via ImageMagick. Both the v7
// "magick" and v6 "convert" entry points are recognized.
type Converter struct {
	probe probe
}

// NewConverter creates a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Available reports whether ImageMagick was found on PATH. The lookup
// runs once; later calls return the cached answer.
func (c *Converter) Available() bool {
	c.probe.resolve("magick", "convert")
	return c.probe.available
}

// ConvertToJPEG converts the image at path to JPEG, removes the
// original, and returns the new path with a .jpg extension.
func (c *Converter) ConvertToJPEG(ctx context.Context, path string) (string, error) {
	if !c.Available() {
		return "", siteport.Errorf(siteport.EUNAVAILABLE, "no image converter on PATH")
	}

	newPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
	cmd := exec.CommandContext(ctx, c.probe.path, path, newPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", siteport.Errorf(siteport.EINTERNAL, "converting %s: %v: %s", filepath.Base(path), err, strings.TrimSpace(string(out)))
	}
	if newPath != path {
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}
	return newPath, nil
}

// Embedder writes alt text into image description metadata via
// exiftool.
type Embedder struct {
	probe probe
}

// NewEmbedder creates an Embedder.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// Available reports whether exiftool was found on PATH.
func (e *Embedder) Available() bool {
	e.probe.resolve("exiftool")
	return e.probe.available
}

// Embed writes altText into the image's ImageDescription tag in place.
func (e *Embedder) Embed(ctx context.Context, path, altText string) error {
	if !e.Available() {
		return siteport.Errorf(siteport.EUNAVAILABLE, "exiftool not on PATH")
	}
	cmd := exec.CommandContext(ctx, e.probe.path,
		"-overwrite_original",
		"-ImageDescription="+altText,
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return siteport.Errorf(siteport.EINTERNAL, "embedding metadata in %s: %v: %s", filepath.Base(path), err, strings.TrimSpace(string(out)))
	}
	return nil
}
