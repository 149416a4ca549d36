package main

import (
	"fmt"

	"github.com/fwojciec/siteport/fs"
)

// RunCmd executes all four stages in order.
type RunCmd struct {
	Targets string `arg:"" required:"" help:"Target list file"`
}

func (c *RunCmd) Run(deps *Dependencies) error {
	list, err := fs.LoadTargetFile(c.Targets)
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(deps, true)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := p.Run(deps.Ctx, list.Targets, list.Sitemaps)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "exported %d posts and %d pages (%d bytes)\n",
		summary.Posts, summary.Pages, summary.ByteSize)
	return nil
}

// CaptureCmd runs only the capture stage.
type CaptureCmd struct {
	Targets string `arg:"" required:"" help:"Target list file"`
}

func (c *CaptureCmd) Run(deps *Dependencies) error {
	list, err := fs.LoadTargetFile(c.Targets)
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(deps, true)
	if err != nil {
		return err
	}
	defer cleanup()

	idx, err := p.Capture(deps.Ctx, list.Targets, list.Sitemaps)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "captured %d pages, %d failed\n", idx.Successful, idx.Failed)
	return nil
}

// AssetsCmd runs only the asset download stage against existing
// captures.
type AssetsCmd struct{}

func (c *AssetsCmd) Run(deps *Dependencies) error {
	p, cleanup, err := buildPipeline(deps, false)
	if err != nil {
		return err
	}
	defer cleanup()

	m, err := p.DownloadAssets(deps.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "downloaded %d images, skipped %d, dropped %d, %d failed\n",
		m.Downloaded, m.Skipped, m.Dropped, len(m.Errors))
	return nil
}

// SanitizeCmd runs only the classify-and-clean stage.
type SanitizeCmd struct{}

func (c *SanitizeCmd) Run(deps *Dependencies) error {
	p, cleanup, err := buildPipeline(deps, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.SanitizeAll(deps.Ctx); err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, "sanitized documents written")
	return nil
}

// ExportCmd runs only the CSV export stage.
type ExportCmd struct{}

func (c *ExportCmd) Run(deps *Dependencies) error {
	p, cleanup, err := buildPipeline(deps, false)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := p.ExportAll(deps.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "exported %d posts and %d pages (%d bytes)\n",
		summary.Posts, summary.Pages, summary.ByteSize)
	return nil
}
