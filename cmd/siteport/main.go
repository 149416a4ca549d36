package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/siteport"
	"github.com/fwojciec/siteport/config"
	"github.com/fwojciec/siteport/fs"
	"github.com/fwojciec/siteport/goquery"
	sphttp "github.com/fwojciec/siteport/http"
	"github.com/fwojciec/siteport/pipeline"
	"github.com/fwojciec/siteport/readability"
	"github.com/fwojciec/siteport/rod"
	spslog "github.com/fwojciec/siteport/slog"
	"github.com/fwojciec/siteport/tools"
	"github.com/fwojciec/siteport/trafilatura"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("siteport"),
		kong.Description("Migrate a dealership website into a CMS import file"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := config.FromEnv()
	if cli.Overrides != "" {
		overrides, err := config.LoadOverrides(cli.Overrides)
		if err != nil {
			return err
		}
		cfg.Overrides = overrides
	}
	if cli.NoImages {
		cfg.ImagesEnabled = false
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps := &Dependencies{
		Ctx:      ctx,
		Stdout:   stdout,
		Config:   cfg,
		Logger:   logger,
		Category: cli.Category,
	}
	return kctx.Run(deps)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Overrides string `short:"o" help:"Per-site override YAML file"`
	Category  string `help:"post_category value for exported posts"`
	NoImages  bool   `help:"Skip the image asset pipeline"`
	Verbose   bool   `short:"v" help:"Debug logging"`

	Run      RunCmd      `cmd:"" help:"Run all four stages"`
	Capture  CaptureCmd  `cmd:"" help:"Stage 1: capture rendered pages"`
	Assets   AssetsCmd   `cmd:"" help:"Stage 2: download image assets"`
	Sanitize SanitizeCmd `cmd:"" help:"Stage 3: classify and clean captures"`
	Export   ExportCmd   `cmd:"" help:"Stage 4: write the CSV import file"`
}

// Dependencies carries the shared wiring into each subcommand.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Config   siteport.Config
	Logger   *slog.Logger
	Category string
}

// buildPipeline wires every stage implementation. The browser fetcher
// is only started when withBrowser is set, so store-only stages do not
// require Chrome.
func buildPipeline(deps *Dependencies, withBrowser bool) (*pipeline.Pipeline, func(), error) {
	cfg := deps.Config
	p := pipeline.New(cfg)
	p.Tracker = spslog.NewTracker(deps.Logger)

	cleanup := func() {}
	if withBrowser {
		fetcher, err := rod.NewFetcher(
			rod.WithFetchTimeout(cfg.PageTimeout),
			rod.WithSettleTime(cfg.SettleTime),
			rod.WithSelectors(cfg.ContentSelectorChain()),
			rod.WithMinContentLength(cfg.MinContentLength),
			rod.WithHeadless(cfg.Headless),
			rod.WithFallbackExtractor(siteport.ExtractorChain{
				trafilatura.NewExtractor(),
				readability.NewExtractor(),
			}),
		)
		if err != nil {
			fmt.Fprintln(deps.Stdout, "Hint: Chrome or Chromium must be installed")
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		p.Fetcher = spslog.NewLoggingFetcher(fetcher, deps.Logger)
		cleanup = func() { fetcher.Close() }
		p.Discoverer = spslog.NewLoggingDiscoverer(sphttp.NewSitemapSource(nil), deps.Logger)
	}

	var excluded []string
	if cfg.Overrides != nil {
		excluded = cfg.Overrides.ExcludedImageContainers
	}
	p.Scanner = goquery.NewScanner(goquery.WithExcludedContainers(excluded))
	p.Downloader = spslog.NewLoggingDownloader(
		sphttp.NewDownloader(sphttp.WithDownloadTimeout(cfg.AssetTimeout)),
		deps.Logger,
	)
	p.Converter = tools.NewConverter()
	p.Embedder = tools.NewEmbedder()

	p.Classifier = goquery.NewClassifier(goquery.WithOverrides(cfg.Overrides))
	sanitizer, err := goquery.NewSanitizer(&cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	p.Sanitizer = sanitizer
	p.Builder = goquery.NewRecordBuilder(goquery.WithCategory(deps.Category))

	p.Captures = fs.NewCaptureStore(cfg.CaptureDir)
	assets, err := fs.NewAssetStore(cfg.AssetDir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	p.Assets = assets
	p.Cleans = fs.NewCleanStore(cfg.CleanDir)
	p.Export = fs.NewExportWriter(cfg.ExportDir, p.RunID())

	return p, cleanup, nil
}
