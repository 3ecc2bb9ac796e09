package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagebinder/internal/artifact"
	"github.com/nao1215/pagebinder/internal/config"
	"github.com/nao1215/pagebinder/internal/crawler"
	"github.com/nao1215/pagebinder/internal/log"
	"github.com/nao1215/pagebinder/internal/model"
	"github.com/nao1215/pagebinder/internal/pipeline"
	"github.com/nao1215/pagebinder/internal/report"
	"github.com/nao1215/pagebinder/internal/upload"
)

// crawlOptions are the crawl command's own flags.
type crawlOptions struct {
	output     string
	upload     bool
	ssa        string
	siteID     string
	domainName string
}

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a website and build its compact PDF",
		Long: `Crawl runs one job in the foreground.

It visits every page of the target's host breadth-first, extracts the readable
text, binds it into a PDF with one section per page, re-encodes embedded images
to shrink the file, and then delivers it:
- to the --output path (default), or
- with --upload, to the destination configured for the target's domain.

Examples:
  # Build a PDF of a site
  pagebinder crawl https://example.com/

  # Limit the crawl and write the document elsewhere
  pagebinder crawl --max-pages 50 -o site.pdf https://example.com/

  # Upload to the destination configured for example.com
  pagebinder crawl --upload --ssa client-token https://example.com/

  # Print the job summary as JSON
  pagebinder crawl --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	addJobFlags(cmd)

	// Delivery flags
	cmd.Flags().StringP("output", "o", artifact.CompactName,
		"Write the compact document to this path")
	cmd.Flags().BoolP("upload", "u", false,
		"Upload to the destination configured for the target's domain instead of writing a file")
	cmd.Flags().String("ssa", "",
		"Correlation token forwarded with the upload")
	cmd.Flags().String("site-id", "",
		"Destination site identifier forwarded with the upload")
	cmd.Flags().String("domain-name", "",
		"Domain used to pick the upload destination (default: the target's host)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the summary to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := buildCrawlOptions(cmd, cfg)
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Crawling %s...\n", args[0])
	job, err := runCrawl(ctx, cfg, opts, args[0], logger)
	if err != nil {
		return err
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, job); err != nil {
		logger.Error("report failed", "job", job.ID, "error", err)
	}

	if job.Failed() {
		return fmt.Errorf("job failed at %s: %s", job.FailedStep, job.ErrorMessage)
	}
	if !opts.upload {
		fmt.Fprintf(cmd.ErrOrStderr(), "Document written to %s\n", opts.output)
	}
	return nil
}

// buildCrawlOptions reads the crawl-only flags into cfg and opts.
func buildCrawlOptions(cmd *cobra.Command, cfg *config.Config) (*crawlOptions, error) {
	flags := cmd.Flags()
	opts := &crawlOptions{}

	var err error
	if opts.output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if opts.upload, err = flags.GetBool("upload"); err != nil {
		return nil, err
	}
	if opts.ssa, err = flags.GetString("ssa"); err != nil {
		return nil, err
	}
	if opts.siteID, err = flags.GetString("site-id"); err != nil {
		return nil, err
	}
	if opts.domainName, err = flags.GetString("domain-name"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}

	if opts.upload && strings.TrimSpace(opts.ssa) == "" {
		return nil, errors.New("--ssa is required with --upload")
	}
	if !opts.upload && opts.output == "" {
		return nil, errors.New("--output must not be empty")
	}
	return opts, nil
}

// runCrawl runs one job to completion and returns it. An error is returned
// only when the job could not be started; job failures are recorded on the
// job itself.
func runCrawl(ctx context.Context, cfg *config.Config, opts *crawlOptions, rawURL string, logger *slog.Logger) (*model.Job, error) {
	target, err := crawler.Normalize("", rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, err
	}

	domain := opts.domainName
	if domain == "" {
		domain = target.Hostname()
	}
	job := model.NewJob(target, opts.ssa, opts.siteID, domain)

	sinks := a.destinationSink
	if opts.upload {
		if _, err := cfg.Settings.Destination(domain); err != nil {
			return nil, err
		}
	} else {
		output, err := filepath.Abs(opts.output)
		if err != nil {
			return nil, err
		}
		sinks = func(*model.Job) (upload.Sink, error) {
			return upload.NewFileSink(output), nil
		}
	}

	store, err := openStore(cfg.DBDir, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	dispatcher := pipeline.NewDispatcher(ctx, a.pipelineFactory(sinks), store,
		pipeline.WithDispatcherLogger(logger),
		pipeline.WithConcurrency(1),
		pipeline.WithQueueSize(1),
	)
	if err := dispatcher.Submit(ctx, job); err != nil {
		_ = dispatcher.Shutdown(ctx) //nolint:errcheck // Submit error is the one to report
		return nil, err
	}
	// The pipeline observes ctx itself; Shutdown only waits for it.
	if err := dispatcher.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}

	logger.Info("job finished", "job", job.ID, "status", job.Status, "elapsed", job.Duration().Round(time.Millisecond))
	return job, nil
}

// outputReport writes the job summary in the requested format.
func outputReport(stdout io.Writer, cfg *config.Config, job *model.Job) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may carry correlation tokens and upload responses.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	_, err := writer.Write(job)
	return err
}
