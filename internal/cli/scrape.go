package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/harvest/internal/config"
	"github.com/law-makers/harvest/internal/reqctx"
	"github.com/law-makers/harvest/internal/ui"
	"github.com/law-makers/harvest/internal/utils/output"
	"github.com/law-makers/harvest/pkg/models"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch result pages for a query and export the listings",
	Long: `Fetches pages 1..N of the listing for a search term concurrently, extracts
title, price, rating and review count from every listing and writes them to a file.

The scrape command:
  - Runs pages on a bounded worker pool with a deadline per page
  - Keeps the records of every page that succeeded when others fail
  - Writes CSV (every field quoted) or JSON when the output ends in .json
  - Optionally renders pages in headless Chrome with --renderer=chrome
  - Optionally copies the records into PostgreSQL (--pg-dsn) or MongoDB (--mongo-uri)

Missing --query or --pages are asked for when running in a terminal.`,
	Example: `  # Fetch 3 pages of results into OutDir/output.csv
  harvest scrape -k "fossil watch" -p 3

  # Echo every record and write JSON instead
  harvest scrape -k laptop -p 5 --print -o results/laptop.json

  # Render with Chrome and limit the pool to 2 workers
  harvest scrape -k headphones -p 4 --renderer=chrome -c 2`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	config.RegisterScrapeFlags(scrapeCmd)
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config

	query, _ := cmd.Flags().GetString("query")
	pages, _ := cmd.Flags().GetInt("pages")
	printRecords, _ := cmd.Flags().GetBool("print")

	query, pages, err := resolveInputs(query, pages, os.Stdin, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := reqctx.WithRun(cmd.Context(), query, pages)
	logger := reqctx.Logger(ctx)
	logger.Debug().
		Int("pages", pages).
		Str("fetcher", a.Fetcher.Name()).
		Str("output", cfg.OutputPath).
		Msg("Starting scrape")

	// Connect the optional sinks before any page is fetched so a bad DSN fails fast.
	sink, err := a.EnsureSinks(ctx)
	if err != nil {
		return reqctx.NewRunError(ctx, fmt.Errorf("database sink: %w", err))
	}

	bar := newProgressBar(pages, !cfg.Quiet && !cfg.JSONLog && isInteractive(os.Stderr))
	result := a.Scraper(func(o models.PageOutcome) {
		_ = bar.Add(1)
	}).Run(ctx, query, pages)
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	if printRecords {
		if err := output.PrintRecords(out, result.Records); err != nil {
			return reqctx.NewRunError(ctx, err)
		}
	}

	if err := output.Save(result.Records, cfg.OutputPath); err != nil {
		return reqctx.NewRunError(ctx, err)
	}
	logger.Debug().Str("path", cfg.OutputPath).Int("records", result.Total()).Msg("Records written")

	if sink != nil {
		if _, err := sink.SaveRecords(ctx, reqctx.FromContext(ctx).RunID, query, result.Records); err != nil {
			return reqctx.NewRunError(ctx, err)
		}
	}

	if !cfg.Quiet {
		printSummary(out, result, cfg.OutputPath)
	}

	if result.Pages > 0 && result.SucceededPages == 0 {
		return reqctx.NewRunError(ctx, fmt.Errorf("all %d page(s) failed", result.Pages))
	}
	return nil
}

// resolveInputs fills a missing query or page count from an interactive
// prompt. Without a terminal both must be supplied as flags.
func resolveInputs(query string, pages int, in *os.File, out io.Writer) (string, int, error) {
	query = strings.TrimSpace(query)
	if query != "" && pages > 0 {
		return query, pages, nil
	}
	if !isInteractive(in) {
		return "", 0, fmt.Errorf("--query and a positive --pages are required when not running in a terminal")
	}
	return promptInputs(NewPrompter(in, out), query, pages)
}

func promptInputs(p *Prompter, query string, pages int) (string, int, error) {
	var err error
	if query == "" {
		if query, err = p.Query(); err != nil {
			return "", 0, err
		}
	}
	if pages <= 0 {
		if pages, err = p.Pages(); err != nil {
			return "", 0, err
		}
	}
	return query, pages, nil
}

func newProgressBar(pages int, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(pages,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Fetching pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(visible),
	)
}

// printSummary reports what the run produced
func printSummary(w io.Writer, result *models.Result, path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	heading := ui.Bold("Summary:")
	if result.Partial() {
		heading += " " + ui.Warn("(partial)")
	}
	fmt.Fprintf(w, "\n%s\n", heading)
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Query"), ui.ColorWhite+result.Query+ui.ColorReset)
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Records"), ui.Success(fmt.Sprintf("%d", result.Total())))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Pages"), ui.ColorWhite+fmt.Sprintf("%d/%d succeeded", result.SucceededPages, result.Pages)+ui.ColorReset)

	if failed := result.SortedFailedPages(); len(failed) > 0 {
		fmt.Fprintf(w, "  %s %s\n", ui.Label("Failed"), ui.Error(fmt.Sprintf("%d", len(failed))))
		for _, page := range failed {
			fmt.Fprintf(w, "    %s %s\n", ui.ColorDim+fmt.Sprintf("page %d:", page)+ui.ColorReset, ui.Error(result.Errors[page].Error()))
		}
	}

	fmt.Fprintf(w, "  %s %s\n", ui.Label("Output"), ui.ColorWhite+absPath+ui.ColorReset)
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Time elapsed"), ui.ColorWhite+result.Elapsed().Round(time.Millisecond).String()+ui.ColorReset)
}
