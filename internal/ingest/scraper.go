// Package ingest pulls raw result tables from the configured sources with a
// headless browser and lands them as CSV files in the raw data directory.
// The pages render their tables client-side, so a plain HTTP fetch is not
// enough.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/okian/breakpoint/pkg/logger"
)

const (
	defaultPageTimeout = 90 * time.Second
	tableSelector      = "#reportable"
	outputFileMode     = 0o644
)

// extractTableJS serializes the rendered results table into a row matrix.
const extractTableJS = `(() => {
	const table = document.querySelector("#reportable");
	if (!table) { return []; }
	const rows = [];
	const header = table.querySelectorAll("thead th");
	if (header.length > 0) {
		rows.push(Array.from(header, th => th.textContent.trim()));
	}
	for (const tr of table.querySelectorAll("tbody tr")) {
		rows.push(Array.from(tr.querySelectorAll("td"), td => td.textContent.trim()));
	}
	return rows;
})()`

// Option applies a configuration option to the Scraper.
type Option func(*Scraper)

// WithPageTimeout bounds how long a single page may take to render.
func WithPageTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.pageTimeout = d
		}
	}
}

// Scraper fetches rendered result tables and writes them to disk.
type Scraper struct {
	log         logger.Logger
	pageTimeout time.Duration
}

// New constructs a Scraper.
func New(log logger.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		log:         log,
		pageTimeout: defaultPageTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scrapes every configured source URL and writes the extracted table to
// rawDir under the paired file name. Sources are fetched sequentially; the
// result pages share a host and hammering it in parallel gets the client
// blocked.
func (s *Scraper) Run(ctx context.Context, urls, files []string, rawDir string) error {
	if len(urls) == 0 {
		return ErrNoSources
	}
	if len(urls) != len(files) {
		return fmt.Errorf("%w: %d urls, %d files", ErrBadPairing, len(urls), len(files))
	}
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	for i, url := range urls {
		dest := filepath.Join(rawDir, files[i])
		if err := s.fetchTable(browserCtx, url, dest); err != nil {
			return fmt.Errorf("scrape %s: %w", url, err)
		}
		s.log.Info(ctx, "scraped source",
			logger.String("url", url),
			logger.String("file", dest))
	}
	return nil
}

func (s *Scraper) fetchTable(ctx context.Context, url, dest string) error {
	pageCtx, cancel := context.WithTimeout(ctx, s.pageTimeout)
	defer cancel()

	var rows [][]string
	err := chromedp.Run(pageCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
		chromedp.Evaluate(extractTableJS, &rows),
	)
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if len(rows) < 2 {
		return ErrEmptyTable
	}
	return writeTable(dest, rows)
}

func writeTable(dest string, rows [][]string) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	w.Flush()
	return w.Error()
}
