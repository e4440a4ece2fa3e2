// Package webscrape fetches web pages and extracts readable content with
// goquery. Two shapes are supported: generic article scraping (title plus
// paragraph text) and structured cruise promo tables. Fetch or parse
// failures are logged and reported as empty content so a dead link never
// aborts a conversation turn.
package webscrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/tool"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Page is the generic scrape result.
type Page struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// Text joins the title and paragraphs into a single block.
func (p Page) Text() string {
	parts := make([]string, 0, len(p.Paragraphs)+1)
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	parts = append(parts, p.Paragraphs...)

	return strings.Join(parts, "\n")
}

// PromoListing is one row of a cruise promo table.
type PromoListing struct {
	GroupID   string `json:"group_id"`
	Ship      string `json:"ship"`
	Vendor    string `json:"vendor"`
	Itinerary string `json:"itinerary"`
	Port      string `json:"port"`
	Nights    string `json:"nights"`
	SailDate  string `json:"sail_date"`
	Amenities string `json:"amenities"`
	Price     string `json:"price"`
}

// Options configure a Scraper.
type Options struct {
	// UserAgent sent with every request. Some sites reject the Go default.
	UserAgent string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// MaxParagraphs caps generic extraction; 0 means unlimited.
	MaxParagraphs int
}

// Scraper fetches and parses HTML pages.
type Scraper struct {
	userAgent     string
	httpClient    *http.Client
	maxParagraphs int
}

// New constructs a Scraper.
func New(optFns ...func(o *Options)) *Scraper {
	opts := Options{
		UserAgent:     defaultUserAgent,
		HTTPClient:    &http.Client{Timeout: 20 * time.Second},
		MaxParagraphs: 40,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Scraper{
		userAgent:     opts.UserAgent,
		httpClient:    opts.HTTPClient,
		maxParagraphs: opts.MaxParagraphs,
	}
}

// Scrape fetches pageURL and extracts the title and paragraph text.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (Page, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return Page{}, err
	}

	page := Page{Title: strings.TrimSpace(doc.Find("title").First().Text())}

	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			page.Paragraphs = append(page.Paragraphs, text)
		}

		return s.maxParagraphs == 0 || len(page.Paragraphs) < s.maxParagraphs
	})

	return page, nil
}

// ScrapePromoTable fetches pageURL and parses cruise promo rows out of the
// first table whose header carries a "Group ID" column. Columns are matched
// by header label, so reordered tables still parse.
func (s *Scraper) ScrapePromoTable(ctx context.Context, pageURL string) ([]PromoListing, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var listings []PromoListing

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		columns := headerColumns(table)
		if _, ok := columns["group id"]; !ok {
			return true
		}

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() == 0 {
				return
			}

			cell := func(label string) string {
				idx, ok := columns[label]
				if !ok || idx >= cells.Length() {
					return ""
				}
				return strings.TrimSpace(cells.Eq(idx).Text())
			}

			listings = append(listings, PromoListing{
				GroupID:   cell("group id"),
				Ship:      cell("ship"),
				Vendor:    cell("vendor"),
				Itinerary: cell("itinerary"),
				Port:      cell("port"),
				Nights:    cell("nights"),
				SailDate:  cell("sail date"),
				Amenities: cell("amenities"),
				Price:     cell("price"),
			})
		})

		return false
	})

	return listings, nil
}

func headerColumns(table *goquery.Selection) map[string]int {
	columns := map[string]int{}

	table.Find("th").Each(func(i int, th *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(th.Text()))
		if label != "" {
			columns[label] = i
		}
	})

	return columns
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}

// ScrapeTool wraps Scrape as a registry tool. Scraped text is additionally
// stored as a research note in the session's memory store (when configured)
// so later turns can recall it without refetching.
func (s *Scraper) ScrapeTool() tool.Tool {
	return tool.NewFunctionTool(
		"web_scrape",
		"Fetch a web page and return its title and paragraph text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string", "description": "Page URL to fetch"},
			},
			"required": []string{"url"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			pageURL, _ := args["url"].(string)

			page, err := s.Scrape(toolCtx.Context(), pageURL)
			if err != nil {
				toolCtx.Logger().Warn("webscrape.error", "url", pageURL, "error", err.Error())
				return Page{}, nil
			}

			if text := page.Text(); text != "" {
				if err := toolCtx.StoreMemory(text, map[string]any{"source": pageURL, "kind": "scrape"}); err != nil {
					toolCtx.Logger().Debug("webscrape.memory.skip", "url", pageURL, "error", err.Error())
				}
			}

			return page, nil
		},
	)
}

// PromoTableTool wraps ScrapePromoTable as a registry tool with the same
// empty-on-failure semantics.
func (s *Scraper) PromoTableTool() tool.Tool {
	return tool.NewFunctionTool(
		"scrape_promo_table",
		"Fetch a cruise promo page and return its structured listing rows.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string", "description": "Promo page URL"},
			},
			"required": []string{"url"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			pageURL, _ := args["url"].(string)

			listings, err := s.ScrapePromoTable(toolCtx.Context(), pageURL)
			if err != nil {
				toolCtx.Logger().Warn("webscrape.promo.error", "url", pageURL, "error", err.Error())
				return []PromoListing{}, nil
			}

			return listings, nil
		},
	)
}
