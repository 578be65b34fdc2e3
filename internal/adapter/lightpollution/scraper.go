package lightpollution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/homefit-engine/internal/domain"
)

// ErrNoBortle means none of the extraction strategies found a usable value.
var ErrNoBortle = errors.New("no bortle value found on page")

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Scraper implements domain.NightSkyProvider by extracting the Bortle class
// from the rendered map page.
type Scraper struct {
	fetcher PageFetcher
	pageURL string
}

// NewScraper creates a scraper that loads pages rooted at pageURL.
func NewScraper(fetcher PageFetcher, pageURL string) *Scraper {
	return &Scraper{fetcher: fetcher, pageURL: pageURL}
}

// Name identifies the provider in diagnostics.
func (s *Scraper) Name() string { return "lightpollution-scrape" }

// Bortle loads the page for a point and extracts its Bortle class.
func (s *Scraper) Bortle(ctx context.Context, at domain.Coordinates) (domain.BortleReading, error) {
	html, err := s.fetcher.Fetch(ctx, s.pointURL(at))
	if err != nil {
		return domain.BortleReading{}, fmt.Errorf("fetch page: %w", err)
	}
	v, err := ExtractBortle(html)
	if err != nil {
		return domain.BortleReading{}, err
	}
	return domain.BortleReading{Value: v, Source: SourceScrape}, nil
}

func (s *Scraper) pointURL(at domain.Coordinates) string {
	params := url.Values{
		"lat":  {strconv.FormatFloat(at.Lat, 'f', 6, 64)},
		"lon":  {strconv.FormatFloat(at.Lon, 'f', 6, 64)},
		"zoom": {"10"},
	}
	return strings.TrimRight(s.pageURL, "/") + "/?" + params.Encode()
}

// Extraction strategies, tried in order.
var (
	fieldSelectors = []string{"[data-bortle]", "#bortle", ".bortle-value", ".bortle"}
	stateScripts   = []string{"script#__NEXT_DATA__", `script[type="application/json"]`, "script"}
	stateAssign    = regexp.MustCompile(`(?s)window\.__[A-Z_]+__\s*=\s*(\{.*?\})\s*;?\s*(?:</script>|$)`)
	textPattern    = regexp.MustCompile(`(?i)bortle(?:\s+(?:class|scale))?\s*[:=#]?\s*(\d(?:\.\d+)?)`)
)

// ExtractBortle finds a 1–9 Bortle value in page HTML. It tries an explicit
// numeric field, then embedded script state, then a text pattern.
func ExtractBortle(html string) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse html: %w", err)
	}

	if v, ok := fromField(doc); ok {
		return v, nil
	}
	if v, ok := fromScriptState(doc); ok {
		return v, nil
	}
	doc.Find("script, style, noscript").Remove()
	if v, ok := fromText(doc.Text()); ok {
		return v, nil
	}
	return 0, ErrNoBortle
}

func fromField(doc *goquery.Document) (float64, bool) {
	for _, sel := range fieldSelectors {
		var (
			found float64
			ok    bool
		)
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			raw, has := s.Attr("data-bortle")
			if !has {
				raw = s.Text()
			}
			found, ok = parseBortle(raw)
			return !ok
		})
		if ok {
			return found, true
		}
	}
	return 0, false
}

func fromScriptState(doc *goquery.Document) (float64, bool) {
	for _, sel := range stateScripts {
		var (
			found float64
			ok    bool
		)
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			body := strings.TrimSpace(s.Text())
			if body == "" {
				return true
			}
			if m := stateAssign.FindStringSubmatch(body); m != nil {
				body = m[1]
			}
			var state any
			if err := json.Unmarshal([]byte(body), &state); err != nil {
				return true
			}
			found, ok = searchState(state)
			return !ok
		})
		if ok {
			return found, true
		}
	}
	return 0, false
}

// searchState walks decoded JSON depth-first for a key containing "bortle".
func searchState(node any) (float64, bool) {
	switch n := node.(type) {
	case map[string]any:
		keys := slices.Sorted(maps.Keys(n))
		for _, k := range keys {
			if !strings.Contains(strings.ToLower(k), "bortle") {
				continue
			}
			switch val := n[k].(type) {
			case float64:
				if domain.ValidBortle(val) {
					return val, true
				}
			case string:
				if f, ok := parseBortle(val); ok {
					return f, true
				}
			}
		}
		for _, k := range keys {
			if f, ok := searchState(n[k]); ok {
				return f, true
			}
		}
	case []any:
		for _, v := range n {
			if f, ok := searchState(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func fromText(text string) (float64, bool) {
	for _, m := range textPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseBortle(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

func parseBortle(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !domain.ValidBortle(v) {
		return 0, false
	}
	return v, true
}
