package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/rs/zerolog"

	mhttp "github.com/handiism/manga-downloader/internal/http"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

// ErrNotHTML is returned when a page does not contain an HTML document.
var ErrNotHTML = errors.New("discovery: response is not an HTML page")

// Discoverer populates a chapter's assets and reports whether any were
// found.
type Discoverer interface {
	Discover(ctx context.Context, ch *model.Chapter) bool
}

// DiscovererFunc adapts a function to the Discoverer interface.
type DiscovererFunc func(ctx context.Context, ch *model.Chapter) bool

// Discover calls f.
func (f DiscovererFunc) Discover(ctx context.Context, ch *model.Chapter) bool {
	return f(ctx, ch)
}

// Scraper reads series and chapter pages with colly.
type Scraper struct {
	userAgent string
	jar       *cookiejar.Jar
	transport http.RoundTripper
	timeout   time.Duration
	retries   int
	backoff   workerpool.Backoff
	selectors Selectors
	log       zerolog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithSelectors replaces DefaultSelectors.
func WithSelectors(sel Selectors) Option {
	return func(s *Scraper) { s.selectors = sel }
}

// WithRetries sets the number of attempts per page.
func WithRetries(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithBackoff sets the delay policy between page attempts.
func WithBackoff(b workerpool.Backoff) Option {
	return func(s *Scraper) { s.backoff = b }
}

// WithTimeout bounds a single page request.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.timeout = d }
}

// WithLogger sets the scraper logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scraper) { s.log = log }
}

// NewScraper creates a Scraper that shares client's identity and
// connections.
func NewScraper(client *mhttp.Client, opts ...Option) *Scraper {
	s := &Scraper{
		userAgent: client.UserAgent(),
		jar:       client.Jar(),
		transport: client.Transport(),
		timeout:   30 * time.Second,
		retries:   3,
		backoff:   workerpool.DefaultBackoff,
		selectors: DefaultSelectors(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSeries reads a series page: metadata and the chapter list, sorted
// ascending. Chapter and cover URLs are resolved against the page URL.
// Links whose text holds no chapter number are skipped.
func (s *Scraper) FetchSeries(ctx context.Context, seriesURL, baseDir string) (*model.Series, error) {
	var series *model.Series
	sel := s.selectors

	err := s.visit(ctx, seriesURL, func(doc *goquery.Selection, req *colly.Request) {
		series = model.NewSeries(extractText(sel.Title, doc), seriesURL, baseDir)
		series.Author = extractText(sel.Author, doc)
		series.Status = extractText(sel.Status, doc)
		series.Genres = extractTexts(sel.Genres, doc)
		series.Summary = extractText(sel.Summary, doc)
		if cover := firstAttr(doc.Find(sel.Cover).First(), "data-src", "src"); cover != "" {
			series.CoverURL = req.AbsoluteURL(cover)
		}

		doc.Find(sel.ChapterLinks).Each(func(_ int, link *goquery.Selection) {
			number, ok := parseChapterNumber(link.Text())
			if !ok {
				return
			}
			href := firstAttr(link, "href")
			if href == "" {
				return
			}
			ch := model.NewChapter(number, req.AbsoluteURL(href))
			ch.Published = parseDate(link.Find(sel.ChapterDate).Text())
			series.AddChapter(ch)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", seriesURL, err)
	}

	s.log.Info().
		Str("series", series.Title).
		Int("chapters", len(series.Chapters)).
		Msg("series discovered")
	return series, nil
}

// Discover reads a chapter page and replaces ch.Assets with its page
// images in document order. It reports false when the page could not be
// read or holds no images; ch is left untouched in that case.
func (s *Scraper) Discover(ctx context.Context, ch *model.Chapter) bool {
	if ch == nil || ch.URL == "" {
		return false
	}
	log := s.log.With().Str("chapter", ch.Title).Logger()

	var urls []string
	err := s.visit(ctx, ch.URL, func(doc *goquery.Selection, req *colly.Request) {
		urls = urls[:0]
		doc.Find(s.selectors.PageContainers).Each(func(_ int, container *goquery.Selection) {
			src := firstAttr(container.Find("img").First(), "data-src", "src")
			if !isImageURL(src) {
				return
			}
			urls = append(urls, req.AbsoluteURL(src))
		})
	})
	if err != nil {
		log.Warn().Err(err).Msg("chapter page unavailable")
		return false
	}
	if len(urls) == 0 {
		log.Warn().Msg("no pages found")
		return false
	}

	ch.SetAssets(urls)
	log.Debug().Int("pages", len(urls)).Msg("pages discovered")
	return true
}

func (s *Scraper) collector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}
	if s.jar != nil {
		c.SetCookieJar(s.jar)
	}
	return c
}

// visit fetches pageURL and calls onPage with the document root. Failed
// requests are retried with backoff; a response without an HTML document
// is not.
func (s *Scraper) visit(ctx context.Context, pageURL string, onPage func(doc *goquery.Selection, req *colly.Request)) error {
	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		handled := false
		c := s.collector()
		c.OnHTML("html", func(e *colly.HTMLElement) {
			handled = true
			onPage(e.DOM, e.Request)
		})

		err := c.Visit(pageURL)
		if err == nil {
			if !handled {
				return ErrNotHTML
			}
			return nil
		}

		lastErr = err
		s.log.Warn().Err(err).Str("url", pageURL).Int("attempt", attempt+1).Msg("page request failed")
		if attempt == s.retries-1 {
			break
		}
		if err := s.backoff.Wait(ctx, attempt); err != nil {
			return err
		}
	}
	return lastErr
}
