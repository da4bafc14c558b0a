package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mhttp "github.com/handiism/manga-downloader/internal/http"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/workerpool"
)

const seriesPage = `<!DOCTYPE html><html><body>
<h1 class="title">Tower: of God</h1>
<div class="img-manga"><img src="/covers/tog.jpg"></div>
<div class="col-md-7">
  <a href="/author/siu">SIU</a>
  <span class="text-ongoing">Ongoing</span>
  <a class="badge" href="/genre/action">Action</a>
  <a class="badge" href="/genre/fantasy">Fantasy</a>
</div>
<p class="content">A boy enters the tower.</p>
<div class="list">
  <a class="list-group-item" href="/chapter/3">Chapter 3 <p class="text-right">Mar 03, 2023</p></a>
  <a class="list-group-item" href="/chapter/1">Chapter 1 <p class="text-right">2023-01-01</p></a>
  <a class="list-group-item" href="/chapter/2.5">chapter 2.5 <p class="text-right">5 days ago</p></a>
  <a class="list-group-item" href="/notice">Announcement</a>
</div>
</body></html>`

const chapterPage = `<!DOCTYPE html><html><body>
<div class="hview"><img data-src="/pages/1.jpg" src="data:image/gif;base64,R0lGOD"></div>
<div class="hview"><img src="https://cdn.example.com/pages/2"></div>
<div class="hview"><img src="/ads/banner.html"></div>
<div class="hview"></div>
<div class="hview"><img src="pages/4.webp?token=abc"></div>
</body></html>`

func htmlServer(t *testing.T, pages map[string]string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(opts ...Option) *Scraper {
	opts = append([]Option{
		WithRetries(2),
		WithBackoff(workerpool.Backoff{Base: time.Millisecond, Factor: 2}),
	}, opts...)
	return NewScraper(mhttp.NewClient(), opts...)
}

func TestScraper_FetchSeries(t *testing.T) {
	srv := htmlServer(t, map[string]string{"/manga/tog": seriesPage})
	dir := t.TempDir()

	series, err := newTestScraper().FetchSeries(context.Background(), srv.URL+"/manga/tog", dir)
	require.NoError(t, err)

	assert.Equal(t, "Tower: of God", series.Title)
	assert.Contains(t, series.Dir, "Tower of God")
	assert.Equal(t, "SIU", series.Author)
	assert.Equal(t, "Ongoing", series.Status)
	assert.Equal(t, []string{"Action", "Fantasy"}, series.Genres)
	assert.Equal(t, "A boy enters the tower.", series.Summary)
	assert.Equal(t, srv.URL+"/covers/tog.jpg", series.CoverURL)

	require.Len(t, series.Chapters, 3)
	assert.Equal(t, 1.0, series.Chapters[0].Number)
	assert.Equal(t, 2.5, series.Chapters[1].Number)
	assert.Equal(t, 3.0, series.Chapters[2].Number)
	assert.Equal(t, srv.URL+"/chapter/2.5", series.Chapters[1].URL)
	assert.Contains(t, series.Chapters[1].Dir, "Chapter_2.5")

	assert.Equal(t, 2023, series.Chapters[0].Published.Year())
	assert.Equal(t, 3, int(series.Chapters[2].Published.Month()))
	assert.True(t, series.Chapters[1].Published.IsZero())
}

func TestScraper_FetchSeriesNotFound(t *testing.T) {
	srv := htmlServer(t, nil)

	_, err := newTestScraper().FetchSeries(context.Background(), srv.URL+"/missing", t.TempDir())
	assert.Error(t, err)
}

func TestScraper_Discover(t *testing.T) {
	srv := htmlServer(t, map[string]string{"/chapter/1": chapterPage})

	ch := model.NewChapter(1, srv.URL+"/chapter/1")
	ch.Dir = "/downloads/x/Chapter_1"

	scraper := newTestScraper()
	require.True(t, scraper.Discover(context.Background(), ch))

	require.Len(t, ch.Assets, 3)
	assert.Equal(t, srv.URL+"/pages/1.jpg", ch.Assets[0].URL)
	assert.Equal(t, "https://cdn.example.com/pages/2", ch.Assets[1].URL)
	assert.Equal(t, srv.URL+"/chapter/pages/4.webp?token=abc", ch.Assets[2].URL)
	assert.Equal(t, "/downloads/x/Chapter_1/page_003.jpg", ch.Assets[2].Path)

	// Discovering again yields the same ordinal to URL mapping.
	first := make([]string, len(ch.Assets))
	for i, a := range ch.Assets {
		first[i] = a.URL + " " + a.Path
	}
	require.True(t, scraper.Discover(context.Background(), ch))
	for i, a := range ch.Assets {
		assert.Equal(t, first[i], a.URL+" "+a.Path)
	}
}

func TestScraper_DiscoverNoPages(t *testing.T) {
	srv := htmlServer(t, map[string]string{"/chapter/1": `<html><body><p>nothing</p></body></html>`})

	ch := model.NewChapter(1, srv.URL+"/chapter/1")
	ch.SetAssets([]string{"keep"})

	assert.False(t, newTestScraper().Discover(context.Background(), ch))
	assert.Len(t, ch.Assets, 1)
}

func TestScraper_RetriesFailedPages(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(chapterPage))
	}))
	defer srv.Close()

	ch := model.NewChapter(1, srv.URL+"/chapter/1")
	assert.True(t, newTestScraper().Discover(context.Background(), ch))
	assert.Equal(t, int32(2), calls.Load())
}

func TestScraper_CustomSelectors(t *testing.T) {
	srv := htmlServer(t, map[string]string{"/c": `<html><body>
		<section class="reader"><figure><img src="/p/a.png"></figure><figure><img src="/p/b.png"></figure></section>
	</body></html>`})

	sel := DefaultSelectors()
	sel.PageContainers = "section.reader figure"

	ch := model.NewChapter(1, srv.URL+"/c")
	require.True(t, newTestScraper(WithSelectors(sel)).Discover(context.Background(), ch))
	assert.Len(t, ch.Assets, 2)
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://x.com/a.jpg", true},
		{"https://x.com/a.JPEG?w=100", true},
		{"https://x.com/a.webp", true},
		{"https://cdn.x.com/12345", true},
		{"https://x.com/img/12345", true},
		{"https://x.com/page.html", false},
		{"data:image/gif;base64,R0lGOD", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, isImageURL(tt.url))
		})
	}
}

func TestParseChapterNumber(t *testing.T) {
	n, ok := parseChapterNumber("  Chapter 12.5 : The End ")
	require.True(t, ok)
	assert.Equal(t, 12.5, n)

	_, ok = parseChapterNumber("Volume 3")
	assert.False(t, ok)
}

func TestDiscoverAll(t *testing.T) {
	var chapters []*model.Chapter
	for n := 1; n <= 9; n++ {
		chapters = append(chapters, model.NewChapter(float64(n), ""))
	}

	var mu sync.Mutex
	active, peak := 0, 0
	d := DiscovererFunc(func(ctx context.Context, ch *model.Chapter) bool {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return int(ch.Number)%3 != 0
	})

	failed, err := DiscoverAll(context.Background(), d, chapters, 3, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, failed, 3)
	assert.Equal(t, []float64{3, 6, 9}, []float64{failed[0].Number, failed[1].Number, failed[2].Number})
	assert.LessOrEqual(t, peak, 3)
}

func TestDiscoverAll_InvalidWorkers(t *testing.T) {
	_, err := DiscoverAll(context.Background(), DiscovererFunc(nil), nil, 0, zerolog.Nop())
	assert.ErrorIs(t, err, workerpool.ErrInvalidLimit)
}
