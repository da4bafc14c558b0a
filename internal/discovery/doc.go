// Package discovery resolves series metadata, chapter lists and chapter
// page URLs from HTML pages.
//
// The Scraper is built on colly collectors that share the download
// client's transport, cookie jar and User-Agent. Which elements hold the
// data is described by Selectors, so other site layouts only need a
// different Selectors value:
//
//	scraper := discovery.NewScraper(client)
//	series, err := scraper.FetchSeries(ctx, seriesURL, "/downloads")
//
//	failed, err := discovery.DiscoverAll(ctx, scraper, series.Chapters, 3, log)
//	for _, ch := range failed {
//	    fmt.Println("no pages found for", ch.Title)
//	}
//
// Discovery of a chapter replaces its asset list, so discovering an
// unchanged chapter twice yields the same page files.
package discovery
