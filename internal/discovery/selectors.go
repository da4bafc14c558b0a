package discovery

import "regexp"

// chapterNumber extracts the chapter key from a chapter link text.
var chapterNumber = regexp.MustCompile(`(?i)Chapter\s+(\d+(?:\.\d+)?)`)

// Selectors are the CSS selectors used to read a series page and a chapter
// page.
type Selectors struct {
	// Series page.
	Title        string
	Cover        string
	Author       string
	Status       string
	Genres       string
	Summary      string
	ChapterLinks string
	// ChapterDate is looked up inside each chapter link.
	ChapterDate string

	// Chapter page. The first img inside each PageContainers element is
	// one page, in document order.
	PageContainers string
}

// DefaultSelectors matches the layout of the default manga site.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:          "h1.title",
		Cover:          "div.img-manga img",
		Author:         "div.col-md-7 a[href*='/author/']",
		Status:         "div.col-md-7 span.text-ongoing",
		Genres:         "div.col-md-7 a.badge",
		Summary:        "p.content",
		ChapterLinks:   "div.list a.list-group-item",
		ChapterDate:    "p.text-right",
		PageContainers: "div.hview",
	}
}
