package model

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// DefaultSeriesFolder is used when a title sanitizes to nothing.
const DefaultSeriesFolder = "untitled_manga"

// Series represents a manga series with its metadata and chapters.
//
// The Chapters slice is kept sorted ascending by chapter key. Acquisition
// only writes chapter and asset outcomes back into it, so after a run the
// caller can inspect exactly which chapters failed.
type Series struct {
	// Title is the human-readable series title.
	Title string

	// URL is the series page the chapter list was discovered from.
	URL string

	// Author, Status, Genres, Summary and CoverURL are informational
	// metadata. Any of them may be empty.
	Author   string
	Status   string
	Genres   []string
	Summary  string
	CoverURL string

	// Chapters holds the series chapters, sorted by Number.
	Chapters []*Chapter

	// Dir is the local directory the series is materialized into:
	// {baseDir}/{SanitizeTitle(Title)}.
	Dir string
}

// NewSeries creates a Series rooted under baseDir.
func NewSeries(title, url, baseDir string) *Series {
	return &Series{
		Title: title,
		URL:   url,
		Dir:   filepath.Join(baseDir, SanitizeTitle(title)),
	}
}

// AddChapter inserts ch keeping the chapter list sorted and assigns its
// directory when it has none yet. Chapters with equal keys are kept; the
// new one is placed after existing ones.
func (s *Series) AddChapter(ch *Chapter) *Chapter {
	if ch.Dir == "" {
		ch.Dir = filepath.Join(s.Dir, ch.FolderName())
	}
	i, _ := slices.BinarySearchFunc(s.Chapters, ch.Number, func(c *Chapter, n float64) int {
		if c.Number <= n {
			return -1
		}
		return 1
	})
	s.Chapters = slices.Insert(s.Chapters, i, ch)
	return ch
}

// SortChapters restores ascending key order after Chapters was edited
// directly.
func (s *Series) SortChapters() {
	slices.SortStableFunc(s.Chapters, compareChapters)
}

// IsSorted reports whether Chapters is in ascending key order.
func (s *Series) IsSorted() bool {
	return slices.IsSortedFunc(s.Chapters, compareChapters)
}

// Chapter returns the first chapter with the given key, or nil.
func (s *Series) Chapter(number float64) *Chapter {
	for _, ch := range s.Chapters {
		if ch.Number == number {
			return ch
		}
	}
	return nil
}

// ChaptersInRange returns the chapters whose key lies in [start, end].
func (s *Series) ChaptersInRange(start, end float64) []*Chapter {
	var out []*Chapter
	for _, ch := range s.Chapters {
		if ch.Number >= start && ch.Number <= end {
			out = append(out, ch)
		}
	}
	return out
}

// Select returns the chapters matched by sel, in ascending order.
func (s *Series) Select(sel Selection) []*Chapter {
	var out []*Chapter
	for _, ch := range s.Chapters {
		if sel.Matches(ch.Number) {
			out = append(out, ch)
		}
	}
	return out
}

// WithChapters returns a shallow copy of s that holds only chapters.
// The chapters themselves are shared, so outcomes recorded on the copy are
// visible through s.
func (s *Series) WithChapters(chapters []*Chapter) *Series {
	cp := *s
	cp.Chapters = slices.Clone(chapters)
	cp.SortChapters()
	return &cp
}

// TotalAssets returns the number of assets across all chapters.
func (s *Series) TotalAssets() int {
	total := 0
	for _, ch := range s.Chapters {
		total += len(ch.Assets)
	}
	return total
}

// FailedChapters returns the chapters whose outcome is OutcomeFailed.
func (s *Series) FailedChapters() []*Chapter {
	var out []*Chapter
	for _, ch := range s.Chapters {
		if ch.Outcome == OutcomeFailed {
			out = append(out, ch)
		}
	}
	return out
}

// SanitizeTitle turns a series title into a folder name. Only letters,
// digits, spaces, hyphens and underscores are kept and trailing spaces are
// trimmed. An empty result becomes DefaultSeriesFolder.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimRight(b.String(), " ")
	if out == "" {
		return DefaultSeriesFolder
	}
	return out
}

func compareChapters(a, b *Chapter) int {
	switch {
	case a.Number < b.Number:
		return -1
	case a.Number > b.Number:
		return 1
	}
	return 0
}
