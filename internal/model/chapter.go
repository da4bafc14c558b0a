package model

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"
)

// Outcome is the terminal state of an asset or chapter.
type Outcome int

const (
	// OutcomePending means no terminal outcome has been recorded yet.
	OutcomePending Outcome = iota
	// OutcomeAcquired means the item was fully written to disk.
	OutcomeAcquired
	// OutcomeFailed means the item could not be acquired.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAcquired:
		return "acquired"
	case OutcomeFailed:
		return "failed"
	}
	return "pending"
}

// OutcomeOf maps a boolean result to an Outcome.
func OutcomeOf(ok bool) Outcome {
	if ok {
		return OutcomeAcquired
	}
	return OutcomeFailed
}

// Chapter is an ordered sub-unit of a Series.
//
// A Chapter is owned by exactly one acquirer during a run; nothing else
// writes its assets or outcome concurrently.
type Chapter struct {
	// Title is the display title, e.g. "Chapter 10.5".
	Title string

	// Number is the ordering key. Fractional values mark sub-chapters.
	Number float64

	// URL is the chapter page assets are discovered from.
	URL string

	// Published is the release date if the source exposes one.
	Published time.Time

	// Assets holds the chapter pages in reading order.
	Assets []*Asset

	// Dir is the local folder the pages are written to.
	Dir string

	// Outcome is the chapter-level result of the last acquisition.
	Outcome Outcome
}

// NewChapter creates a chapter titled after its key.
func NewChapter(number float64, url string) *Chapter {
	return &Chapter{
		Title:  "Chapter " + FormatKey(number),
		Number: number,
		URL:    url,
	}
}

// FolderName returns the chapter folder name derived from its key.
func (c *Chapter) FolderName() string {
	return ChapterFolderName(c.Number)
}

// SetAssets replaces the chapter assets with one Asset per URL, numbered
// from 1 in the given order. Paths are derived from c.Dir.
func (c *Chapter) SetAssets(urls []string) {
	c.Assets = make([]*Asset, 0, len(urls))
	for i, u := range urls {
		c.Assets = append(c.Assets, &Asset{
			URL:     u,
			Ordinal: i + 1,
			Path:    filepath.Join(c.Dir, AssetFileName(i+1)),
		})
	}
}

// AcquiredAssets returns the assets whose outcome is OutcomeAcquired.
func (c *Chapter) AcquiredAssets() []*Asset {
	var out []*Asset
	for _, a := range c.Assets {
		if a.Outcome == OutcomeAcquired {
			out = append(out, a)
		}
	}
	return out
}

// ChapterFolderName renders a chapter key as a folder name: Chapter_7 for
// integer keys and Chapter_7.5 for fractional keys.
func ChapterFolderName(number float64) string {
	return "Chapter_" + FormatKey(number)
}

// FormatKey renders integer keys without decimals and fractional keys with
// one decimal place.
func FormatKey(number float64) string {
	if number == math.Trunc(number) {
		return strconv.FormatFloat(number, 'f', 0, 64)
	}
	return strconv.FormatFloat(number, 'f', 1, 64)
}

// AssetFileName returns the file name of the asset at the 1-based ordinal.
func AssetFileName(ordinal int) string {
	return fmt.Sprintf("page_%03d.jpg", ordinal)
}
