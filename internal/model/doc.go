// Package model defines the core data structures used throughout
// the manga-downloader application.
//
// # Series
//
// Series is the top-level collection being acquired. Its Dir is computed
// from the base download directory and a sanitized title:
//
//	series := model.NewSeries("One Piece", seriesURL, "/downloads")
//	fmt.Println(series.Dir) // /downloads/One Piece
//
// # Chapter
//
// Chapters are keyed by a number that may be fractional (10.5 for a
// sub-chapter release). AddChapter keeps them sorted ascending and assigns
// each chapter its folder:
//
//	ch := series.AddChapter(model.NewChapter(10.5, chapterURL))
//	fmt.Println(ch.Dir) // /downloads/One Piece/Chapter_10.5
//
// # Asset
//
// Assets are the pages of a chapter. Their file names derive from their
// 1-based ordinal only, so discovering the same chapter twice yields the
// same files:
//
//	ch.SetAssets([]string{url1, url2})
//	fmt.Println(ch.Assets[1].Path) // .../Chapter_10.5/page_002.jpg
//
// # Selection
//
// ParseSelection turns user input such as "1-10,12,15.5" into a Selection
// that Series.Select applies to the chapter list.
package model
