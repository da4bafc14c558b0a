package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"One Piece", "One Piece"},
		{"Re:Zero - Starting Life", "ReZero - Starting Life"},
		{"Kaguya-sama: Love is War!", "Kaguya-sama Love is War"},
		{"snake_case_title", "snake_case_title"},
		{"trailing spaces   ", "trailing spaces"},
		{"???", DefaultSeriesFolder},
		{"", DefaultSeriesFolder},
		{"進撃の巨人", "進撃の巨人"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.input))
		})
	}
}

func TestChapterFolderName(t *testing.T) {
	tests := []struct {
		number float64
		want   string
	}{
		{1, "Chapter_1"},
		{10, "Chapter_10"},
		{10.5, "Chapter_10.5"},
		{0, "Chapter_0"},
		{112.1, "Chapter_112.1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ChapterFolderName(tt.number))
		})
	}
}

func TestAssetFileName(t *testing.T) {
	assert.Equal(t, "page_001.jpg", AssetFileName(1))
	assert.Equal(t, "page_042.jpg", AssetFileName(42))
	assert.Equal(t, "page_1000.jpg", AssetFileName(1000))
}

func TestSeries_Layout(t *testing.T) {
	s := NewSeries("Solo: Leveling", "https://example.com/solo", "/downloads")
	assert.Equal(t, filepath.Join("/downloads", "Solo Leveling"), s.Dir)

	ch := s.AddChapter(NewChapter(3.5, "https://example.com/solo/3.5"))
	assert.Equal(t, "Chapter 3.5", ch.Title)
	assert.Equal(t, filepath.Join(s.Dir, "Chapter_3.5"), ch.Dir)

	ch.SetAssets([]string{"https://img/a.jpg", "https://img/b.jpg"})
	require.Len(t, ch.Assets, 2)
	assert.Equal(t, 2, ch.Assets[1].Ordinal)
	assert.Equal(t, filepath.Join(ch.Dir, "page_002.jpg"), ch.Assets[1].Path)
	assert.Equal(t, OutcomePending, ch.Assets[1].Outcome)
}

func TestSeries_AddChapterKeepsOrder(t *testing.T) {
	s := NewSeries("Test", "", t.TempDir())
	for _, n := range []float64{5, 1, 2.5, 10, 2} {
		s.AddChapter(NewChapter(n, ""))
	}

	var got []float64
	for _, ch := range s.Chapters {
		got = append(got, ch.Number)
	}
	assert.Equal(t, []float64{1, 2, 2.5, 5, 10}, got)
	assert.True(t, s.IsSorted())
}

func TestChapter_SetAssetsIsDeterministic(t *testing.T) {
	ch := NewChapter(1, "")
	ch.Dir = "/tmp/x"
	urls := []string{"u1", "u2", "u3"}

	ch.SetAssets(urls)
	first := make(map[int]string)
	for _, a := range ch.Assets {
		first[a.Ordinal] = a.URL + "|" + a.Path
	}

	ch.SetAssets(urls)
	for _, a := range ch.Assets {
		assert.Equal(t, first[a.Ordinal], a.URL+"|"+a.Path)
	}
}

func TestSeries_Queries(t *testing.T) {
	s := NewSeries("Test", "", "/d")
	for _, n := range []float64{1, 2, 3, 3.5, 4} {
		s.AddChapter(NewChapter(n, ""))
	}
	s.Chapters[0].SetAssets([]string{"a", "b"})
	s.Chapters[2].SetAssets([]string{"c"})
	s.Chapters[1].Outcome = OutcomeFailed

	assert.Equal(t, 3, s.TotalAssets())
	assert.Len(t, s.ChaptersInRange(2, 3.5), 3)
	assert.Equal(t, 3.5, s.Chapter(3.5).Number)
	assert.Nil(t, s.Chapter(9))
	require.Len(t, s.FailedChapters(), 1)
	assert.Equal(t, 2.0, s.FailedChapters()[0].Number)

	sub := s.WithChapters([]*Chapter{s.Chapters[4], s.Chapters[0]})
	require.Len(t, sub.Chapters, 2)
	assert.Equal(t, 1.0, sub.Chapters[0].Number)
	assert.Len(t, s.Chapters, 5)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		expr    string
		match   []float64
		nomatch []float64
	}{
		{"all", []float64{1, 99.5}, nil},
		{"", []float64{0}, nil},
		{"5", []float64{5}, []float64{4, 5.5}},
		{"1-3", []float64{1, 2, 2.5, 3}, []float64{3.5}},
		{"1-2, 7, 10.5", []float64{1, 7, 10.5}, []float64{3, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			sel, err := ParseSelection(tt.expr)
			require.NoError(t, err)
			for _, n := range tt.match {
				assert.True(t, sel.Matches(n), "expected %v to match", n)
			}
			for _, n := range tt.nomatch {
				assert.False(t, sel.Matches(n), "expected %v not to match", n)
			}
		})
	}
}

func TestParseSelection_Invalid(t *testing.T) {
	for _, expr := range []string{"abc", "5-2", "1,,2", "1-x", "-3"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseSelection(expr)
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})
	}
}

func TestSelectKeys(t *testing.T) {
	sel := SelectKeys(2, 7.5)
	assert.False(t, sel.IsAll())
	assert.True(t, sel.Matches(2))
	assert.True(t, sel.Matches(7.5))
	assert.False(t, sel.Matches(3))

	assert.False(t, SelectKeys().Matches(1))
}
