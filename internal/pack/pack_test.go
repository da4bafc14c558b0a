package pack

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/manga-downloader/internal/model"
)

func createTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// downloadedSeries builds a series with the given page counts on disk;
// chapters listed in failed are marked failed.
func downloadedSeries(t *testing.T, pages []int, failed ...int) *model.Series {
	s := model.NewSeries("Pack: Test", "", t.TempDir())
	s.Author = "Someone"
	for i, n := range pages {
		ch := s.AddChapter(model.NewChapter(float64(i+1), ""))
		urls := make([]string, n)
		ch.SetAssets(urls)
		for _, a := range ch.Assets {
			createTestPNG(t, a.Path, 20, 30)
			a.Outcome = model.OutcomeAcquired
		}
		ch.Outcome = model.OutcomeAcquired
	}
	for _, f := range failed {
		s.Chapters[f].Outcome = model.OutcomeFailed
	}
	return s
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPackCBZ(t *testing.T) {
	series := downloadedSeries(t, []int{3, 2, 1}, 1)
	packer := New(Options{Format: FormatCBZ, Logger: zerolog.Nop()})

	written, err := packer.Pack(context.Background(), series)
	require.NoError(t, err)
	require.Len(t, written, 2)

	assert.Equal(t, series.Chapters[0].Dir+".cbz", written[0])
	assert.Equal(t, []string{"page_001.jpg", "page_002.jpg", "page_003.jpg"}, zipNames(t, written[0]))
	assert.NoFileExists(t, series.Chapters[1].Dir+".cbz")
	assert.DirExists(t, series.Chapters[0].Dir)
}

func TestPackCBZ_DeleteImagesAndResize(t *testing.T) {
	series := downloadedSeries(t, []int{2})
	packer := New(Options{Format: FormatCBZ, DeleteImages: true, MaxImageSize: 10})

	written, err := packer.Pack(context.Background(), series)
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.NoDirExists(t, series.Chapters[0].Dir)

	r, err := zip.OpenReader(written[0])
	require.NoError(t, err)
	defer r.Close()

	f, err := r.File[0].Open()
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, cfg.Height, 10)
}

func TestPackEPUB(t *testing.T) {
	series := downloadedSeries(t, []int{2, 2})
	createTestPNG(t, filepath.Join(series.Dir, CoverFileName), 10, 10)

	packer := New(Options{Format: FormatEPUB})
	written, err := packer.Pack(context.Background(), series)
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, filepath.Join(series.Dir, "Pack Test.epub"), written[0])

	names := zipNames(t, written[0])
	assert.Equal(t, "mimetype", names[0])

	var images int
	for _, n := range names {
		if strings.Contains(n, "Chapter_") && strings.HasSuffix(n, ".jpg") {
			images++
		}
	}
	assert.Equal(t, 4, images)
}

func TestPack_NothingAcquired(t *testing.T) {
	series := downloadedSeries(t, []int{1}, 0)

	_, err := New(Options{Format: FormatCBZ}).Pack(context.Background(), series)
	assert.ErrorIs(t, err, ErrNothingToPack)

	_, err = New(Options{Format: FormatEPUB}).Pack(context.Background(), series)
	assert.ErrorIs(t, err, ErrNothingToPack)
}

func TestPack_Formats(t *testing.T) {
	series := downloadedSeries(t, []int{1})

	written, err := New(Options{}).Pack(context.Background(), series)
	require.NoError(t, err)
	assert.Empty(t, written)

	_, err = New(Options{Format: "pdf"}).Pack(context.Background(), series)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
