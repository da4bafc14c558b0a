package pack

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"

	ioutils "github.com/handiism/manga-downloader/internal/io"
	"github.com/handiism/manga-downloader/internal/model"
)

// PackEPUB writes {series.Dir}/{title}.epub with one section per acquired
// chapter and returns its path. A cover.jpg in the series folder becomes
// the first section.
func (p *Packer) PackEPUB(ctx context.Context, series *model.Series) (string, error) {
	chapters := acquired(series)
	if len(chapters) == 0 {
		return "", ErrNothingToPack
	}

	e, err := epub.NewEpub(series.Title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	if series.Author != "" {
		e.SetAuthor(series.Author)
	}
	if series.Summary != "" {
		e.SetDescription(series.Summary)
	}
	e.SetLang("en")

	// Converted pages must outlive e.Write, which reads every image.
	staging, err := os.MkdirTemp("", "manga-epub-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	if cover := filepath.Join(series.Dir, CoverFileName); fileExists(cover) {
		internal, err := e.AddImage(cover, CoverFileName)
		if err != nil {
			return "", fmt.Errorf("failed to add cover: %w", err)
		}
		if _, err := e.AddSection(imageSection("", internal, "Cover"), "Cover", "", ""); err != nil {
			return "", fmt.Errorf("failed to add cover section: %w", err)
		}
	}

	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := p.addChapter(ctx, e, ch, staging); err != nil {
			return "", fmt.Errorf("failed to add %s: %w", ch.Title, err)
		}
	}

	name := ioutils.SanitizeFileName(model.SanitizeTitle(series.Title)) + ".epub"
	path := filepath.Join(series.Dir, name)
	if err := ioutils.EnsureDir(series.Dir); err != nil {
		return "", err
	}
	if err := e.Write(path); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}

	p.log.Info().Str("series", series.Title).Int("chapters", len(chapters)).Str("path", path).Msg("epub written")
	for _, ch := range chapters {
		p.cleanup(ch)
	}
	return path, nil
}

func (p *Packer) addChapter(ctx context.Context, e *epub.Epub, ch *model.Chapter, staging string) error {
	var body strings.Builder
	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(ch.Title))

	for _, asset := range ch.Assets {
		source, err := p.stagePage(ctx, asset, ch, staging)
		if err != nil {
			return err
		}
		// Page files share names across chapters.
		name := ch.FolderName() + "_" + asset.Name()
		internal, err := e.AddImage(source, name)
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", asset.Name(), err)
		}
		body.WriteString(imageSection("page", internal, fmt.Sprintf("Page %d", asset.Ordinal)))
	}

	_, err := e.AddSection(body.String(), ch.Title, "", "")
	return err
}

// stagePage returns a file path go-epub can read for asset: the original
// page, or a JPEG copy in staging when the page had to be scaled or was
// not a JPEG.
func (p *Packer) stagePage(ctx context.Context, asset *model.Asset, ch *model.Chapter, staging string) (string, error) {
	data, err := os.ReadFile(asset.Path)
	if err != nil {
		return "", err
	}

	format, err := p.images.Format(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", asset.Path, err)
	}
	if format == "jpeg" && p.opts.MaxImageSize <= 0 {
		return asset.Path, nil
	}

	if p.opts.MaxImageSize > 0 {
		data, err = p.images.ResizeImage(ctx, data, p.opts.MaxImageSize, p.opts.MaxImageSize)
	} else {
		data, err = p.images.ConvertToJPEG(ctx, data)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", asset.Path, err)
	}

	staged := filepath.Join(staging, ch.FolderName()+"_"+asset.Name())
	if err := os.WriteFile(staged, data, 0o644); err != nil {
		return "", err
	}
	return staged, nil
}

func imageSection(class, src, alt string) string {
	return fmt.Sprintf(`<div class="%s"><img src="%s" alt="%s" style="width:100%%;height:auto;"/></div>`+"\n",
		class, src, html.EscapeString(alt))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
