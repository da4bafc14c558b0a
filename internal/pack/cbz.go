package pack

import (
	"archive/zip"
	"context"
	"io"
	"time"

	ioutils "github.com/handiism/manga-downloader/internal/io"
	"github.com/handiism/manga-downloader/internal/model"
)

// PackChapterCBZ writes {ch.Dir}.cbz holding the chapter pages in ordinal
// order and returns its path.
func (p *Packer) PackChapterCBZ(ctx context.Context, ch *model.Chapter) (string, error) {
	path := ch.Dir + ".cbz"

	err := ioutils.WriteFileAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, asset := range ch.Assets {
			data, err := p.readPage(ctx, asset.Path)
			if err != nil {
				return err
			}
			// Pages are already compressed images.
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     asset.Name(),
				Method:   zip.Store,
				Modified: time.Now(),
			})
			if err != nil {
				return err
			}
			if _, err := fw.Write(data); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return "", err
	}

	p.log.Info().Str("chapter", ch.Title).Str("path", path).Msg("cbz written")
	p.cleanup(ch)
	return path, nil
}
