package pack

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	ioutils "github.com/handiism/manga-downloader/internal/io"
	"github.com/handiism/manga-downloader/internal/model"
)

// Formats understood by Packer.
const (
	FormatImages = "images"
	FormatCBZ    = "cbz"
	FormatEPUB   = "epub"
)

// CoverFileName is the series cover image looked up in the series folder.
const CoverFileName = "cover.jpg"

var (
	// ErrNothingToPack is returned when no chapter was acquired.
	ErrNothingToPack = errors.New("pack: no acquired chapters")
	// ErrUnknownFormat is returned for an unsupported format name.
	ErrUnknownFormat = errors.New("pack: unknown format")
)

// Options configures a Packer.
type Options struct {
	// Format is one of FormatImages, FormatCBZ, FormatEPUB.
	Format string

	// MaxImageSize, when positive, scales pages down to fit a square of
	// this many pixels.
	MaxImageSize int

	// DeleteImages removes a chapter folder once it has been packed.
	DeleteImages bool

	Logger zerolog.Logger
}

// Packer writes archives for acquired chapters.
type Packer struct {
	opts   Options
	images *ioutils.ImageService
	log    zerolog.Logger
}

// New creates a Packer.
func New(opts Options) *Packer {
	if opts.Format == "" {
		opts.Format = FormatImages
	}
	return &Packer{
		opts:   opts,
		images: ioutils.NewImageService(),
		log:    opts.Logger,
	}
}

// Pack packs series in the configured format and returns the written
// archive paths. FormatImages writes nothing.
func (p *Packer) Pack(ctx context.Context, series *model.Series) ([]string, error) {
	switch p.opts.Format {
	case FormatImages:
		return nil, nil
	case FormatCBZ:
		return p.PackCBZ(ctx, series)
	case FormatEPUB:
		path, err := p.PackEPUB(ctx, series)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, p.opts.Format)
}

// PackCBZ writes one archive per acquired chapter. A chapter that fails to
// pack is logged and skipped; the error is returned only when no archive
// could be written.
func (p *Packer) PackCBZ(ctx context.Context, series *model.Series) ([]string, error) {
	chapters := acquired(series)
	if len(chapters) == 0 {
		return nil, ErrNothingToPack
	}

	var written []string
	var errs []error
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := p.PackChapterCBZ(ctx, ch)
		if err != nil {
			p.log.Error().Err(err).Str("chapter", ch.Title).Msg("cbz failed")
			errs = append(errs, err)
			continue
		}
		written = append(written, path)
	}
	if len(written) == 0 {
		return nil, errors.Join(errs...)
	}
	return written, nil
}

// readPage loads a page, scaled down when MaxImageSize is set.
func (p *Packer) readPage(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if p.opts.MaxImageSize <= 0 {
		return data, nil
	}
	return p.images.ResizeImage(ctx, data, p.opts.MaxImageSize, p.opts.MaxImageSize)
}

func (p *Packer) cleanup(ch *model.Chapter) {
	if !p.opts.DeleteImages {
		return
	}
	if err := os.RemoveAll(ch.Dir); err != nil {
		p.log.Warn().Err(err).Str("dir", ch.Dir).Msg("cannot delete chapter images")
	}
}

func acquired(series *model.Series) []*model.Chapter {
	var out []*model.Chapter
	for _, ch := range series.Chapters {
		if ch.Outcome == model.OutcomeAcquired {
			out = append(out, ch)
		}
	}
	return out
}
