// Package pack turns acquired chapters into reader-friendly archives.
//
// Packing is a batch step over files already on disk and runs after the
// download pipeline. Only chapters whose outcome is acquired are packed.
//
// # Formats
//
//   - FormatCBZ writes one {chapterDir}.cbz per chapter, a zip of its
//     pages in reading order.
//   - FormatEPUB writes a single {seriesDir}/{title}.epub with one section
//     per chapter. WebP pages are converted to JPEG.
//   - FormatImages leaves the page folders as they are.
//
// # Basic Usage
//
//	packer := pack.New(pack.Options{Format: pack.FormatCBZ, MaxImageSize: 1600})
//	written, err := packer.Pack(ctx, series)
package pack
