// Package ioutils provides file system and image utilities for
// manga-downloader.
//
// This package contains functions for:
//   - Directory creation
//   - Filename sanitization for generated archives
//   - Atomic file writes (write to a temporary file, then rename)
//   - Page image scaling and JPEG conversion
//
// # Atomic Writes
//
//	err := ioutils.WriteFileAtomic("/manga/Series/Chapter_1.cbz", func(w io.Writer) error {
//	    return writeArchive(w)
//	})
//
// A failed write leaves no file behind at the target path.
package ioutils
