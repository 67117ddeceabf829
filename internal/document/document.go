// Package document supplies seekable, paginated page sources for the print
// pipeline. Submitted payloads may arrive as non-seekable streams, so they
// are always spooled to a locally owned temp file before page random access
// begins.
package document

import (
	"image"
	"io"
)

type Document interface {
	PageCount() int
	PageDimensions(page int) (width, height int, err error)
	RenderPage(page, targetWidth, targetHeight int) (*image.RGBA, error)
	Close() error
}

// Source hands out the raw submitted payload. The reader it returns may not
// support seeking.
type Source interface {
	Open() (io.ReadCloser, error)
}
