package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"path"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Open interprets a spooled payload as a paginated document. A zip archive
// is treated as one page per image entry, ordered by entry name; a bare
// image is a single-page document.
func Open(ra io.ReaderAt, size int64) (Document, error) {
	magic := make([]byte, 4)
	if _, err := ra.ReadAt(magic, 0); err != nil {
		return nil, fmt.Errorf("failed to read document header: %w", err)
	}

	if bytes.Equal(magic, zipMagic) {
		return openArchive(ra, size)
	}
	return openSingleImage(ra, size)
}

type page struct {
	open   func() (io.ReadCloser, error)
	width  int
	height int
}

type imageDocument struct {
	pages  []page
	closed bool
}

func openArchive(ra io.ReaderAt, size int64) (*imageDocument, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open document archive: %w", err)
	}

	var entries []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".png", ".jpg", ".jpeg", ".gif":
			entries = append(entries, f)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("document archive contains no pages")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	doc := &imageDocument{}
	for _, entry := range entries {
		entry := entry
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open page %s: %w", entry.Name, err)
		}
		cfg, _, err := image.DecodeConfig(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode page %s: %w", entry.Name, err)
		}
		doc.pages = append(doc.pages, page{
			open:   entry.Open,
			width:  cfg.Width,
			height: cfg.Height,
		})
	}

	return doc, nil
}

func openSingleImage(ra io.ReaderAt, size int64) (*imageDocument, error) {
	cfg, _, err := image.DecodeConfig(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return nil, fmt.Errorf("failed to decode document image: %w", err)
	}

	return &imageDocument{
		pages: []page{{
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(io.NewSectionReader(ra, 0, size)), nil
			},
			width:  cfg.Width,
			height: cfg.Height,
		}},
	}, nil
}

func (d *imageDocument) PageCount() int {
	return len(d.pages)
}

func (d *imageDocument) PageDimensions(i int) (int, int, error) {
	if i < 0 || i >= len(d.pages) {
		return 0, 0, fmt.Errorf("page %d out of range (document has %d pages)", i, len(d.pages))
	}
	return d.pages[i].width, d.pages[i].height, nil
}

// RenderPage decodes a page and scales it to exactly the requested size over
// an opaque white background, so transparency never composites to black.
func (d *imageDocument) RenderPage(i, targetWidth, targetHeight int) (*image.RGBA, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", i, len(d.pages))
	}
	if targetWidth < 1 || targetHeight < 1 {
		return nil, fmt.Errorf("invalid render size %dx%d", targetWidth, targetHeight)
	}

	rc, err := d.pages[i].open()
	if err != nil {
		return nil, fmt.Errorf("failed to open page %d: %w", i, err)
	}
	defer rc.Close()

	src, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", i, err)
	}

	out := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return out, nil
}

func (d *imageDocument) Close() error {
	d.closed = true
	return nil
}
