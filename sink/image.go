package sink

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"octrace/color"
)

func stem(path, ext string) string {
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path[:len(path)-len(ext)]
	}
	return path
}

func frameName(stem string, frame int, ext string) string {
	return fmt.Sprintf("%s%04d%s", stem, frame, ext)
}

// Encoder writes one finished frame.
type Encoder func(w io.Writer, im image.Image) error

// Image buffers a frame and encodes it to <stem><frame>.<ext> once it is
// finished.
type Image struct {
	stem   string
	ext    string
	encode Encoder
	opaque bool

	im *image.NRGBA
}

// NewImage returns an image sink.  If opaque is set, samples are composited
// over black before encoding.
func NewImage(path, ext string, opaque bool, encode Encoder) *Image {
	return &Image{
		stem:   stem(path, ext),
		ext:    ext,
		encode: encode,
		opaque: opaque,
	}
}

func NewPNG(path string) *Image {
	return NewImage(path, ".png", false, png.Encode)
}

func NewJPEG(path string, quality int) *Image {
	return NewImage(stem(path, ".jpeg"), ".jpg", true, func(w io.Writer, im image.Image) error {
		return jpeg.Encode(w, im, &jpeg.Options{Quality: quality})
	})
}

func NewBMP(path string) *Image {
	return NewImage(path, ".bmp", true, bmp.Encode)
}

func NewTIFF(path string) *Image {
	return NewImage(stem(path, ".tif"), ".tiff", false, func(w io.Writer, im image.Image) error {
		return tiff.Encode(w, im, &tiff.Options{Compression: tiff.Deflate})
	})
}

func (s *Image) Init(width, height, frames int) error {
	s.im = image.NewNRGBA(image.Rect(0, 0, width, height))
	return nil
}

func (s *Image) StartFrame(frame int) error {
	if s.im == nil {
		return fmt.Errorf("frame %d started before Init", frame)
	}
	for i := range s.im.Pix {
		s.im.Pix[i] = 0
	}
	return nil
}

func (s *Image) SetSample(x, y int, c color.Color) error {
	if s.opaque {
		c = c.Over(color.Black())
	}
	s.im.SetNRGBA(x, y, c.NRGBA())
	return nil
}

func (s *Image) FinishFrame(frame int) error {
	name := frameName(s.stem, frame, s.ext)

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating output: %w", err)
	}

	if err := s.encode(f, s.im); err != nil {
		f.Close()
		return fmt.Errorf("while encoding %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing %s: %w", name, err)
	}
	return nil
}
