package sink

import (
	"bufio"
	"fmt"
	"io"

	"octrace/color"
)

// Y4M writes a single 4:4:4 YUV4MPEG2 stream.
type Y4M struct {
	w   *bufio.Writer
	fps int

	width, height int
	planes        []byte
}

func NewY4M(w io.Writer, fps int) *Y4M {
	return &Y4M{w: bufio.NewWriter(w), fps: fps}
}

func (s *Y4M) Init(width, height, frames int) error {
	s.width = width
	s.height = height
	s.planes = make([]byte, 3*width*height)

	if _, err := fmt.Fprintf(s.w, "YUV4MPEG2 W%d H%d F%d:1 Ip A1:1 C444\n", width, height, s.fps); err != nil {
		return fmt.Errorf("while writing stream header: %w", err)
	}
	return nil
}

func (s *Y4M) StartFrame(frame int) error {
	for i := range s.planes {
		s.planes[i] = 0
	}
	return nil
}

func (s *Y4M) SetSample(x, y int, c color.Color) error {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return fmt.Errorf("sample (%d, %d) outside %dx%d frame", x, y, s.width, s.height)
	}
	n := s.width * s.height
	i := y*s.width + x
	s.planes[i], s.planes[n+i], s.planes[2*n+i] = c.YCbCr()
	return nil
}

func (s *Y4M) FinishFrame(frame int) error {
	if _, err := io.WriteString(s.w, "FRAME\n"); err != nil {
		return fmt.Errorf("while writing frame header: %w", err)
	}
	if _, err := s.w.Write(s.planes); err != nil {
		return fmt.Errorf("while writing frame: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("while flushing frame: %w", err)
	}
	return nil
}
