// Package rawimage stores unclamped float32 RGBA frames.
//
// A file is an 8-byte little-endian header length, a protobuf-encoded
// google.protobuf.Struct header, and a zlib stream of little-endian float32
// samples in row-major RGBA order.
package rawimage

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"octrace/color"
)

const (
	Channels      = 4
	LayoutVersion = 1

	// Headers larger than this are treated as corrupt.
	maxHeaderLength = 1 << 20

	// Images with more pixels than this are treated as corrupt.
	maxPixels = 1 << 28
)

type Image struct {
	Width, Height int
	Frame         int
	Pix           []float32
}

func New(width, height, frame int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Frame:  frame,
		Pix:    make([]float32, width*height*Channels),
	}
}

func (im *Image) Set(x, y int, c color.Color) {
	i := (y*im.Width + x) * Channels
	im.Pix[i+0] = c.R
	im.Pix[i+1] = c.G
	im.Pix[i+2] = c.B
	im.Pix[i+3] = c.A
}

func (im *Image) At(x, y int) color.Color {
	i := (y*im.Width + x) * Channels
	return color.New(im.Pix[i+0], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3])
}

func headerNumber(hdr *structpb.Struct, key string) (int, error) {
	v, ok := hdr.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("header is missing %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("header field %q is not a number", key)
	}
	return int(n.NumberValue), nil
}

func Read(in io.Reader) (*Image, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > maxHeaderLength {
		return nil, fmt.Errorf("bad header length: %d", headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	fields := map[string]int{}
	for _, key := range []string{"layout_version", "channels", "width", "height", "frame"} {
		n, err := headerNumber(hdr, key)
		if err != nil {
			return nil, err
		}
		fields[key] = n
	}

	if fields["layout_version"] != LayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", fields["layout_version"])
	}
	if fields["channels"] != Channels {
		return nil, fmt.Errorf("bad channel count: %v", fields["channels"])
	}
	width, height := fields["width"], fields["height"]
	if width < 0 || height < 0 || (height > 0 && width > maxPixels/height) {
		return nil, fmt.Errorf("bad image size: %vx%v", width, height)
	}

	im := New(width, height, fields["frame"])

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, im.Pix); err != nil {
		return nil, fmt.Errorf("while reading pixels: %w", err)
	}

	return im, nil
}

func ReadFile(name string) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func Write(im *Image, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"width":          im.Width,
		"height":         im.Height,
		"channels":       Channels,
		"frame":          im.Frame,
		"layout_version": LayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, im.Pix); err != nil {
		return fmt.Errorf("while writing pixels: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

func WriteFile(im *Image, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}

	if err := Write(im, f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing file: %w", err)
	}
	return nil
}
