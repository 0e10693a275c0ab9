// Package sink receives reconstructed frames from the renderer.
package sink

import (
	"fmt"

	"octrace/color"
	"octrace/rawimage"
)

// Sink is called as Init once, then StartFrame, SetSample for every pixel,
// and FinishFrame for each frame.
type Sink interface {
	Init(width, height, frames int) error
	StartFrame(frame int) error
	SetSample(x, y int, c color.Color) error
	FinishFrame(frame int) error
}

type multi []Sink

// Multi forwards every call to each of sinks in order, stopping at the first
// error.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Init(width, height, frames int) error {
	for _, s := range m {
		if err := s.Init(width, height, frames); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) StartFrame(frame int) error {
	for _, s := range m {
		if err := s.StartFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) SetSample(x, y int, c color.Color) error {
	for _, s := range m {
		if err := s.SetSample(x, y, c); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) FinishFrame(frame int) error {
	for _, s := range m {
		if err := s.FinishFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

// Memory keeps every finished frame.
type Memory struct {
	Frames []*rawimage.Image

	width, height int
	cur           *rawimage.Image
}

func (m *Memory) Init(width, height, frames int) error {
	m.width = width
	m.height = height
	m.Frames = make([]*rawimage.Image, 0, frames)
	return nil
}

func (m *Memory) StartFrame(frame int) error {
	m.cur = rawimage.New(m.width, m.height, frame)
	return nil
}

func (m *Memory) SetSample(x, y int, c color.Color) error {
	if m.cur == nil {
		return fmt.Errorf("sample (%d, %d) outside of a frame", x, y)
	}
	m.cur.Set(x, y, c)
	return nil
}

func (m *Memory) FinishFrame(frame int) error {
	if m.cur == nil {
		return fmt.Errorf("frame %d was never started", frame)
	}
	m.Frames = append(m.Frames, m.cur)
	m.cur = nil
	return nil
}

// Raw writes each frame as a rawimage file named <stem><frame>.raw.
type Raw struct {
	mem  Memory
	stem string
}

func NewRaw(path string) *Raw {
	return &Raw{stem: stem(path, ".raw")}
}

func (r *Raw) Init(width, height, frames int) error {
	return r.mem.Init(width, height, 1)
}

func (r *Raw) StartFrame(frame int) error {
	return r.mem.StartFrame(frame)
}

func (r *Raw) SetSample(x, y int, c color.Color) error {
	return r.mem.SetSample(x, y, c)
}

func (r *Raw) FinishFrame(frame int) error {
	im := r.mem.cur
	if err := r.mem.FinishFrame(frame); err != nil {
		return err
	}
	r.mem.Frames = r.mem.Frames[:0]

	name := frameName(r.stem, frame, ".raw")
	if err := rawimage.WriteFile(im, name); err != nil {
		return fmt.Errorf("while writing %s: %w", name, err)
	}
	return nil
}
