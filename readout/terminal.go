// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/smallnest/ringbuffer"
	"periph.io/x/conn/v3/display"
)

// TerminalOpts represents the options available for Terminal.
type TerminalOpts struct {
	W, H    int
	Palette *ansi256.Palette
	// Out defaults to a color capable stdout.
	Out io.Writer
	// Staging is the size in bytes of the ring holding frames not yet
	// written to Out. Defaults to room for a few frames.
	Staging int
}

// Terminal is a 2D display emulator that outputs to the console, one
// character per pixel.
//
// Draw never waits for Out. Each frame is staged whole in a ring and written
// by a background goroutine; a frame that does not fit while the terminal
// is behind is skipped, since the next one repaints everything.
type Terminal struct {
	w       io.Writer
	width   int
	height  int
	palette ansi256.Palette

	mu       sync.Mutex
	pixels   []byte
	frame    []byte
	ring     *ringbuffer.RingBuffer
	frames   int
	dropped  int
	draining bool
	err      error

	// wmu serializes writes to w. It may be held while taking mu, never
	// the other way around.
	wmu   sync.Mutex
	chunk []byte
}

// NewTerminal returns a Terminal of the requested size.
func NewTerminal(opts *TerminalOpts) (*Terminal, error) {
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("readout: invalid terminal size %dx%d", opts.W, opts.H)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	staging := opts.Staging
	if staging <= 0 {
		// About 20 bytes per block plus the line prologue and epilogue.
		staging = max(4096, 4*(opts.H*(20*opts.W+16)+8))
	}
	return &Terminal{
		w:       w,
		width:   opts.W,
		height:  opts.H,
		palette: *p,
		pixels:  make([]byte, 3*opts.W*opts.H),
		ring:    ringbuffer.New(staging),
		chunk:   make([]byte, 512),
	}, nil
}

func (t *Terminal) String() string {
	return fmt.Sprintf("Terminal{%dx%d}", t.width, t.height)
}

// Halt implements conn.Resource.
//
// It writes every staged frame and resets the terminal colors.
func (t *Terminal) Halt() error {
	if err := t.Flush(); err != nil {
		return err
	}
	t.mu.Lock()
	_, err := t.ring.Write([]byte("\033[0m\n"))
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return t.Flush()
}

// ColorModel implements display.Drawer.
func (t *Terminal) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (t *Terminal) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: t.width, Y: t.height}}
}

// Draw implements display.Drawer.
//
// The returned error is the last error Out returned, if any, since the
// previous Draw.
func (t *Terminal) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	r = r.Intersect(t.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	if dY := r.Dy(); dY < srcR.Dy() {
		srcR.Max.Y = srcR.Min.Y + dY
	}
	for sY := srcR.Min.Y; sY < srcR.Max.Y; sY++ {
		dY := sY - srcR.Min.Y + r.Min.Y
		for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
			dX := sX - srcR.Min.X + r.Min.X
			r16, g16, b16, _ := src.At(sX, sY).RGBA()
			i := 3 * (dY*t.width + dX)
			t.pixels[i] = byte(r16 >> 8)
			t.pixels[i+1] = byte(g16 >> 8)
			t.pixels[i+2] = byte(b16 >> 8)
		}
	}
	if err := t.stage(); err != nil {
		return err
	}
	err := t.err
	t.err = nil
	return err
}

// Frames returns the number of frames staged for output.
func (t *Terminal) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Dropped returns the number of frames skipped because Out fell behind.
func (t *Terminal) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Flush writes every staged byte to Out before returning.
func (t *Terminal) Flush() error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	for {
		n, err := t.ring.TryRead(t.chunk)
		if n > 0 {
			if _, werr := t.w.Write(t.chunk[:n]); werr != nil {
				t.mu.Lock()
				t.err = werr
				t.mu.Unlock()
				return werr
			}
		}
		if errors.Is(err, ringbuffer.ErrIsEmpty) || n == 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// stage renders the pixels as one frame and queues it whole. t.mu is held.
func (t *Terminal) stage() error {
	f := t.frame[:0]
	// Move the cursor back to the top of the previous frame.
	if t.frames > 0 {
		f = fmt.Appendf(f, "\033[%dA", t.height)
	}
	for y := range t.height {
		f = append(f, "\r\033[0m"...)
		for x := range t.width {
			i := 3 * (y*t.width + x)
			c := color.NRGBA{t.pixels[i], t.pixels[i+1], t.pixels[i+2], 255}
			f = append(f, t.palette.Block(c)...)
		}
		f = append(f, "\033[0m\n"...)
	}
	t.frame = f
	if len(f) > t.ring.Capacity() {
		return fmt.Errorf("readout: frame of %d bytes exceeds the %d bytes staging ring", len(f), t.ring.Capacity())
	}
	if t.ring.Free() < len(f) {
		t.dropped++
		return nil
	}
	if _, err := t.ring.Write(f); err != nil {
		return err
	}
	t.frames++
	if !t.draining {
		t.draining = true
		go t.drain()
	}
	return nil
}

// drain writes staged frames until the ring is empty.
func (t *Terminal) drain() {
	for {
		if err := t.Flush(); err != nil {
			t.mu.Lock()
			t.draining = false
			t.mu.Unlock()
			return
		}
		t.mu.Lock()
		if t.ring.IsEmpty() {
			t.draining = false
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
	}
}

var _ display.Drawer = &Terminal{}
var _ fmt.Stringer = &Terminal{}
