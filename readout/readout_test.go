// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/thermolink/sampler"
	"github.com/GermanBionicSystems/thermolink/session"
)

type captureDrawer struct {
	bounds image.Rectangle
	last   image.Image
	draws  int
}

func (c *captureDrawer) String() string { return "capture" }
func (c *captureDrawer) Halt() error { return nil }
func (c *captureDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (c *captureDrawer) Bounds() image.Rectangle { return c.bounds }
func (c *captureDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	c.last = src
	c.draws++
	return nil
}

func TestView_Lines(t *testing.T) {
	v := View{}
	want := []string{"--.--°C", "link:down", "queue:0", "btn:up 0s"}
	if got := v.Lines(); !equal(got, want) {
		t.Errorf("got %q want %q", got, want)
	}

	m := sampler.NewMeasurement(physic.ZeroCelsius+21_500*physic.MilliKelvin, 0, time.Time{})
	v = View{
		Measurement: &m,
		Session:     session.Snapshot{LinkOpen: true, NotificationsEnabled: true, InFlight: true, Pending: 3, Conn: 1, ButtonPressed: true},
		Uptime:      90*time.Second + 300*time.Millisecond,
	}
	want = []string{"21.50°C", "link:1 notify", "queue:3 sending", "btn:down 1m30s"}
	if got := v.Lines(); !equal(got, want) {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestPanel_Render(t *testing.T) {
	dev := &captureDrawer{bounds: image.Rect(0, 0, 128, 64)}
	p, err := NewPanel(dev, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := sampler.NewMeasurement(physic.ZeroCelsius+20*physic.Kelvin, 0, time.Time{})
	if err := p.Measurement(m); err != nil {
		t.Fatal(err)
	}
	if err := p.Session(session.Snapshot{LinkOpen: true}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if dev.draws != 2 {
		t.Fatalf("expected 2 draws, got %d", dev.draws)
	}
	if got := dev.last.Bounds(); got != dev.bounds {
		t.Errorf("image bounds %v", got)
	}
	// Some text must have been drawn on the white background.
	dark := 0
	b := dev.last.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := dev.last.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("nothing drawn")
	}
	if v := p.View(); v.Measurement == nil || !v.Session.LinkOpen || v.Uptime != time.Minute {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestTerminal(t *testing.T) {
	if _, err := NewTerminal(&TerminalOpts{}); err == nil {
		t.Error("expected an error for an empty size")
	}
	var out bytes.Buffer
	term, err := NewTerminal(&TerminalOpts{W: 2, H: 2, Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}
	img.Set(0, 0, red)
	img.Set(1, 1, blue)
	if err := term.Draw(term.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if err := term.Flush(); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, ansi256.Default.Block(red)) || !strings.Contains(s, ansi256.Default.Block(blue)) {
		t.Errorf("missing blocks in %q", s)
	}
	if n := strings.Count(s, "\n"); n != 2 {
		t.Errorf("expected 2 lines, got %d", n)
	}
	if strings.Contains(s, "\033[2A") {
		t.Error("first frame must not move the cursor up")
	}

	out.Reset()
	if err := term.Draw(term.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if err := term.Flush(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "\033[2A") {
		t.Errorf("second frame must overwrite the first: %q", out.String())
	}
	if term.Frames() != 2 {
		t.Errorf("got %d frames", term.Frames())
	}
	out.Reset()
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "\033[0m\n" {
		t.Errorf("got %q", out.String())
	}
	if term.String() != "Terminal{2x2}" {
		t.Errorf("got %q", term.String())
	}
}

func TestPanel_OnTerminal(t *testing.T) {
	var out bytes.Buffer
	term, err := NewTerminal(&TerminalOpts{W: 32, H: 16, Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPanel(term, &PanelOpts{Inverted: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	if err := term.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.String(), "\n"); n != 16 {
		t.Errorf("expected 16 lines, got %d", n)
	}
}

// gatedWriter blocks every Write until open is closed.
type gatedWriter struct {
	open chan struct{}
	buf  bytes.Buffer
}

func (g *gatedWriter) Write(b []byte) (int, error) {
	<-g.open
	return g.buf.Write(b)
}

func TestTerminal_SlowOutputSkipsFrames(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.NRGBA{0, 255, 0, 255})

	// Measure a repaint to size the ring for one frame but not two.
	var probe bytes.Buffer
	ref, err := NewTerminal(&TerminalOpts{W: 4, H: 2, Out: &probe})
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := ref.Draw(ref.Bounds(), img, image.Point{}); err != nil {
			t.Fatal(err)
		}
		if err := ref.Flush(); err != nil {
			t.Fatal(err)
		}
	}
	size := probe.Len() / 2

	g := &gatedWriter{open: make(chan struct{})}
	term, err := NewTerminal(&TerminalOpts{W: 4, H: 2, Out: g, Staging: size + size/2})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		for range 5 {
			if err := term.Draw(term.Bounds(), img, image.Point{}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Draw waited for the output")
	}
	if term.Dropped() == 0 {
		t.Error("expected skipped frames while the output is stalled")
	}
	if term.Frames()+term.Dropped() != 5 {
		t.Errorf("got %d frames and %d dropped", term.Frames(), term.Dropped())
	}

	close(g.open)
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	s := g.buf.String()
	if !strings.HasSuffix(s, "\033[0m\n\033[0m\n") {
		t.Errorf("missing reset at the end: %q", s)
	}
	if n := strings.Count(s, "\n"); n != 2*term.Frames()+1 {
		t.Errorf("got %d lines for %d frames, partial frame written", n, term.Frames())
	}
}

func TestTerminal_FrameTooLarge(t *testing.T) {
	term, err := NewTerminal(&TerminalOpts{W: 8, H: 8, Out: &bytes.Buffer{}, Staging: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := term.Draw(term.Bounds(), image.NewNRGBA(image.Rect(0, 0, 8, 8)), image.Point{}); err == nil {
		t.Error("expected an error for a frame larger than the ring")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
