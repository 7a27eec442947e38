// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/thermolink/sampler"
	"github.com/GermanBionicSystems/thermolink/session"
)

// PanelOpts represents the options available for Panel.
type PanelOpts struct {
	// FontSize in points. Defaults to a size fitting four lines.
	FontSize float64
	// Inverted draws white text on black.
	Inverted bool
}

// View is what the panel shows.
type View struct {
	Measurement *sampler.Measurement
	Session     session.Snapshot
	Uptime      time.Duration
}

// Lines returns the text lines of v.
func (v View) Lines() []string {
	temp := "--.--°C"
	if v.Measurement != nil {
		temp = fmt.Sprintf("%.2f°C", v.Measurement.Temperature.Celsius())
	}
	link := "link:down"
	if v.Session.LinkOpen {
		link = fmt.Sprintf("link:%d", v.Session.Conn)
		if v.Session.NotificationsEnabled {
			link += " notify"
		}
	}
	queue := fmt.Sprintf("queue:%d", v.Session.Pending)
	if v.Session.InFlight {
		queue += " sending"
	}
	button := "btn:up"
	if v.Session.ButtonPressed {
		button = "btn:down"
	}
	return []string{temp, link, queue, fmt.Sprintf("%s %s", button, v.Uptime.Truncate(time.Second))}
}

// Panel renders a View on a display.Drawer.
type Panel struct {
	dev      display.Drawer
	face     font.Face
	lineH    float64
	inverted bool

	mu   sync.Mutex
	view View
}

// NewPanel returns a Panel drawing on dev.
func NewPanel(dev display.Drawer, opts *PanelOpts) (*Panel, error) {
	o := PanelOpts{}
	if opts != nil {
		o = *opts
	}
	h := dev.Bounds().Dy()
	if o.FontSize <= 0 {
		o.FontSize = float64(h) / 5
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("readout: font: %w", err)
	}
	return &Panel{
		dev:      dev,
		face:     truetype.NewFace(f, &truetype.Options{Size: o.FontSize}),
		lineH:    float64(h) / 4,
		inverted: o.Inverted,
	}, nil
}

// Measurement shows m and redraws.
func (p *Panel) Measurement(m sampler.Measurement) error {
	p.mu.Lock()
	p.view.Measurement = &m
	p.mu.Unlock()
	return p.Render()
}

// Session shows s and uptime and redraws.
func (p *Panel) Session(s session.Snapshot, uptime time.Duration) error {
	p.mu.Lock()
	p.view.Session = s
	p.view.Uptime = uptime
	p.mu.Unlock()
	return p.Render()
}

// View returns what is currently shown.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Render draws the current view.
func (p *Panel) Render() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.dev.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	if p.inverted {
		dc.SetRGB(0, 0, 0)
	} else {
		dc.SetRGB(1, 1, 1)
	}
	dc.Clear()
	if p.inverted {
		dc.SetRGB(1, 1, 1)
	} else {
		dc.SetRGB(0, 0, 0)
	}
	dc.SetFontFace(p.face)
	for i, line := range p.view.Lines() {
		dc.DrawString(line, 2, p.lineH*float64(i+1)-2)
	}
	return p.dev.Draw(b, dc.Image(), image.Point{})
}

// Halt implements conn.Resource. It halts the underlying display.
func (p *Panel) Halt() error {
	return p.dev.Halt()
}

func (p *Panel) String() string {
	return fmt.Sprintf("Panel{%s}", p.dev)
}
