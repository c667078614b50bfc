package pendulum

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
)

const (
	frameSize = 500
	rodWidth  = 20.0
)

// frame draws the current state of the pendulum onto a new context.
// The pivot is at the centre of the frame and an angle of 0 points
// straight up.
func (p *Pendulum) frame() *gg.Context {
	dc := gg.NewContext(frameSize, frameSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	centre := float64(frameSize) / 2
	scale := float64(frameSize) / (2.2 * 2 * p.length)
	th := p.state.AtVec(0)
	x := centre + scale*2*p.length*math.Sin(th)
	y := centre - scale*2*p.length*math.Cos(th)

	dc.SetRGB(0.8, 0.3, 0.3)
	dc.SetLineWidth(rodWidth)
	dc.DrawLine(centre, centre, x, y)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.DrawCircle(centre, centre, rodWidth/4)
	dc.Fill()

	return dc
}

// Image returns the current state of the environment rendered as an
// image
func (p *Pendulum) Image() image.Image {
	return p.frame().Image()
}

// Render writes the current state of the environment as a PNG to w
func (p *Pendulum) Render(w io.Writer) error {
	if err := p.frame().EncodePNG(w); err != nil {
		return fmt.Errorf("render: could not encode frame: %v", err)
	}
	return nil
}

// SavePNG saves the current state of the environment as a PNG at path
func (p *Pendulum) SavePNG(path string) error {
	if err := p.frame().SavePNG(path); err != nil {
		return fmt.Errorf("savePNG: could not save frame: %v", err)
	}
	return nil
}
