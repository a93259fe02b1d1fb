// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// miterLimit is the stroke miter limit in 26.6 fixed point.
const miterLimit = fixed.Int26_6(4 << 6)

// painter rasterizes nodes into RGBA layers at a fixed scale.
type painter struct {
	assets *assets
	scale  float64
}

func (p *painter) paintNodes(dst *image.RGBA, nodes []*Node, ox, oy float64) {
	for _, n := range nodes {
		if n.Hidden {
			continue
		}
		p.paintNode(dst, n, ox, oy)
	}
}

func (p *painter) paintNode(dst *image.RGBA, n *Node, ox, oy float64) {
	x, y := ox+n.X, oy+n.Y
	opacity := n.opacity()
	if opacity == 0 {
		return
	}

	switch n.Type {
	case TypeGroup:
		if opacity >= 1 && n.Blur == 0 {
			p.paintNodes(dst, n.Children, x, y)
			return
		}
		layer := image.NewRGBA(dst.Bounds())
		p.paintNodes(layer, n.Children, x, y)
		var src image.Image = layer
		if n.Blur > 0 {
			src = blur.Gaussian(layer, n.Blur*p.scale)
		}
		composite(dst, src, opacity)

	case TypeRect:
		p.shape(dst, n, opacity, func(a rasterx.Adder) {
			s := p.scale
			if n.Radius > 0 {
				rasterx.AddRoundRect(x*s, y*s, (x+n.Width)*s, (y+n.Height)*s,
					n.Radius*s, n.Radius*s, 0, rasterx.RoundGap, a)
				return
			}
			rasterx.AddRect(x*s, y*s, (x+n.Width)*s, (y+n.Height)*s, 0, a)
		})

	case TypeCircle:
		p.shape(dst, n, opacity, func(a rasterx.Adder) {
			s := p.scale
			rasterx.AddCircle(x*s, y*s, n.Radius*s, a)
		})

	case TypeEllipse:
		p.shape(dst, n, opacity, func(a rasterx.Adder) {
			s := p.scale
			rasterx.AddEllipse(x*s, y*s, n.RX*s, n.RY*s, 0, a)
		})

	case TypeLine, TypePolyline:
		p.polyline(dst, n, ox, oy, opacity)

	case TypeText:
		p.text(dst, n, x, y, opacity)

	case TypeImage:
		p.image(dst, n, x, y, opacity)

	case TypeSVG:
		p.svg(dst, n, x, y, opacity)
	}
}

// shape fills and strokes the outline produced by add. A shape with
// neither fill nor stroke is filled black.
func (p *painter) shape(dst *image.RGBA, n *Node, opacity float64, add func(rasterx.Adder)) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())

	fill := n.Fill
	if fill == nil && (n.Stroke == nil || n.StrokeWidth == 0) {
		fill = &Black
	}
	if fill != nil {
		filler := rasterx.NewFiller(w, h, scanner)
		filler.SetColor(fill.WithOpacity(opacity))
		add(filler)
		filler.Draw()
	}
	if n.Stroke != nil && n.StrokeWidth > 0 {
		dasher := p.dasher(w, h, scanner, n)
		dasher.SetColor(n.Stroke.WithOpacity(opacity))
		add(dasher)
		dasher.Draw()
	}
}

func (p *painter) dasher(w, h int, scanner rasterx.Scanner, n *Node) *rasterx.Dasher {
	var dash []float64
	for _, d := range n.Dash {
		dash = append(dash, d*p.scale)
	}
	width := max(n.StrokeWidth, 1) * p.scale
	d := rasterx.NewDasher(w, h, scanner)
	d.SetStroke(fixed.Int26_6(width*64), miterLimit,
		rasterx.ButtCap, rasterx.ButtCap, rasterx.RoundGap, rasterx.Round, dash, 0)
	return d
}

// polyline strokes Points, defaulting to a 1px black line.
func (p *painter) polyline(dst *image.RGBA, n *Node, ox, oy, opacity float64) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := p.dasher(w, h, scanner, n)

	stroke := Black
	if n.Stroke != nil {
		stroke = *n.Stroke
	}
	dasher.SetColor(stroke.WithOpacity(opacity))

	s := p.scale
	for i, pt := range n.Points {
		fp := rasterx.ToFixedP((ox+pt.X)*s, (oy+pt.Y)*s)
		if i == 0 {
			dasher.Start(fp)
			continue
		}
		dasher.Line(fp)
	}
	dasher.Stop(false)
	dasher.Draw()
}

func (p *painter) text(dst *image.RGBA, n *Node, x, y, opacity float64) {
	fd, err := p.assets.font(n.Font)
	if err != nil {
		return
	}
	size := n.fontSize() * p.scale
	face, err := fd.face(size)
	if err != nil {
		return
	}

	c := Black
	if n.Fill != nil {
		c = *n.Fill
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c.WithOpacity(opacity)),
		Face: face,
	}
	metrics := face.Metrics()
	baseline := fixed.Int26_6(y*p.scale*64) + metrics.Ascent
	for _, line := range strings.Split(n.Text, "\n") {
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * p.scale * 64), Y: baseline}
		d.DrawString(line)
		baseline += metrics.Height
	}
}

func (p *painter) image(dst *image.RGBA, n *Node, x, y, opacity float64) {
	img, err := p.assets.image(n.File)
	if err != nil {
		return
	}
	sb := img.Bounds()
	w, h := n.Width, n.Height
	if w == 0 || h == 0 || n.Fit == FitNone {
		w, h = float64(sb.Dx()), float64(sb.Dy())
	}
	s := p.scale
	r := image.Rect(int(x*s), int(y*s), int((x+w)*s), int((y+h)*s))
	if r.Empty() {
		return
	}

	if opacity >= 1 {
		draw.CatmullRom.Scale(dst, r, img, sb, draw.Over, nil)
		return
	}
	layer := image.NewRGBA(dst.Bounds())
	draw.CatmullRom.Scale(layer, r, img, sb, draw.Src, nil)
	composite(dst, layer, opacity)
}

func (p *painter) svg(dst *image.RGBA, n *Node, x, y, opacity float64) {
	icon, err := p.assets.icon(n.File)
	if err != nil {
		return
	}
	w, h := n.Width, n.Height
	if w == 0 || h == 0 {
		w, h = icon.ViewBox.W, icon.ViewBox.H
	}
	s := p.scale
	icon.SetTarget(x*s, y*s, w*s, h*s)

	bw, bh := dst.Bounds().Dx(), dst.Bounds().Dy()
	scanner := rasterx.NewScannerGV(bw, bh, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(bw, bh, scanner), opacity)
}

// composite draws src over dst with a uniform opacity.
func composite(dst *image.RGBA, src image.Image, opacity float64) {
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, dst.Bounds(), src, src.Bounds().Min, mask, image.Point{}, draw.Over)
}
