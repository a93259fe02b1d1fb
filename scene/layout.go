// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import "math"

// Default size of a scene with no declared size and no content.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// bounds is an axis-aligned box in scene units.
type bounds struct {
	minX, minY, maxX, maxY float64
	ok                     bool
}

func (b bounds) union(o bounds) bounds {
	switch {
	case !o.ok:
		return b
	case !b.ok:
		return o
	}
	return bounds{
		minX: math.Min(b.minX, o.minX),
		minY: math.Min(b.minY, o.minY),
		maxX: math.Max(b.maxX, o.maxX),
		maxY: math.Max(b.maxY, o.maxY),
		ok:   true,
	}
}

func (b bounds) offset(dx, dy float64) bounds {
	if !b.ok {
		return b
	}
	return bounds{minX: b.minX + dx, minY: b.minY + dy, maxX: b.maxX + dx, maxY: b.maxY + dy, ok: true}
}

func (b bounds) inset(d float64) bounds {
	if !b.ok {
		return b
	}
	return bounds{minX: b.minX - d, minY: b.minY - d, maxX: b.maxX + d, maxY: b.maxY + d, ok: true}
}

func box(x, y, w, h float64) bounds {
	return bounds{minX: x, minY: y, maxX: x + w, maxY: y + h, ok: true}
}

// layoutNodes returns the union of the bounds of visible nodes.
func (a *assets) layoutNodes(nodes []*Node) bounds {
	var b bounds
	for _, n := range nodes {
		if n.Hidden {
			continue
		}
		b = b.union(a.layoutNode(n))
	}
	return b
}

func (a *assets) layoutNode(n *Node) bounds {
	halfStroke := 0.0
	if n.Stroke != nil {
		halfStroke = n.StrokeWidth / 2
	}

	switch n.Type {
	case TypeGroup:
		return a.layoutNodes(n.Children).offset(n.X, n.Y).inset(n.Blur)
	case TypeRect:
		return box(n.X, n.Y, n.Width, n.Height).inset(halfStroke)
	case TypeCircle:
		return box(n.X-n.Radius, n.Y-n.Radius, 2*n.Radius, 2*n.Radius).inset(halfStroke)
	case TypeEllipse:
		return box(n.X-n.RX, n.Y-n.RY, 2*n.RX, 2*n.RY).inset(halfStroke)
	case TypeLine, TypePolyline:
		var b bounds
		for _, p := range n.Points {
			b = b.union(box(p.X, p.Y, 0, 0))
		}
		return b.inset(max(n.StrokeWidth, 1) / 2)
	case TypeText:
		fd, err := a.font(n.Font)
		if err != nil {
			return bounds{}
		}
		w, h := a.measure(fd, n.Text, n.fontSize())
		return box(n.X, n.Y, w, h)
	case TypeImage:
		w, h := n.Width, n.Height
		if img, err := a.image(n.File); err == nil && (w == 0 || h == 0 || n.Fit == FitNone) {
			w, h = float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
		}
		return box(n.X, n.Y, w, h)
	case TypeSVG:
		w, h := n.Width, n.Height
		if icon, err := a.icon(n.File); err == nil && (w == 0 || h == 0) {
			w, h = icon.ViewBox.W, icon.ViewBox.H
		}
		return box(n.X, n.Y, w, h)
	}
	return bounds{}
}

// naturalSize resolves the scene size: an explicit override wins, then the
// document's declared size, then the content's extent from the origin.
func naturalSize(doc *Document, override [2]int, content bounds) (w, h int) {
	w, h = override[0], override[1]
	if w <= 0 {
		w = doc.Width
	}
	if h <= 0 {
		h = doc.Height
	}
	if w > 0 && h > 0 {
		return w, h
	}
	if !content.ok {
		if w <= 0 {
			w = DefaultWidth
		}
		if h <= 0 {
			h = DefaultHeight
		}
		return w, h
	}
	if w <= 0 {
		w = max(int(math.Ceil(content.maxX)), 1)
	}
	if h <= 0 {
		h = max(int(math.Ceil(content.maxY)), 1)
	}
	return w, h
}
