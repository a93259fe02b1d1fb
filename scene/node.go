// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Node types.
const (
	TypeGroup    = "group"
	TypeRect     = "rect"
	TypeCircle   = "circle"
	TypeEllipse  = "ellipse"
	TypeLine     = "line"
	TypePolyline = "polyline"
	TypeText     = "text"
	TypeImage    = "image"
	TypeSVG      = "svg"
)

var nodeTypes = []string{
	TypeGroup, TypeRect, TypeCircle, TypeEllipse, TypeLine,
	TypePolyline, TypeText, TypeImage, TypeSVG,
}

// Image fit modes.
const (
	FitStretch = "stretch"
	FitNone    = "none"
)

// Point is an x, y pair written as [x, y].
type Point struct {
	X, Y float64
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Point) UnmarshalYAML(n *yaml.Node) error {
	var xy []float64
	if err := n.Decode(&xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("line %d: point needs 2 coordinates, got %d", n.Line, len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Point) MarshalYAML() (any, error) {
	return []float64{p.X, p.Y}, nil
}

// Node is one element of the scene graph. Which fields apply depends on
// Type:
//
//   - group: X, Y offset its children; Opacity and Blur apply to the
//     composited group
//   - rect: X, Y, Width, Height, Radius
//   - circle: X, Y center, Radius
//   - ellipse: X, Y center, RX, RY
//   - line, polyline: Points
//   - text: X, Y top-left, Text, Size, Font
//   - image: X, Y, Width, Height, File, Fit
//   - svg: X, Y, Width, Height, File
//
// Shapes are filled with Fill and outlined with Stroke of StrokeWidth,
// dashed when Dash is set. Text uses Fill as its color.
type Node struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id,omitempty"`

	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
	Radius float64 `yaml:"radius,omitempty"`
	RX     float64 `yaml:"rx,omitempty"`
	RY     float64 `yaml:"ry,omitempty"`

	Points []Point `yaml:"points,omitempty"`

	Fill        *Color    `yaml:"fill,omitempty"`
	Stroke      *Color    `yaml:"stroke,omitempty"`
	StrokeWidth float64   `yaml:"stroke_width,omitempty"`
	Dash        []float64 `yaml:"dash,omitempty"`

	Opacity *float64 `yaml:"opacity,omitempty"`
	Blur    float64  `yaml:"blur,omitempty"`
	Hidden  bool     `yaml:"hidden,omitempty"`

	Text string  `yaml:"text,omitempty"`
	Size float64 `yaml:"size,omitempty"`
	Font string  `yaml:"font,omitempty"`

	File string `yaml:"file,omitempty"`
	Fit  string `yaml:"fit,omitempty"`

	Children []*Node `yaml:"children,omitempty"`
}

// opacity returns the node opacity clamped to [0, 1].
func (n *Node) opacity() float64 {
	if n.Opacity == nil {
		return 1
	}
	return min(max(*n.Opacity, 0), 1)
}

// fontSize returns the text size, defaulting to 16.
func (n *Node) fontSize() float64 {
	if n.Size <= 0 {
		return 16
	}
	return n.Size
}

// validate checks the node and its children. path locates the node in
// error messages.
func (n *Node) validate(path string) error {
	if !slices.Contains(nodeTypes, n.Type) {
		return fmt.Errorf("%s: unknown node type %q", path, n.Type)
	}
	if n.Width < 0 || n.Height < 0 || n.Radius < 0 || n.RX < 0 || n.RY < 0 || n.StrokeWidth < 0 || n.Blur < 0 {
		return fmt.Errorf("%s: negative dimension", path)
	}
	switch n.Type {
	case TypeLine:
		if len(n.Points) != 2 {
			return fmt.Errorf("%s: line needs exactly 2 points", path)
		}
	case TypePolyline:
		if len(n.Points) < 2 {
			return fmt.Errorf("%s: polyline needs at least 2 points", path)
		}
	case TypeImage, TypeSVG:
		if n.File == "" {
			return fmt.Errorf("%s: %s node needs a file", path, n.Type)
		}
		if n.Fit != "" && n.Fit != FitStretch && n.Fit != FitNone {
			return fmt.Errorf("%s: unknown fit %q", path, n.Fit)
		}
	}
	if len(n.Children) > 0 && n.Type != TypeGroup {
		return fmt.Errorf("%s: only groups have children", path)
	}
	for i, c := range n.Children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		if c == nil {
			return fmt.Errorf("%s: empty node", childPath)
		}
		if err := c.validate(childPath); err != nil {
			return err
		}
	}
	return nil
}

// clone returns a deep copy of n.
func (n *Node) clone() *Node {
	c := *n
	c.Points = slices.Clone(n.Points)
	c.Dash = slices.Clone(n.Dash)
	if n.Fill != nil {
		fill := *n.Fill
		c.Fill = &fill
	}
	if n.Stroke != nil {
		stroke := *n.Stroke
		c.Stroke = &stroke
	}
	if n.Opacity != nil {
		opacity := *n.Opacity
		c.Opacity = &opacity
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			if child != nil {
				c.Children[i] = child.clone()
			}
		}
	}
	return &c
}

// walk calls fn for n and all descendants in paint order until fn returns
// false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
