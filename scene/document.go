// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the constraint scene documents must satisfy.
const SupportedVersions = "^1"

// ErrInvalidDocument is returned for documents that cannot be decoded or
// fail validation.
var ErrInvalidDocument = errors.New("scene: invalid document")

// Document is the decoded scene description.
type Document struct {
	// Version is the document format version. Empty means "1.0".
	Version string `yaml:"version,omitempty"`

	// Width and Height fix the scene size. Zero means the size follows
	// the content.
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`

	// Background fills the frame before nodes are painted. Default white.
	Background *Color `yaml:"background,omitempty"`

	// Nodes are painted in order.
	Nodes []*Node `yaml:"nodes,omitempty"`
}

// Decode reads a YAML or JSON document from r. Unknown fields are errors.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Parse decodes a document from data.
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks the version and every node.
func (d *Document) Validate() error {
	v := d.Version
	if v == "" {
		v = "1.0"
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidDocument, d.Version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(version) {
		return fmt.Errorf("%w: version %s not in %s", ErrInvalidDocument, version, SupportedVersions)
	}
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidDocument, d.Width, d.Height)
	}
	for i, n := range d.Nodes {
		if n == nil {
			return fmt.Errorf("%w: nodes[%d]: empty node", ErrInvalidDocument, i)
		}
		if err := n.validate(fmt.Sprintf("nodes[%d]", i)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}
	return nil
}

// background returns the background color, default white.
func (d *Document) background() Color {
	if d.Background == nil {
		return White
	}
	return *d.Background
}

// find returns the first node with the given id.
func (d *Document) find(id string) *Node {
	var found *Node
	for _, n := range d.Nodes {
		n.walk(func(c *Node) bool {
			if c.ID == id {
				found = c
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}
