// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/offscreen/imagefile"
	"github.com/gogpu/offscreen/internal/assetcache"
	"github.com/mitchellh/go-homedir"
	"github.com/srwiley/oksvg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// assets holds the decoded files referenced by a document, resolved
// relative to the document's directory. Raw file contents come from files,
// which outlives a single document.
type assets struct {
	files   *assetcache.Cache
	baseDir string
	images  map[string]image.Image
	icons   map[string]*oksvg.SvgIcon
	fonts   map[string]*fontData
	shaper  shaping.HarfbuzzShaper
}

func newAssets(baseDir string) *assets {
	return &assets{
		files:   assetcache.Shared,
		baseDir: baseDir,
		images:  make(map[string]image.Image),
		icons:   make(map[string]*oksvg.SvgIcon),
		fonts:   make(map[string]*fontData),
	}
}

// resolve expands ~ and makes relative paths relative to baseDir.
func (a *assets) resolve(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) && a.baseDir != "" {
		p = filepath.Join(a.baseDir, p)
	}
	return p, nil
}

// load makes sure every file referenced by nodes is cached.
func (a *assets) load(nodes []*Node) error {
	for _, root := range nodes {
		var err error
		root.walk(func(n *Node) bool {
			switch n.Type {
			case TypeImage:
				_, err = a.image(n.File)
			case TypeSVG:
				_, err = a.icon(n.File)
			case TypeText:
				_, err = a.font(n.Font)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *assets) image(file string) (image.Image, error) {
	if img, ok := a.images[file]; ok {
		return img, nil
	}
	path, err := a.resolve(file)
	if err != nil {
		return nil, err
	}
	data, err := a.files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: image %s: %w", file, err)
	}
	img, _, err := imagefile.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scene: image %s: %w", file, err)
	}
	a.images[file] = img
	return img, nil
}

func (a *assets) icon(file string) (*oksvg.SvgIcon, error) {
	if icon, ok := a.icons[file]; ok {
		return icon, nil
	}
	path, err := a.resolve(file)
	if err != nil {
		return nil, err
	}
	data, err := a.files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: svg %s: %w", file, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("scene: svg %s: %w", file, err)
	}
	a.icons[file] = icon
	return icon, nil
}

// font returns the font for a node's Font field; empty selects Go Regular.
func (a *assets) font(file string) (*fontData, error) {
	if fd, ok := a.fonts[file]; ok {
		return fd, nil
	}
	data := goregular.TTF
	if file != "" {
		path, err := a.resolve(file)
		if err != nil {
			return nil, err
		}
		if data, err = a.files.ReadFile(path); err != nil {
			return nil, fmt.Errorf("scene: font %s: %w", file, err)
		}
	}
	fd, err := parseFont(data)
	if err != nil {
		return nil, fmt.Errorf("scene: font %s: %w", file, err)
	}
	a.fonts[file] = fd
	return fd, nil
}

// fontData holds one font parsed twice: by go-text for shaping and by
// x/image for glyph drawing.
type fontData struct {
	shapingFace *gtfont.Face
	sfnt        *opentype.Font
	faces       map[float64]font.Face
}

func parseFont(data []byte) (*fontData, error) {
	shapingFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return &fontData{
		shapingFace: shapingFace,
		sfnt:        sf,
		faces:       make(map[float64]font.Face),
	}, nil
}

// face returns a drawing face for the pixel size.
func (fd *fontData) face(size float64) (font.Face, error) {
	if f, ok := fd.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(fd.sfnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	fd.faces[size] = f
	return f, nil
}

// lineHeight returns the distance between baselines at size.
func (fd *fontData) lineHeight(size float64) float64 {
	f, err := fd.face(size)
	if err != nil {
		return size * 1.2
	}
	return fixedToFloat(f.Metrics().Height)
}

// advance shapes one line of text and returns its width at size.
func (a *assets) advance(fd *fontData, line string, size float64) float64 {
	runes := []rune(line)
	if len(runes) == 0 {
		return 0
	}
	out := a.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      fd.shapingFace,
		Size:      fixed.Int26_6(size * 64),
		Script:    language.LookupScript(runes[0]),
		Language:  language.NewLanguage("en"),
	})
	return fixedToFloat(out.Advance)
}

// measure returns the width and height of possibly multi-line text.
func (a *assets) measure(fd *fontData, text string, size float64) (w, h float64) {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		w = max(w, a.advance(fd, line, size))
	}
	return w, float64(len(lines)) * fd.lineHeight(size)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
