// Package render draws a radar rendering as a PNG.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/radar/layout"
	"github.com/yungbote/project-radar/internal/radar/vocab"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	ContentTypePNG = "image/png"
	DefaultSize    = 800
	minSize        = 200
)

var fallbackPalette = []color.NRGBA{
	{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF},
	{R: 0xFF, G: 0x7F, B: 0x0E, A: 0xFF},
	{R: 0x2C, G: 0xA0, B: 0x2C, A: 0xFF},
	{R: 0xD6, G: 0x27, B: 0x28, A: 0xFF},
	{R: 0x94, G: 0x67, B: 0xBD, A: 0xFF},
	{R: 0x8C, G: 0x56, B: 0x4B, A: 0xFF},
}

type Options struct {
	Size     int
	FontPath string
	FontSize float64
}

type Artifact struct {
	PNG         []byte
	ContentType string
	Checksum    string
}

type Renderer struct {
	cfg    *vocab.Config
	size   int
	colors map[string]color.NRGBA

	// truetype faces cache glyphs and are not safe for concurrent use
	mu   sync.Mutex
	face font.Face
}

func New(cfg *vocab.Config, opts Options) (*Renderer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("render: vocabulary is required")
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size < minSize {
		return nil, fmt.Errorf("render: size %d below minimum %d", size, minSize)
	}
	var face font.Face = basicfont.Face7x13
	if strings.TrimSpace(opts.FontPath) != "" {
		fs := opts.FontSize
		if fs <= 0 {
			fs = 12
		}
		f, err := loadFontFace(opts.FontPath, fs)
		if err != nil {
			return nil, err
		}
		face = f
	}
	r := &Renderer{
		cfg:    cfg,
		size:   size,
		colors: make(map[string]color.NRGBA, len(cfg.Dimensions)),
		face:   face,
	}
	for i, d := range cfg.Dimensions {
		c, err := parseHexColor(d.Color)
		if err != nil {
			c = fallbackPalette[i%len(fallbackPalette)]
		}
		r.colors[d.Name] = c
	}
	return r, nil
}

// Render draws blips onto the radar grid. Identical blips give identical bytes.
func (r *Renderer) Render(blips []types.Blip) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := float64(r.size)
	cx, cy := size/2, size/2
	radius := size/2 - 24

	dc := gg.NewContext(r.size, r.size)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(r.face)

	// rings
	dc.SetLineWidth(1.5)
	dc.SetColor(color.NRGBA{R: 0xBB, G: 0xBB, B: 0xBB, A: 0xFF})
	for i := range r.cfg.Bands {
		dc.DrawCircle(cx, cy, layout.RingRadius(r.cfg, i)*radius)
		dc.Stroke()
	}

	// sector spokes
	if len(r.cfg.Dimensions) > 1 {
		for i := range r.cfg.Dimensions {
			a := layout.SectorStart(r.cfg, i)
			dc.DrawLine(cx, cy, cx+radius*math.Cos(a), cy-radius*math.Sin(a))
			dc.Stroke()
		}
	}

	// quadrant labels at the outer edge of each sector
	for i, d := range r.cfg.Dimensions {
		mid := layout.SectorStart(r.cfg, i) + math.Pi/float64(len(r.cfg.Dimensions))
		lx, ly := cx+(radius+12)*math.Cos(mid), cy-(radius+12)*math.Sin(mid)
		dc.SetColor(r.colors[d.Name])
		label := d.Label
		if label == "" {
			label = d.Name
		}
		dc.DrawStringAnchored(label, lx, ly, 0.5, 0.5)
	}

	// ring labels along the vertical axis
	dc.SetColor(color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF})
	for i, b := range r.cfg.Bands {
		y := cy - (layout.RingRadius(r.cfg, i)-0.5/float64(len(r.cfg.Bands)))*radius
		dc.DrawStringAnchored(b.Name, cx, y, 0.5, 0.5)
	}

	for _, b := range blips {
		px, py := cx+b.X*radius, cy-b.Y*radius
		c, ok := r.colors[b.Quadrant]
		if !ok {
			c = fallbackPalette[0]
		}
		dc.SetColor(c)
		dc.DrawCircle(px, py, 6)
		dc.Fill()
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(strconv.FormatInt(b.ExternalID, 10), px, py-11, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return Artifact{}, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return Artifact{
		PNG:         buf.Bytes(),
		ContentType: ContentTypePNG,
		Checksum:    Checksum(buf.Bytes()),
	}, nil
}

func Checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return color.NRGBA{}, fmt.Errorf("invalid hex")
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xFF}, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
