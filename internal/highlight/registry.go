// Package highlight builds and deduplicates terminal styles for color
// swatches. Identical color triples always map to the same descriptor for
// the lifetime of a registry; nothing is ever evicted.
package highlight

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/huestorm/internal/config"
	"github.com/dshills/huestorm/internal/protocol"
)

// RGB is an 8-bit color triple, the cache-side representation of a
// reported color value.
type RGB struct {
	R, G, B uint8
}

// FromProtocol converts a wire color (components in [0, 1]) to an 8-bit
// triple, rounding each channel.
func FromProtocol(c protocol.Color) RGB {
	return RGB{
		R: channel(c.Red),
		G: channel(c.Green),
		B: channel(c.Blue),
	}
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Hex returns the lowercase #rrggbb form of the triple.
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

// Style is a deduplicated, renderable descriptor for one color triple.
type Style struct {
	// Name is a stable identifier derived from the triple, usable as a
	// highlight-group name.
	Name string
	// Term is the terminal style for the swatch.
	Term tcell.Style
}

// Registry maps color triples to styles. It is unbounded and never evicts;
// the set of distinct colors in open documents is small in practice.
//
// Registry is not safe for concurrent use; callers serialize access the
// same way they serialize cache access.
type Registry struct {
	mode   string
	styles map[RGB]Style
}

// NewRegistry creates a registry producing styles for the given highlight
// mode (config.HighlightBackground, HighlightForeground or HighlightVirtual).
func NewRegistry(mode string) *Registry {
	return &Registry{
		mode:   mode,
		styles: make(map[RGB]Style),
	}
}

// Ensure returns the style descriptor for the triple, creating it on first
// use. Repeated calls with the same triple return the identical descriptor.
func (r *Registry) Ensure(c RGB) Style {
	if s, ok := r.styles[c]; ok {
		return s
	}

	s := Style{
		Name: fmt.Sprintf("huestorm_%02x%02x%02x", c.R, c.G, c.B),
		Term: r.termStyle(c),
	}
	r.styles[c] = s
	return s
}

// Len reports the number of distinct triples seen so far.
func (r *Registry) Len() int {
	return len(r.styles)
}

func (r *Registry) termStyle(c RGB) tcell.Style {
	swatch := tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))

	switch r.mode {
	case config.HighlightForeground, config.HighlightVirtual:
		return tcell.StyleDefault.Foreground(swatch)
	default:
		return tcell.StyleDefault.Background(swatch).Foreground(contrast(c))
	}
}

// contrast picks black or white text for legibility on the swatch color.
func contrast(c RGB) tcell.Color {
	col := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
	l, _, _ := col.Lab()
	if l > 0.5 {
		return tcell.ColorBlack
	}
	return tcell.ColorWhite
}
