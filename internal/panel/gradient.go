package panel

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// glowRadius is how many runes on each side of the sweep head are tinted.
const glowRadius = 2

// Palette is the three colors of the footer sweep, as hex strings.
type Palette struct {
	Base string `yaml:"base"`
	Glow string `yaml:"glow"`
	Head string `yaml:"head"`
}

// DefaultPalette is gold text with a yellow glow and a white head.
var DefaultPalette = Palette{
	Base: "#FFAA00",
	Glow: "#FFFF55",
	Head: "#FFFFFF",
}

type parsedPalette struct {
	base, glow, head colorful.Color
}

func (p Palette) parse() (parsedPalette, error) {
	var out parsedPalette
	var err error
	if out.base, err = colorful.Hex(p.Base); err != nil {
		return out, fmt.Errorf("base color %q: %w", p.Base, err)
	}
	if out.glow, err = colorful.Hex(p.Glow); err != nil {
		return out, fmt.Errorf("glow color %q: %w", p.Glow, err)
	}
	if out.head, err = colorful.Hex(p.Head); err != nil {
		return out, fmt.Errorf("head color %q: %w", p.Head, err)
	}
	return out, nil
}

// Validate reports whether every color parses.
func (p Palette) Validate() error {
	_, err := p.parse()
	return err
}

// newRenderer returns a renderer pinned to TrueColor so output does not
// depend on the terminal the server happens to run in.
func newRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	return r
}

// Frames renders text as a sequence of animation frames: a highlight sweeps
// from before the first rune to past the last one. The result is a pure
// function of text and palette and has len(runes)+2*glowRadius frames.
func Frames(text string, palette Palette) ([]string, error) {
	pal, err := palette.parse()
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}, nil
	}

	r := newRenderer()
	count := len(runes) + 2*glowRadius
	frames := make([]string, 0, count)
	for step := 0; step < count; step++ {
		center := step - glowRadius
		frames = append(frames, renderFrame(r, runes, center, pal))
	}
	return frames, nil
}

func renderFrame(r *lipgloss.Renderer, runes []rune, center int, pal parsedPalette) string {
	var b strings.Builder
	var run []rune
	var runHex string
	flush := func() {
		if len(run) == 0 {
			return
		}
		b.WriteString(r.NewStyle().Foreground(lipgloss.Color(runHex)).Render(string(run)))
		run = run[:0]
	}
	for i, ch := range runes {
		hex := colorAt(i, center, pal).Hex()
		if hex != runHex {
			flush()
			runHex = hex
		}
		run = append(run, ch)
	}
	flush()
	return b.String()
}

func colorAt(i, center int, pal parsedPalette) colorful.Color {
	d := i - center
	if d < 0 {
		d = -d
	}
	switch {
	case d == 0:
		return pal.head
	case d <= glowRadius:
		t := float64(d-1) / float64(glowRadius)
		return pal.glow.BlendLab(pal.base, t).Clamped()
	default:
		return pal.base
	}
}
