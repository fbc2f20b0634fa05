// Package figures renders the analysis artifacts as png images.
package figures

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"weibo-analysis/pkg/fsutil"

	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// the font cache of gonum/plot is process wide
var fontCacheLock sync.Mutex

// Renderer draws every figure with a single font.
type Renderer struct {
	font   font.Font
	custom bool
}

// SystemFonts are commonly installed fonts with chinese glyphs, tried in
// order when no font is configured.
var SystemFonts = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
	"/usr/share/fonts/truetype/wqy/wqy-zenhei.ttc",
	"/usr/share/fonts/wenquanyi/wqy-microhei/wqy-microhei.ttc",
	"/System/Library/Fonts/PingFang.ttc",
	"/System/Library/Fonts/STHeiti Light.ttc",
	`C:\Windows\Fonts\msyh.ttc`,
	`C:\Windows\Fonts\simhei.ttf`,
}

// NewRenderer loads the truetype or opentype font (or the first font of a
// collection) at `fontPath`, which is needed for chinese glyphs to show up.
// An empty path uses the default plot font.
func NewRenderer(fontPath string) (*Renderer, error) {
	if fontPath == "" {
		return &Renderer{font: plot.DefaultFont}, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	face, err := parseFont(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
	}

	name := strings.TrimSuffix(filepath.Base(fontPath), filepath.Ext(fontPath))
	fnt := font.Font{Typeface: font.Typeface(name)}

	fontCacheLock.Lock()
	font.DefaultCache.Add(font.Collection{{Font: fnt, Face: face}})
	fontCacheLock.Unlock()

	return &Renderer{font: fnt, custom: true}, nil
}

// NewSystemRenderer uses the first of `candidates` that loads. When none
// does the default plot font is used and the returned path is empty.
func NewSystemRenderer(candidates []string) (*Renderer, string) {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		r, err := NewRenderer(path)
		if err == nil {
			return r, path
		}
	}
	return &Renderer{font: plot.DefaultFont}, ""
}

func parseFont(data []byte) (*opentype.Font, error) {
	if !bytes.HasPrefix(data, []byte("ttcf")) {
		return opentype.Parse(data)
	}
	collection, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	return collection.Font(0)
}

func (r *Renderer) textFont(size vg.Length) font.Font {
	return font.From(r.font, size)
}

func (r *Renderer) newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	if !r.custom {
		return p
	}
	styles := []*draw.TextStyle{
		&p.Title.TextStyle,
		&p.X.Label.TextStyle,
		&p.Y.Label.TextStyle,
		&p.X.Tick.Label,
		&p.Y.Tick.Label,
	}
	for _, s := range styles {
		s.Font = r.textFont(s.Font.Size)
	}
	return p
}

func savePlot(p *plot.Plot, path string, width, height vg.Length) error {
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := writer.WriteTo(w)
		return err
	})
}
