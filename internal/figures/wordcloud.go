package figures

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"weibo-analysis/internal/wordfreq"
	"weibo-analysis/pkg/fsutil"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

type WordCloudOptions struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	MaxWords    int     `json:"max_words"`
	MinFontSize float64 `json:"min_font_size"`
	MaxFontSize float64 `json:"max_font_size"`
}

func (o WordCloudOptions) WithDefaults() WordCloudOptions {
	if o.Width == 0 {
		o.Width = 800
	}
	if o.Height == 0 {
		o.Height = 400
	}
	if o.MaxWords == 0 {
		o.MaxWords = 200
	}
	if o.MinFontSize == 0 {
		o.MinFontSize = 8
	}
	if o.MaxFontSize == 0 {
		o.MaxFontSize = 72
	}
	return o
}

func (o WordCloudOptions) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("word cloud size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.MaxWords <= 0 {
		return fmt.Errorf("max words must be positive, got %d", o.MaxWords)
	}
	if o.MinFontSize <= 0 || o.MaxFontSize < o.MinFontSize {
		return fmt.Errorf("invalid font size range %v-%v", o.MinFontSize, o.MaxFontSize)
	}
	return nil
}

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	color.RGBA{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

// PlacedWord is a word and the box it occupies, with the origin at the
// bottom left of the image.
type PlacedWord struct {
	Token string
	Size  vg.Length
	Color color.Color
	Box   vg.Rectangle
}

func overlaps(a, b vg.Rectangle) bool {
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X &&
		a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y
}

func inside(r vg.Rectangle, width, height vg.Length) bool {
	return r.Min.X >= 0 && r.Min.Y >= 0 && r.Max.X <= width && r.Max.Y <= height
}

const (
	spiralStep    = 0.3
	spiralSpacing = 8
	spiralGrowth  = 2
	shrinkFactor  = 0.85
	wordPadding   = 2
)

func (r *Renderer) fontSize(count, minCount, maxCount int, opts WordCloudOptions) vg.Length {
	if maxCount == minCount {
		return vg.Length(opts.MaxFontSize)
	}
	ratio := float64(count-minCount) / float64(maxCount-minCount)
	size := opts.MinFontSize + (opts.MaxFontSize-opts.MinFontSize)*math.Sqrt(ratio)
	return vg.Length(size)
}

func (r *Renderer) wordStyle(size vg.Length, c color.Color) draw.TextStyle {
	return draw.TextStyle{
		Color:   c,
		Font:    r.textFont(size),
		Handler: plot.DefaultTextHandler,
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
	}
}

// Layout places the most frequent words on an archimedean spiral around
// the center, largest first. A word that does not fit is shrunk, once one
// does not fit even at the minimum size the layout stops. The layout only
// depends on the table and the options.
func (r *Renderer) Layout(table wordfreq.Table, opts WordCloudOptions) []PlacedWord {
	words := table.Top(opts.MaxWords)
	if len(words) == 0 {
		return nil
	}

	width := vg.Length(opts.Width)
	height := vg.Length(opts.Height)
	center := vg.Point{X: width / 2, Y: height / 2}
	maxCount := words[0].Count
	minCount := words[len(words)-1].Count

	var placed []PlacedWord
	for i, entry := range words {
		c := palette[i%len(palette)]
		size := r.fontSize(entry.Count, minCount, maxCount, opts)

		fitted := false
		for size >= vg.Length(opts.MinFontSize) {
			style := r.wordStyle(size, c)
			w := style.Width(entry.Token) + wordPadding*2
			h := style.Height(entry.Token) + wordPadding*2

			box, ok := findSpot(placed, center, w, h, width, height)
			if ok {
				placed = append(placed, PlacedWord{
					Token: entry.Token,
					Size:  size,
					Color: c,
					Box:   box,
				})
				fitted = true
				break
			}
			size *= shrinkFactor
		}
		if !fitted {
			break
		}
	}
	return placed
}

func findSpot(placed []PlacedWord, center vg.Point, w, h, width, height vg.Length) (vg.Rectangle, bool) {
	maxRadius := math.Hypot(float64(width), float64(height)) / 2
	for theta := 0.0; spiralGrowth*theta <= maxRadius; {
		radius := spiralGrowth * theta
		x := center.X + vg.Length(radius*math.Cos(theta))
		y := center.Y + vg.Length(radius*math.Sin(theta))
		// keep roughly the same distance between candidates on outer turns
		theta += math.Min(spiralStep, spiralSpacing/math.Max(radius, 1))

		box := vg.Rectangle{
			Min: vg.Point{X: x - w/2, Y: y - h/2},
			Max: vg.Point{X: x + w/2, Y: y + h/2},
		}
		if !inside(box, width, height) {
			continue
		}

		free := true
		for _, p := range placed {
			if overlaps(box, p.Box) {
				free = false
				break
			}
		}
		if free {
			return box, true
		}
	}
	return vg.Rectangle{}, false
}

// WordCloud renders the most frequent words of `table` on a white background.
func (r *Renderer) WordCloud(path string, table wordfreq.Table, opts WordCloudOptions) error {
	opts = opts.WithDefaults()
	err := opts.Validate()
	if err != nil {
		return err
	}
	if len(table) == 0 {
		return fmt.Errorf("no words to draw")
	}

	placed := r.Layout(table, opts)
	if len(placed) == 0 {
		return fmt.Errorf("none of the words fit in %dx%d", opts.Width, opts.Height)
	}

	// at 72 dpi one point is one pixel
	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width), vg.Length(opts.Height)),
		vgimg.UseDPI(72),
		vgimg.UseBackgroundColor(color.White),
	)
	dc := draw.New(img)
	for _, p := range placed {
		center := vg.Point{
			X: (p.Box.Min.X + p.Box.Max.X) / 2,
			Y: (p.Box.Min.Y + p.Box.Max.Y) / 2,
		}
		dc.FillText(r.wordStyle(p.Size, p.Color), center, p.Token)
	}

	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
		return err
	})
}
