package figures

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	histogramBins = 20
	kdeSamples    = 200
)

func histogramOf(scores []float64) []plotter.HistogramBin {
	width := 1.0 / histogramBins
	bins := make([]plotter.HistogramBin, histogramBins)
	for i := range bins {
		bins[i] = plotter.HistogramBin{
			Min: float64(i) * width,
			Max: float64(i+1) * width,
		}
	}
	for _, s := range scores {
		i := int(s / width)
		// 1.0 belongs to the last bin
		if i >= histogramBins {
			i = histogramBins - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Weight++
	}
	return bins
}

// kde returns a gaussian kernel density estimate of `scores` scaled to the
// height of the histogram. It is nil when the bandwidth would be zero.
func kde(scores []float64) plotter.XYs {
	if len(scores) < 2 {
		return nil
	}
	n := float64(len(scores))
	sd := stat.StdDev(scores, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	// silverman's rule of thumb
	bandwidth := 1.06 * sd * math.Pow(n, -0.2)

	kernels := make([]distuv.Normal, len(scores))
	for i, s := range scores {
		kernels[i] = distuv.Normal{Mu: s, Sigma: bandwidth}
	}

	// the sum of the kernels is n times the density, one bin holds
	// n * density * bin width comments.
	scale := 1.0 / histogramBins
	points := make(plotter.XYs, kdeSamples+1)
	for i := range points {
		x := float64(i) / kdeSamples
		density := 0.0
		for _, k := range kernels {
			density += k.Prob(x)
		}
		points[i] = plotter.XY{X: x, Y: density * scale}
	}
	return points
}

// SentimentHistogram writes a histogram of `scores` with a density curve on top.
func (r *Renderer) SentimentHistogram(path string, scores []float64) error {
	if len(scores) == 0 {
		return fmt.Errorf("no scores to plot")
	}

	p := r.newPlot("Sentiment Distribution")
	p.X.Label.Text = "Score"
	p.Y.Label.Text = "Frequency"
	p.X.Min = 0
	p.X.Max = 1

	hist := &plotter.Histogram{
		Bins:      histogramOf(scores),
		Width:     1.0 / histogramBins,
		FillColor: color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xb0},
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist)

	points := kde(scores)
	if points != nil {
		line, err := plotter.NewLine(points)
		if err != nil {
			return err
		}
		line.LineStyle.Color = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
	}

	return savePlot(p, path, 8*vg.Inch, 5*vg.Inch)
}
