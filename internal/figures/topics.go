package figures

import (
	"fmt"
	"image/color"
	"weibo-analysis/internal/topics"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TopicChart writes a horizontal bar chart of the terms of `topic`, the
// heaviest term on top.
func (r *Renderer) TopicChart(path string, topic topics.Topic) error {
	if len(topic.Terms) == 0 {
		return fmt.Errorf("topic %d has no terms", topic.Index)
	}

	// nominal axes grow upwards, so the order is reversed
	n := len(topic.Terms)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, term := range topic.Terms {
		values[n-1-i] = term.Weight
		names[n-1-i] = term.Token
	}

	p := r.newPlot(fmt.Sprintf("Topic %d", topic.Index))
	p.X.Label.Text = "Weight"
	p.X.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = palette[topic.Index%len(palette)]
	bars.LineStyle.Color = color.Transparent
	p.Add(bars)
	p.NominalY(names...)

	return savePlot(p, path, 6*vg.Inch, vg.Length(n)*0.35*vg.Inch+1.5*vg.Inch)
}
