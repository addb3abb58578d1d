package render

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/roach88/murder/internal/domain"
)

const noKillsMessage = "Nobody has been murdered yet"

// KillChart writes a PNG bar chart with one bar per player who killed at
// least once, in player order.
func KillChart(w io.Writer, g *domain.Game) error {
	var bars []chart.Value
	most := 0
	for _, p := range g.Players {
		n := g.KillCount(p)
		if n == 0 {
			continue
		}
		most = max(most, n)
		bars = append(bars, chart.Value{Label: p.Name, Value: float64(n)})
	}
	if len(bars) == 0 {
		return renderPlaceholder(w, noKillsMessage)
	}

	graph := chart.BarChart{
		Title:    g.Title,
		Width:    max(400, 80*len(bars)+160),
		Height:   400,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(most)},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render kill chart: %w", err)
	}
	return nil
}

// renderPlaceholder draws msg on an otherwise empty chart. go-chart only
// renders charts with a visible series, so an invisible one spans the canvas.
func renderPlaceholder(w io.Writer, msg string) error {
	graph := chart.Chart{
		Width:  400,
		Height: 200,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis:  chart.YAxis{Style: chart.Hidden()},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
					StrokeWidth: 1,
				},
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, s chart.Style) {
				r.SetFont(s.Font)
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, cb.Left+(cb.Width()-tb.Width())/2, cb.Top+(cb.Height()+tb.Height())/2)
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render placeholder chart: %w", err)
	}
	return nil
}
