package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/civic-data/caseload.report/internal/aggregate"
)

// Chart artifact filenames, fixed so the dashboard can link to them.
const (
	ChartCaseTypes = "case_type_distribution.png"
	ChartDays      = "cases_by_day_of_week.png"
	ChartHours     = "cases_by_hour.png"
	ChartCorridors = "top_corridors.png"
)

// maxCorridorBars limits the corridor chart to the busiest corridors so the
// labels stay legible.
const maxCorridorBars = 10

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255} // steel blue

// RenderCharts renders the fixed chart layouts. Each chart failure is
// recovered: the chart is skipped with a warning and rendering continues.
func (e *Emitter) RenderCharts(a Artifacts) {
	charts := []struct {
		name   string
		render func(Artifacts) error
	}{
		{ChartCaseTypes, e.renderCaseTypes},
		{ChartDays, e.renderDays},
		{ChartHours, e.renderHours},
		{ChartCorridors, e.renderCorridors},
	}
	for _, c := range charts {
		if err := c.render(a); err != nil {
			rerr := &RenderError{Chart: c.name, Err: err}
			e.warnf("%v", rerr)
		}
	}
}

func (e *Emitter) findTable(a Artifacts, name string) (aggregate.Table, error) {
	for _, t := range a.Tables {
		if t.Name == name {
			if len(t.Rows) == 0 {
				return t, fmt.Errorf("table is empty")
			}
			return t, nil
		}
	}
	return aggregate.Table{}, fmt.Errorf("table %s not computed", name)
}

func (e *Emitter) renderCaseTypes(a Artifacts) error {
	t, err := e.findTable(a, aggregate.TableCaseTypes)
	if err != nil {
		return err
	}
	keys := make([]string, len(t.Rows))
	values := make(plotter.Values, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
		values[i] = float64(r.Count)
	}
	return e.saveBarChart(ChartCaseTypes, "Case Type Distribution", "Case Type", keys, values, false)
}

func (e *Emitter) renderDays(a Artifacts) error {
	t, err := e.findTable(a, aggregate.TableDays)
	if err != nil {
		return err
	}
	// Chronological order reads better than count order for a weekly chart.
	days := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	keys := make([]string, len(days))
	values := make(plotter.Values, len(days))
	for i, d := range days {
		keys[i] = d.String()
		values[i] = float64(t.CountFor(d.String()))
	}
	return e.saveBarChart(ChartDays, "Cases by Day of Week", "Day", keys, values, false)
}

func (e *Emitter) renderHours(a Artifacts) error {
	t, err := e.findTable(a, aggregate.TableHours)
	if err != nil {
		return err
	}

	pts := make(plotter.XYs, 0, len(t.Rows))
	for hour := 0; hour < 24; hour++ {
		label := fmt.Sprintf("%02d:00", hour)
		pts = append(pts, plotter.XY{X: float64(hour), Y: float64(t.CountFor(label))})
	}

	p := plot.New()
	p.Title.Text = "Cases by Hour of Day"
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "Number of Cases"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = barColor
	line.Width = vg.Points(2)
	p.Add(line)

	return e.savePlot(p, ChartHours)
}

func (e *Emitter) renderCorridors(a Artifacts) error {
	if len(a.Corridors) == 0 {
		return fmt.Errorf("no corridor summary computed")
	}
	n := len(a.Corridors)
	if n > maxCorridorBars {
		n = maxCorridorBars
	}
	keys := make([]string, n)
	values := make(plotter.Values, n)
	// Reverse so the busiest corridor ends up at the top of the chart.
	for i := 0; i < n; i++ {
		s := a.Corridors[n-1-i]
		keys[i] = s.Corridor
		values[i] = float64(s.TotalCases)
	}
	return e.saveBarChart(ChartCorridors, "Top Enforcement Corridors", "Corridor", keys, values, true)
}

func (e *Emitter) saveBarChart(filename, title, axisLabel string, keys []string, values plotter.Values, horizontal bool) error {
	p := plot.New()
	p.Title.Text = title
	if horizontal {
		p.X.Label.Text = "Number of Cases"
	} else {
		p.X.Label.Text = axisLabel
		p.Y.Label.Text = "Number of Cases"
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = 0
	bars.Color = barColor
	bars.Horizontal = horizontal
	p.Add(bars)
	if horizontal {
		p.NominalY(shorten(keys, 24)...)
	} else {
		p.NominalX(shorten(keys, 16)...)
	}

	return e.savePlot(p, filename)
}

func (e *Emitter) savePlot(p *plot.Plot, filename string) error {
	if err := os.MkdirAll(e.chartsDir, 0755); err != nil {
		return fmt.Errorf("failed to create charts dir: %w", err)
	}
	path := filepath.Join(e.chartsDir, filename)
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// shorten truncates long labels so they fit the plot margins.
func shorten(keys []string, max int) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if len(k) > max {
			k = strings.TrimSpace(k[:max-1]) + "…"
		}
		out[i] = k
	}
	return out
}
