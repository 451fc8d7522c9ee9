package api

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/civic-data/caseload.report/internal/aggregate"
)

// maxChartRows keeps long-tailed dimensions (streets, charges) readable.
const maxChartRows = 15

// ChartMux returns the server-rendered chart routes.
func (s *Server) ChartMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/charts/table", s.handleTableBar)
	mux.HandleFunc("/charts/casetypes", s.handleCaseTypePie)
	return mux
}

// handleTableBar renders any archived aggregate table as an ECharts bar
// chart. Query params: name (required), run_id (optional; defaults to the
// newest run).
func (s *Server) handleTableBar(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'name' parameter")
		return
	}
	runID, err := s.resolveRunID(r)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	table, err := s.store.GetTable(runID, name)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Failed to load table: %v", err))
		return
	}

	rows := table.Top(maxChartRows)
	keys := make([]string, 0, len(rows))
	data := make([]opts.BarData, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key)
		data = append(data, opts.BarData{Value: row.Count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: table.Title, Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: table.Title, Subtitle: fmt.Sprintf("run=%s total=%d", runID, table.Total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(keys)
	bar.AddSeries("cases", data)

	s.renderChart(w, bar.Render)
}

// handleCaseTypePie renders the case type distribution as a pie chart.
func (s *Server) handleCaseTypePie(w http.ResponseWriter, r *http.Request) {
	runID, err := s.resolveRunID(r)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	table, err := s.store.GetTable(runID, aggregate.TableCaseTypes)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Failed to load table: %v", err))
		return
	}

	data := make([]opts.PieData, 0, len(table.Rows))
	for _, row := range table.Rows {
		data = append(data, opts.PieData{Name: row.Key, Value: row.Count})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: table.Title, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: table.Title, Subtitle: fmt.Sprintf("run=%s total=%d", runID, table.Total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("cases", data)

	s.renderChart(w, pie.Render)
}

func (s *Server) renderChart(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleDashboard renders a simple page with iframes to the chart routes.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	qs := ""
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		qs = "&run_id=" + url.QueryEscape(runID)
	}
	safeQs := html.EscapeString(qs)

	doc := fmt.Sprintf(dashboardHTML, safeQs, safeQs, safeQs, safeQs)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Caseload Dashboard</title>
<style>
  body { font-family: sans-serif; margin: 1rem; background: #f4f4f4; }
  iframe { border: 1px solid #ccc; background: #fff; width: 100%%; height: 640px; margin-bottom: 1rem; }
</style>
</head>
<body>
<h1>Municipal Court Caseload Dashboard</h1>
<iframe src="/charts/casetypes?%s"></iframe>
<iframe src="/charts/table?name=cases_by_day_of_week%s"></iframe>
<iframe src="/charts/table?name=corridor_distribution%s"></iframe>
<iframe src="/charts/table?name=agency_distribution%s"></iframe>
</body>
</html>
`
