package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/wildlife.report/internal/httputil"
	"github.com/banshee-data/wildlife.report/internal/percept"
)

// handleDetectionsChart renders an hourly detection histogram (HTML) using
// go-echarts, one bar series per classification kind. This is a
// debugging-only endpoint (no auth) for checking camera activity without a
// frontend.
// Query params:
//   - hours (optional; default 24, max 168)
func (s *Server) handleDetectionsChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		if v, err := strconv.Atoi(h); err == nil && v > 0 && v <= 168 {
			hours = v
		}
	}

	now := time.Now()
	since := now.Add(-time.Duration(hours) * time.Hour).Truncate(time.Hour)
	detections, err := s.detections.ListSince(since)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve detections: %v", err))
		return
	}

	kinds := []string{
		string(percept.KindAnimal),
		string(percept.KindNonAnimal),
		string(percept.KindUnknown),
	}

	buckets := int(now.Sub(since)/time.Hour) + 1
	labels := make([]string, buckets)
	series := make(map[string][]opts.BarData, len(kinds))
	for _, k := range kinds {
		series[k] = make([]opts.BarData, buckets)
		for i := range series[k] {
			series[k][i] = opts.BarData{Value: 0}
		}
	}
	for i := range labels {
		labels[i] = since.Add(time.Duration(i) * time.Hour).Format("Jan 2 15:00")
	}

	for _, d := range detections {
		bucket := int(d.Time().Sub(since) / time.Hour)
		if bucket < 0 || bucket >= buckets {
			continue
		}
		data, ok := series[d.Kind]
		if !ok {
			data = series[string(percept.KindUnknown)]
		}
		data[bucket] = opts.BarData{Value: data[bucket].Value.(int) + 1}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Wildlife Detections", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Detections per hour",
			Subtitle: fmt.Sprintf("window=%dh total=%d", hours, len(detections)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	for _, k := range kinds {
		bar.AddSeries(k, series[k])
	}

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
