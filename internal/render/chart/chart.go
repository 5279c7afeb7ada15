// Package chart rasterizes the chart kinds a visual may request (bar, line,
// pie) into PNG bytes, and owns the permissive numeric coercion policy shared
// by both renderers.
package chart

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	chartlib "github.com/wcharczuk/go-chart/v2"

	"github.com/example/presentation-assistant/internal/models"
)

const (
	chartWidth  = 1024
	chartHeight = 576
)

// SafeNumeric coerces a raw JSON value series to floats. Strings are parsed
// permissively (trailing '%' stripped); anything unparseable becomes 0.0 with
// a warning so series stay aligned with their category axis. Never fails.
func SafeNumeric(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case float64:
			out = append(out, t)
		case int:
			out = append(out, float64(t))
		case string:
			s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				log.Warn().Str("value", t).Msg("could not convert value to float, using 0.0")
				f = 0
			}
			out = append(out, f)
		default:
			log.Warn().Interface("value", v).Msg("could not convert value to float, using 0.0")
			out = append(out, 0)
		}
	}
	return out
}

// Strings coerces a raw JSON series to display labels.
func Strings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'g', -1, 64))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Render rasterizes one chart as PNG. For bar and line charts, categories and
// values are the x/y series; for pie charts they are the slice labels and
// sizes and the axis labels are ignored.
func Render(kind, title string, categories []string, values []float64, xlabel, ylabel string) ([]byte, error) {
	if len(categories) == 0 || len(values) == 0 {
		return nil, fmt.Errorf("%s chart: empty data series", kind)
	}
	n := len(categories)
	if len(values) < n {
		n = len(values)
	}

	switch kind {
	case models.VisualBar:
		return renderBar(title, categories[:n], values[:n], ylabel)
	case models.VisualLine:
		return renderLine(title, categories[:n], values[:n], xlabel, ylabel)
	case models.VisualPie:
		return renderPie(title, categories[:n], values[:n])
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", kind)
	}
}

func renderBar(title string, categories []string, values []float64, ylabel string) ([]byte, error) {
	bars := make([]chartlib.Value, len(values))
	for i, v := range values {
		bars[i] = chartlib.Value{Label: categories[i], Value: v}
	}
	graph := chartlib.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 60,
		YAxis: chartlib.YAxis{
			Name: ylabel,
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chartlib.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderLine(title string, categories []string, values []float64, xlabel, ylabel string) ([]byte, error) {
	xs := make([]float64, len(values))
	ticks := make([]chartlib.Tick, len(values))
	for i := range values {
		xs[i] = float64(i)
		ticks[i] = chartlib.Tick{Value: float64(i), Label: categories[i]}
	}
	graph := chartlib.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chartlib.XAxis{
			Name:  xlabel,
			Ticks: ticks,
		},
		YAxis: chartlib.YAxis{
			Name: ylabel,
		},
		Series: []chartlib.Series{
			chartlib.ContinuousSeries{XValues: xs, YValues: values},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chartlib.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPie(title string, labels []string, sizes []float64) ([]byte, error) {
	vals := make([]chartlib.Value, len(sizes))
	for i, v := range sizes {
		vals[i] = chartlib.Value{Label: labels[i], Value: v}
	}
	graph := chartlib.PieChart{
		Title:  title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: vals,
	}
	var buf bytes.Buffer
	if err := graph.Render(chartlib.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
