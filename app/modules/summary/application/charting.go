package summaryservice

import (
	"bytes"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
)

// ChartPalette holds the colors used by digest charts.
type ChartPalette struct {
	Background drawing.Color
	PrimaryBar drawing.Color
	TextColor  drawing.Color
}

// DefaultPalette is the hearth-warm digest theme.
func DefaultPalette() ChartPalette {
	return ChartPalette{
		Background: drawing.Color{R: 0xFA, G: 0xF4, B: 0xEB, A: 0xFF},
		PrimaryBar: drawing.Color{R: 0xC1, G: 0x5B, B: 0x2E, A: 0xFF},
		TextColor:  drawing.Color{R: 0x33, G: 0x2B, B: 0x24, A: 0xFF},
	}
}

// GenerateWeeklyChart produces a PNG bar chart of daily point totals for a
// weekly summary.
func GenerateWeeklyChart(summary WeeklySummary, palette ChartPalette) ([]byte, error) {
	if len(summary.DailyPoints) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	days := make([]string, 0, len(summary.DailyPoints))
	for d := range summary.DailyPoints {
		days = append(days, d)
	}
	sort.Strings(days)

	bars := make([]chart.Value, 0, len(days))
	for _, d := range days {
		label := d
		if parsed, err := dates.ParseYMD(d); err == nil {
			label = parsed.Format("Mon")
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: float64(summary.DailyPoints[d]),
			Style: chart.Style{
				FillColor:   palette.PrimaryBar,
				StrokeColor: palette.PrimaryBar,
			},
		})
	}

	graph := chart.BarChart{
		Title:  "Points for week of " + summary.WeekStart,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor: palette.TextColor,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No activity recorded this week"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
