// Package render draws projected charts as PNG line charts.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mtlprog/realty/internal/chart"
)

// ErrNoData is returned when a chart has no series to draw.
var ErrNoData = errors.New("no data for this metric")

const (
	defaultWidth  = 1200
	defaultHeight = 400
)

// Renderer draws charts with a fixed size and optional font. Complex names
// are Hangul, which the built-in font cannot display, so production setups
// pass a font such as NanumGothic.
type Renderer struct {
	width  int
	height int
	font   *truetype.Font
}

// NewRenderer creates a Renderer. fontPath may be empty to use the default font.
func NewRenderer(fontPath string) (*Renderer, error) {
	r := &Renderer{width: defaultWidth, height: defaultHeight}
	if fontPath == "" {
		return r, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading chart font: %w", err)
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing chart font: %w", err)
	}
	r.font = font
	return r, nil
}

// PNG writes c as a PNG line chart with one line per series.
func (r *Renderer) PNG(w io.Writer, c chart.Chart) error {
	if len(c.Series) == 0 {
		return ErrNoData
	}

	lines := make([]gochart.Series, 0, len(c.Series))
	minY, maxY := c.Series[0].Last().InexactFloat64(), c.Series[0].Last().InexactFloat64()
	for i, s := range c.Series {
		xs, ys := timeValues(s)
		for _, y := range ys {
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
		lines = append(lines, gochart.TimeSeries{
			Name:    s.DisplayName,
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(gochart.GetDefaultColor(i)),
		})
	}
	if minY == maxY {
		minY, maxY = minY-1, maxY+1
	}

	graph := gochart.Chart{
		Title:  chart.Title(c.Metric),
		Width:  r.width,
		Height: r.height,
		Font:   r.font,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{ValueFormatter: gochart.TimeDateValueFormatter},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: minY, Max: maxY},
			ValueFormatter: thousandsFormatter,
		},
		Series: lines,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering %s chart: %w", c.Metric, err)
	}
	return nil
}

// timeValues converts series points to axis values. A single point is
// widened to a one-day flat segment; go-chart rejects zero-width ranges.
func timeValues(s chart.Series) ([]time.Time, []float64) {
	xs := make([]time.Time, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = p.Date
		ys[i] = p.Value.InexactFloat64()
	}
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}
	return xs, ys
}

func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

func thousandsFormatter(v any) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return FormatThousands(int64(f))
}

var numberPrinter = message.NewPrinter(language.English)

// FormatThousands renders n with comma thousands separators, e.g. 1234567 -> "1,234,567".
func FormatThousands(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}
