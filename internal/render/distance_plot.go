package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
)

var bandColors = map[rssi.Band]color.RGBA{
	rssi.Band24GHz:   {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	rssi.Band5GHz:    {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	rssi.BandUnknown: {R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

var plotBands = []rssi.Band{rssi.Band24GHz, rssi.Band5GHz, rssi.BandUnknown}

// DistanceStrengthPlot charts readings against their band-aware distance,
// with each band's path-loss curve for reference
func DistanceStrengthPlot(points []models.DistanceStrengthPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Signal strength vs. estimated distance"
	p.X.Label.Text = "distance (m)"
	p.Y.Label.Text = "RSSI (dBm)"
	p.Add(plotter.NewGrid())

	byBand := make(map[rssi.Band]plotter.XYs)
	maxDist := 10.0
	for _, pt := range points {
		band := pt.Band
		if _, ok := bandColors[band]; !ok {
			band = rssi.BandUnknown
		}
		byBand[band] = append(byBand[band], plotter.XY{X: pt.Distance, Y: pt.SignalStrengthDbm})
		maxDist = math.Max(maxDist, pt.Distance)
	}

	for _, band := range plotBands {
		xys := byBand[band]
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("building %s scatter: %w", band, err)
		}
		s.GlyphStyle.Color = bandColors[band]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2.5)

		model := rssi.ModelFor(band)
		curve := plotter.NewFunction(func(x float64) float64 { return model.RSSI(x) })
		curve.XMin = 0.5
		curve.XMax = maxDist
		curve.Color = bandColors[band]
		curve.Width = vg.Points(1)
		curve.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

		p.Add(s, curve)
		p.Legend.Add(string(band), s)
	}

	p.X.Min = 0
	p.X.Max = maxDist * 1.05
	p.Y.Min = -100
	p.Y.Max = -20
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteDistanceStrengthPNG renders the chart as a PNG of the given size
func WriteDistanceStrengthPNG(w io.Writer, points []models.DistanceStrengthPoint, width, height vg.Length) error {
	p, err := DistanceStrengthPlot(points)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("preparing chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}
