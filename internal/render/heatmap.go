package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

const (
	headerPx     = 40
	maxImagePx   = 720
	titleSize    = 13
	labelSize    = 10
	markerRadius = 4
	maxLabelLen  = 18
)

var (
	deadzoneColor = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	hatchColor    = color.RGBA{R: 0x55, G: 0x20, B: 0x20, A: 0xff}
	headerColor   = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff}
	anchorColor   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	apColor       = color.RGBA{R: 0xff, G: 0x40, B: 0xff, A: 0xff}
)

// HeatmapInput is everything drawn on a coverage image
type HeatmapInput struct {
	Grid      models.GridInfo
	Coverage  models.CoverageGrid
	Deadzones models.DeadzoneMask
	Estimates []models.AccessPointEstimate
	Anchors   map[string]models.Position
	Theme     Theme
}

// HeatmapRenderer draws coverage maps. It is safe for concurrent use.
type HeatmapRenderer struct {
	font *truetype.Font
}

// NewHeatmapRenderer parses the embedded label font
func NewHeatmapRenderer() (*HeatmapRenderer, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return &HeatmapRenderer{font: f}, nil
}

// CellPixels is the on-image size of one cell for a grid of cols x rows
func CellPixels(cols, rows int) int {
	n := max(cols, rows, 1)
	return max(4, min(24, maxImagePx/n))
}

// Render draws the coverage map with a text header
func (r *HeatmapRenderer) Render(in HeatmapInput) (*image.RGBA, error) {
	cov := in.Coverage
	if cov.Cols <= 0 || cov.Rows <= 0 {
		return nil, fmt.Errorf("empty coverage grid %dx%d", cov.Cols, cov.Rows)
	}
	cellPx := CellPixels(cov.Cols, cov.Rows)
	mapW, mapH := cov.Cols*cellPx, cov.Rows*cellPx

	img := image.NewRGBA(image.Rect(0, 0, mapW, mapH+headerPx))
	draw.Draw(img, image.Rect(0, 0, mapW, headerPx), image.NewUniform(headerColor), image.Point{}, draw.Src)

	peak := peakIntensity(cov)
	for row := 0; row < cov.Rows; row++ {
		// row 0 is the southern edge, drawn at the bottom
		top := headerPx + (cov.Rows-1-row)*cellPx
		for col := 0; col < cov.Cols; col++ {
			rect := image.Rect(col*cellPx, top, (col+1)*cellPx, top+cellPx)
			if isDeadzone(in.Deadzones, row, col) {
				fillHatched(img, rect)
				continue
			}
			v := 0.0
			if peak > 0 {
				v = cov.Intensity[row][col] / peak
			}
			draw.Draw(img, rect, image.NewUniform(in.Theme.Color(v)), image.Point{}, draw.Src)
		}
	}

	toPixel := func(p models.Position) image.Point {
		x := int(math.Round(p.X / cov.CellSize * float64(cellPx)))
		y := int(math.Round(p.Y / cov.CellSize * float64(cellPx)))
		return image.Pt(min(max(x, 0), mapW-1), headerPx+min(max(mapH-y, 0), mapH-1))
	}

	ctx := r.newContext(img)

	for _, e := range in.Estimates {
		pt := toPixel(models.Position{X: e.X, Y: e.Y})
		fillCircle(img, pt, markerRadius, apColor)
		name := e.DisplayName
		if name == "" {
			name = e.AccessPointID
		}
		ctx.SetFontSize(labelSize)
		if _, err := ctx.DrawString(truncate(name, maxLabelLen), freetype.Pt(pt.X+markerRadius+2, pt.Y+4)); err != nil {
			return nil, fmt.Errorf("drawing label: %w", err)
		}
	}
	for _, p := range in.Anchors {
		pt := toPixel(p)
		draw.Draw(img, image.Rect(pt.X-markerRadius, pt.Y-markerRadius, pt.X+markerRadius+1, pt.Y+markerRadius+1),
			image.NewUniform(anchorColor), image.Point{}, draw.Src)
	}

	if err := r.drawHeader(ctx, in, peak); err != nil {
		return nil, err
	}
	return img, nil
}

// WritePNG renders and encodes the map
func (r *HeatmapRenderer) WritePNG(w io.Writer, in HeatmapInput) error {
	img, err := r.Render(in)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func (r *HeatmapRenderer) newContext(dst *image.RGBA) *freetype.Context {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(r.font)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.White)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	return ctx
}

func (r *HeatmapRenderer) drawHeader(ctx *freetype.Context, in HeatmapInput, peak float64) error {
	cells := in.Coverage.Cols * in.Coverage.Rows
	dead := 0
	for _, row := range in.Deadzones {
		for _, v := range row {
			if v {
				dead++
			}
		}
	}
	deadPct := 0.0
	if cells > 0 {
		deadPct = float64(dead) / float64(cells) * 100
	}

	lines := []string{
		fmt.Sprintf("%s x %s m, %s cells, %d anchors",
			humanize.Ftoa(in.Grid.Width), humanize.Ftoa(in.Grid.Height), humanize.Comma(int64(cells)), len(in.Anchors)),
		fmt.Sprintf("%d access points, peak %s, deadzones %s%%",
			len(in.Estimates), humanize.FtoaWithDigits(peak, 2), humanize.FtoaWithDigits(deadPct, 1)),
	}
	ctx.SetFontSize(titleSize)
	for i, line := range lines {
		if _, err := ctx.DrawString(line, freetype.Pt(6, 16+i*17)); err != nil {
			return fmt.Errorf("drawing header: %w", err)
		}
	}
	return nil
}

func peakIntensity(cov models.CoverageGrid) float64 {
	peak := 0.0
	for _, row := range cov.Intensity {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}
	return peak
}

func isDeadzone(mask models.DeadzoneMask, row, col int) bool {
	return row < len(mask) && col < len(mask[row]) && mask[row][col]
}

func fillHatched(img *image.RGBA, rect image.Rectangle) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if (x+y)%6 == 0 {
				img.SetRGBA(x, y, hatchColor)
			} else {
				img.SetRGBA(x, y, deadzoneColor)
			}
		}
	}
}

func fillCircle(img *image.RGBA, c image.Point, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				p := c.Add(image.Pt(dx, dy))
				if p.In(img.Bounds()) {
					img.SetRGBA(p.X, p.Y, col)
				}
			}
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
