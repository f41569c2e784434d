package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/pplcc/plotext"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/gamma-omg/backtester/internal/stats"
)

var (
	equityColor   = color.RGBA{R: 32, G: 120, B: 220, A: 255}
	balanceColor  = color.RGBA{R: 90, G: 180, B: 90, A: 255}
	drawdownColor = color.RGBA{R: 210, G: 80, B: 60, A: 255}
)

// Chart stacks time-aligned panels into one png, equity on top and
// drawdown below it.
type Chart struct {
	panels  []*plot.Plot
	heights []float64
	w       int
	h       int
}

func NewChart(w, h int) *Chart {
	return &Chart{w: w, h: h}
}

func (c *Chart) add(p *plot.Plot, height float64) {
	c.panels = append(c.panels, p)
	c.heights = append(c.heights, height)
}

// AddEquity plots the per-bar balance and mark-to-market equity of one run.
func (c *Chart) AddEquity(symbol string, r stats.Results) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s equity", symbol)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04:05"}

	equity := make(plotter.XYs, len(r.Equity))
	balance := make(plotter.XYs, len(r.Equity))
	for i, pt := range r.Equity {
		x := float64(pt.Time.Unix())
		equity[i] = plotter.XY{X: x, Y: pt.Equity}
		balance[i] = plotter.XY{X: x, Y: pt.Balance}
	}

	eqLine, err := plotter.NewLine(equity)
	if err != nil {
		return fmt.Errorf("failed to plot equity: %w", err)
	}
	eqLine.Color = equityColor

	balLine, err := plotter.NewLine(balance)
	if err != nil {
		return fmt.Errorf("failed to plot balance: %w", err)
	}
	balLine.Color = balanceColor

	p.Add(eqLine, balLine)
	p.Legend.Add("equity", eqLine)
	p.Legend.Add("balance", balLine)
	p.Legend.Top = true

	c.add(p, 0.7)
	return nil
}

// AddDrawdown plots the percent fall of the realized balance below its
// running peak, the same series the max drawdown stat is taken from.
func (c *Chart) AddDrawdown(r stats.Results) error {
	p := plot.New()
	p.Title.Text = "drawdown %"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04:05"}

	pts := make(plotter.XYs, len(r.Equity))
	for i, pt := range r.Equity {
		pts[i] = plotter.XY{X: float64(pt.Time.Unix()), Y: -pt.Drawdown}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to plot drawdown: %w", err)
	}
	line.Color = drawdownColor

	p.Add(line)
	c.add(p, 0.3)
	return nil
}

// Save aligns the panels on a shared time axis and writes the png.
func (c *Chart) Save(path string) (err error) {
	if len(c.panels) == 0 {
		return errors.New("no panels to draw")
	}

	var axis []*plot.Axis
	for _, p := range c.panels {
		axis = append(axis, &p.X)
	}
	plotext.UniteAxisRanges(axis)

	tbl := plotext.Table{
		RowHeights: c.heights,
		ColWidths:  []float64{1},
	}

	var rows [][]*plot.Plot
	for _, p := range c.panels {
		rows = append(rows, []*plot.Plot{p})
	}

	h := 0.0
	for _, v := range c.heights {
		h += v * float64(c.h)
	}

	img := vgimg.New(vg.Points(float64(c.w)), vg.Points(h))
	dc := draw.New(img)

	canvases := tbl.Align(rows, dc)
	for i, p := range c.panels {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close chart file: %w", cerr))
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	return nil
}

// SaveChart renders the standard equity and drawdown chart for one symbol.
func SaveChart(path, symbol string, r stats.Results) error {
	c := NewChart(1200, 800)
	if err := c.AddEquity(symbol, r); err != nil {
		return err
	}
	if err := c.AddDrawdown(r); err != nil {
		return err
	}
	return c.Save(path)
}
