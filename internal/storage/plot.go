package storage

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrNoData = errors.New("storage: nothing to plot")

var (
	comColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	icpColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	cmpColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	stepColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// SaveTimePlot writes a PNG of the CoM, ICP and CMP along one axis (0 for
// x, 1 for y) over time.
func SaveTimePlot(path string, axis int, times []float64, states []sim.State, controls []sim.Control) error {
	if len(states) == 0 || len(times) != len(states) {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Capture point tracking"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Position (m)"

	com := make(plotter.XYs, 0, len(states))
	icp := make(plotter.XYs, 0, len(states))
	for i, x := range states {
		com = append(com, plotter.XY{X: times[i], Y: x[models.CoMX+axis]})
		icp = append(icp, plotter.XY{X: times[i], Y: x[models.ICPX+axis]})
	}
	cmp := make(plotter.XYs, 0, len(controls))
	for i, u := range controls {
		if i < len(times) && len(u) > models.CMPX+axis {
			cmp = append(cmp, plotter.XY{X: times[i], Y: u[models.CMPX+axis]})
		}
	}

	if err := addLine(p, "CoM", com, comColor); err != nil {
		return err
	}
	if err := addLine(p, "ICP", icp, icpColor); err != nil {
		return err
	}
	if len(cmp) > 0 {
		if err := addLine(p, "CMP", cmp, cmpColor); err != nil {
			return err
		}
	}
	configureLegend(p)

	return errors.Wrap(p.Save(10*vg.Inch, 5*vg.Inch, path), "storage: save plot")
}

// SaveFootprintPlot writes a top view PNG of the CoM and ICP paths over the
// footsteps that were placed.
func SaveFootprintPlot(path string, states []sim.State, footsteps []Footprint) error {
	if len(states) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Footprints"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	com := make(plotter.XYs, 0, len(states))
	icp := make(plotter.XYs, 0, len(states))
	for _, x := range states {
		com = append(com, plotter.XY{X: x[models.CoMX], Y: x[models.CoMY]})
		icp = append(icp, plotter.XY{X: x[models.ICPX], Y: x[models.ICPY]})
	}
	if err := addLine(p, "CoM", com, comColor); err != nil {
		return err
	}
	if err := addLine(p, "ICP", icp, icpColor); err != nil {
		return err
	}

	if len(footsteps) > 0 {
		steps := make(plotter.XYs, 0, len(footsteps))
		for _, f := range footsteps {
			steps = append(steps, plotter.XY{X: f.Pose.X, Y: f.Pose.Y})
		}
		scatter, err := plotter.NewScatter(steps)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = stepColor
		scatter.GlyphStyle.Shape = draw.BoxGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add("footsteps", scatter)
	}
	configureLegend(p)

	return errors.Wrap(p.Save(8*vg.Inch, 6*vg.Inch, path), "storage: save plot")
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func configureLegend(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}
