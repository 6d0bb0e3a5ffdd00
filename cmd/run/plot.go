package main

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"qxxz/exactdiag"
	"qxxz/tebd"
)

// plotMagnetizations plots the site-averaged magnetizations against time.
// The exact diagonalization reference, if present, is drawn dashed.
func plotMagnetizations(fpath string, ms []tebd.Measurement, exact *exactdiag.Magnetization) error {
	p := plot.New()
	p.Title.Text = "magnetization"
	p.X.Label.Text = "t"

	curves := []struct {
		name string
		get  func(m tebd.Measurement) []float64
	}{
		{"Sx", func(m tebd.Measurement) []float64 { return m.Sx }},
		{"Sy", func(m tebd.Measurement) []float64 { return m.Sy }},
		{"Sz", func(m tebd.Measurement) []float64 { return m.Sz }},
	}
	for i, c := range curves {
		xys := make(plotter.XYs, 0, len(ms))
		for _, m := range ms {
			xys = append(xys, plotter.XY{X: m.T, Y: avg(c.get(m))})
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrap(err, c.name)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(c.name, line)
	}

	if exact != nil {
		refs := []struct {
			name string
			ys   []float64
		}{
			{"Sx exact", exact.Sx},
			{"Sy exact", exact.Sy},
			{"Sz exact", exact.Sz},
		}
		for i, r := range refs {
			xys := make(plotter.XYs, 0, len(exact.T))
			for k, t := range exact.T {
				xys = append(xys, plotter.XY{X: t, Y: r.ys[k]})
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return errors.Wrap(err, r.name)
			}
			line.Color = plotutil.Color(i)
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(line)
			p.Legend.Add(r.name, line)
		}
	}

	return errors.Wrap(p.Save(8*vg.Inch, 6*vg.Inch, fpath), "")
}

// plotEntropy plots the entanglement entropy of the middle bond against time.
func plotEntropy(fpath string, ms []tebd.Measurement) error {
	p := plot.New()
	p.Title.Text = "entanglement entropy"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "S"

	xys := make(plotter.XYs, 0, len(ms))
	for _, m := range ms {
		xys = append(xys, plotter.XY{X: m.T, Y: m.Entropy[len(m.Entropy)/2]})
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return errors.Wrap(err, "")
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	p.Legend.Add("middle bond", line)

	return errors.Wrap(p.Save(8*vg.Inch, 6*vg.Inch, fpath), "")
}
