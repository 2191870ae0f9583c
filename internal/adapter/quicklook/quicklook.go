// Package quicklook renders PNG overview plots of classified drift vectors.
// These are operator aids for eyeballing a conversion run, not analysis
// products: axes are projected kilometers, each vector is drawn as its daily
// displacement from the start position.
package quicklook

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

var (
	inlierColor  = color.RGBA{R: 0x1f, G: 0x8a, B: 0x3b, A: 0xff}
	outlierColor = color.RGBA{R: 0xc4, G: 0x1e, B: 0x1e, A: 0xff}
)

// WriteScene renders one file's vectors to path, inliers green and outliers
// red, taking every stride-th observation.
func WriteScene(path, title string, obs []domain.Observation, stride int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (km)"
	p.Y.Label.Text = "y (km)"
	p.Add(plotter.NewGrid())

	for i := 0; i < len(obs); i += stride {
		o := &obs[i]
		c := inlierColor
		if !o.Category.Inlier() {
			c = outlierColor
		}
		if err := addVector(p, o, c); err != nil {
			return fmt.Errorf("quicklook %s: %w", path, err)
		}
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("quicklook %s: %w", path, err)
	}
	return nil
}

// Overview accumulates the inliers of every processed file and renders them
// in one frame, colored by drift speed.
type Overview struct {
	stride  int
	vectors []domain.Observation
}

// NewOverview returns an Overview taking every stride-th inlier.
func NewOverview(stride int) *Overview {
	return &Overview{stride: stride}
}

// Add appends one file's inliers.
func (v *Overview) Add(obs []domain.Observation) {
	kept := 0
	for i := range obs {
		if !obs[i].Category.Inlier() {
			continue
		}
		if kept%v.stride == 0 {
			v.vectors = append(v.vectors, obs[i])
		}
		kept++
	}
}

// Empty reports whether nothing has been accumulated.
func (v *Overview) Empty() bool { return len(v.vectors) == 0 }

// Save renders the accumulated inliers to path.
func (v *Overview) Save(path string) error {
	p := plot.New()
	p.Title.Text = "sea ice drift, all inlier vectors"
	p.X.Label.Text = "x (km)"
	p.Y.Label.Text = "y (km)"
	p.Add(plotter.NewGrid())

	maxSpeed := 0.0
	for i := range v.vectors {
		maxSpeed = math.Max(maxSpeed, speed(&v.vectors[i]))
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(math.Max(maxSpeed, 1e-9))

	for i := range v.vectors {
		o := &v.vectors[i]
		c, err := cm.At(speed(o))
		if err != nil {
			return fmt.Errorf("overview %s: %w", path, err)
		}
		if err := addVector(p, o, c); err != nil {
			return fmt.Errorf("overview %s: %w", path, err)
		}
	}

	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("overview %s: %w", path, err)
	}
	return nil
}

func addVector(p *plot.Plot, o *domain.Observation, c color.Color) error {
	seg, err := plotter.NewLine(plotter.XYs{
		{X: o.X1 / 1000, Y: o.Y1 / 1000},
		{X: o.X1/1000 + o.UKmDay, Y: o.Y1/1000 + o.VKmDay},
	})
	if err != nil {
		return err
	}
	seg.Color = c
	p.Add(seg)
	return nil
}

func speed(o *domain.Observation) float64 {
	return math.Hypot(o.UKmDay, o.VKmDay)
}
