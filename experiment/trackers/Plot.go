package trackers

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot saves a PNG line plot of data to filename, together with its
// moving average over the last window points. A window < 2 plots the
// data only.
func Plot(filename, title, xLabel, yLabel string, data []float64,
	window int) error {
	if len(data) == 0 {
		return fmt.Errorf("plot: no data to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(points(data))
	if err != nil {
		return fmt.Errorf("plot: %v", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	p.Legend.Add(yLabel, line)

	if window > 1 {
		avg, err := plotter.NewLine(points(MovingAverage(data, window)))
		if err != nil {
			return fmt.Errorf("plot: %v", err)
		}
		avg.Color = plotutil.Color(1)
		avg.Width = vg.Points(2)
		p.Add(avg)
		p.Legend.Add(fmt.Sprintf("%v-point average", window), avg)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("plot: could not save plot: %v", err)
	}
	return nil
}

// MovingAverage returns the average of each point of data with the
// up to window - 1 points before it
func MovingAverage(data []float64, window int) []float64 {
	avg := make([]float64, len(data))
	for i := range data {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		avg[i] = floats.Sum(data[start:i+1]) / float64(i+1-start)
	}
	return avg
}

func points(data []float64) plotter.XYs {
	pts := make(plotter.XYs, len(data))
	for i, v := range data {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	return pts
}
