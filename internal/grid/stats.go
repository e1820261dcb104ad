package grid

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the value distribution of a grid.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes min, max, mean and standard deviation of g.
func Summarize(g Grid) Summary {
	if len(g.Values) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(g.Values))
	for i, v := range g.Values {
		xs[i] = float64(v)
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return Summary{
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Mean:   mean,
		StdDev: std,
	}
}
