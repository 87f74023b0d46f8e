package main

import (
	"fmt"
	"io"

	"mag-surveyor/internal/survey"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one survey file.
type Summary struct {
	Field     Field
	Nodes     int
	Obstacles int
	Skipped   int
	Min, Max  float64
	Mean      float64
	StdDev    float64
}

// Summarize computes magnitude statistics over the nodes of store. The
// magnitude fields stay zero when there are no nodes.
func Summarize(store *survey.Store, field Field) Summary {
	s := Summary{Field: field, Obstacles: len(store.Obstacles())}
	mags := Magnitudes(store, field)
	s.Nodes = len(mags)
	if s.Nodes == 0 {
		return s
	}
	xs := make([]float64, 0, len(mags))
	for _, m := range mags {
		xs = append(xs, m)
	}
	s.Min, s.Max = floats.Min(xs), floats.Max(xs)
	if s.Nodes == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	return s
}

func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "nodes:     %d\n", s.Nodes)
	fmt.Fprintf(w, "obstacles: %d\n", s.Obstacles)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "skipped:   %d\n", s.Skipped)
	}
	if s.Nodes == 0 {
		return
	}
	fmt.Fprintf(w, "%s min %.1f max %.1f mean %.2f sd %.2f\n", s.Field, s.Min, s.Max, s.Mean, s.StdDev)
}
