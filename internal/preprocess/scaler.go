package preprocess

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// scaler standardizes numeric columns to zero mean and unit variance.
type scaler struct {
	Mean  []float64
	Scale []float64
}

// fitScaler uses the population variance. Constant columns get a scale of 1 so
// they map to zero instead of dividing by zero.
func fitScaler(columns [][]float64) scaler {
	s := scaler{
		Mean:  make([]float64, len(columns)),
		Scale: make([]float64, len(columns)),
	}
	for i, values := range columns {
		n := float64(len(values))
		mean, variance := stat.MeanVariance(values, nil)
		if n > 1 {
			variance *= (n - 1) / n
		} else {
			variance = 0
		}
		s.Mean[i] = mean
		s.Scale[i] = 1
		if std := math.Sqrt(variance); std > 0 {
			s.Scale[i] = std
		}
	}
	return s
}

func (s scaler) apply(col int, v float64) float64 {
	return (v - s.Mean[col]) / s.Scale[col]
}

// encoder one-hot encodes categorical columns over categories seen at fit time.
type encoder struct {
	Categories [][]string

	lookup []map[string]int
}

func fitEncoder(columns [][]string) encoder {
	e := encoder{Categories: make([][]string, len(columns))}
	for i, values := range columns {
		seen := make(map[string]bool)
		for _, v := range values {
			seen[v] = true
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[i] = cats
	}
	e.buildLookup()
	return e
}

func (e *encoder) buildLookup() {
	e.lookup = make([]map[string]int, len(e.Categories))
	for i, cats := range e.Categories {
		m := make(map[string]int, len(cats))
		for k, c := range cats {
			m[c] = k
		}
		e.lookup[i] = m
	}
}

func (e encoder) index(col int, v string) (int, bool) {
	k, ok := e.lookup[col][v]
	return k, ok
}

func (e encoder) width() int {
	w := 0
	for _, cats := range e.Categories {
		w += len(cats)
	}
	return w
}
