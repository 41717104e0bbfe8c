// Package resample rebalances a labelled feature matrix before training.
package resample

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultNeighbors = 5
	DefaultSeed      = 42
)

var (
	// ErrUnavailable is returned by New when oversampling was compiled out.
	ErrUnavailable = errors.New("rebalancing unavailable")
	// ErrTooFewMinority is returned when the minority class cannot be
	// interpolated.
	ErrTooFewMinority = errors.New("too few minority samples")
	// ErrSingleClass is returned when the labels contain one class only.
	ErrSingleClass = errors.New("labels contain a single class")
)

// Rebalancer oversamples x until both classes have the same count. The
// original rows come first, in order, followed by the synthetic ones.
type Rebalancer interface {
	Name() string
	Resample(x *mat.Dense, y []int) (*mat.Dense, []int, error)
}

// SMOTE synthesises minority rows on the segment between a minority sample
// and one of its K nearest minority neighbours.
type SMOTE struct {
	K    int
	Seed int64
}

// Available reports whether SMOTE was compiled into this binary.
func Available() bool { return smoteAvailable }

// New returns a SMOTE rebalancer, or ErrUnavailable when built with nosmote.
func New(k int, seed int64) (*SMOTE, error) {
	if !smoteAvailable {
		return nil, fmt.Errorf("%w: binary built without SMOTE", ErrUnavailable)
	}
	if k <= 0 {
		k = DefaultNeighbors
	}
	return &SMOTE{K: k, Seed: seed}, nil
}

func (s *SMOTE) Name() string { return "smote" }

func (s *SMOTE) Resample(x *mat.Dense, y []int) (*mat.Dense, []int, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, nil, fmt.Errorf("resample: %d rows but %d labels", rows, len(y))
	}

	var byClass [2][]int
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, nil, fmt.Errorf("resample: label %d at row %d is not 0/1", v, i)
		}
		byClass[v] = append(byClass[v], i)
	}
	minority := 1
	if len(byClass[0]) < len(byClass[1]) {
		minority = 0
	}
	minIdx, majIdx := byClass[minority], byClass[1-minority]
	if len(minIdx) == 0 {
		return nil, nil, ErrSingleClass
	}
	if len(minIdx) < 2 {
		return nil, nil, fmt.Errorf("%w: %d", ErrTooFewMinority, len(minIdx))
	}

	need := len(majIdx) - len(minIdx)
	if need == 0 {
		return mat.DenseCopyOf(x), append([]int(nil), y...), nil
	}

	k := s.K
	if k <= 0 {
		k = DefaultNeighbors
	}
	k = min(k, len(minIdx)-1)

	samples := make([][]float64, len(minIdx))
	for i, r := range minIdx {
		samples[i] = mat.Row(nil, r, x)
	}
	neighbors := nearest(samples, k)

	out := mat.NewDense(rows+need, cols, nil)
	out.Slice(0, rows, 0, cols).(*mat.Dense).Copy(x)
	labels := make([]int, rows+need)
	copy(labels, y)

	rng := rand.New(rand.NewSource(s.Seed))
	synth := make([]float64, cols)
	for n := 0; n < need; n++ {
		i := rng.Intn(len(samples))
		nn := samples[neighbors[i][rng.Intn(k)]]
		gap := rng.Float64()
		floats.SubTo(synth, nn, samples[i])
		floats.AddScaledTo(synth, samples[i], gap, synth)
		out.SetRow(rows+n, synth)
		labels[rows+n] = minority
	}
	return out, labels, nil
}

// nearest returns, for every sample, the indices of its k closest other
// samples by Euclidean distance. Ties keep the lower index.
func nearest(samples [][]float64, k int) [][]int {
	out := make([][]int, len(samples))
	order := make([]int, 0, len(samples)-1)
	dist := make([]float64, len(samples))
	for i, s := range samples {
		order = order[:0]
		for j, o := range samples {
			if j == i {
				continue
			}
			dist[j] = floats.Distance(s, o, 2)
			order = append(order, j)
		}
		sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })
		out[i] = append([]int(nil), order[:k]...)
	}
	return out
}
