//go:build !nosmote

package resample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func imbalanced() (*mat.Dense, []int) {
	x := mat.NewDense(10, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
		2, 2,
		3, 3,
		4, 4,
		5, 5,
		10, 10,
		11, 10,
	})
	y := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1}
	return x, y
}

// TestSMOTEBalances tests that the minority class is grown to the majority count.
func TestSMOTEBalances(t *testing.T) {
	x, y := imbalanced()
	s, err := New(5, 42)
	require.NoError(t, err)
	assert.True(t, Available())

	xr, yr, err := s.Resample(x, y)
	require.NoError(t, err)

	rows, cols := xr.Dims()
	assert.Equal(t, 16, rows)
	assert.Equal(t, 2, cols)
	require.Len(t, yr, 16)

	counts := [2]int{}
	for _, v := range yr {
		counts[v]++
	}
	assert.Equal(t, [2]int{8, 8}, counts)

	// Originals are kept in place.
	assert.True(t, mat.Equal(x, xr.Slice(0, 10, 0, 2)))
	assert.Equal(t, y, yr[:10])

	// With two minority points every synthetic row lies on the segment between them.
	for i := 10; i < 16; i++ {
		assert.Equal(t, 1, yr[i])
		assert.Equal(t, 10.0, xr.At(i, 1))
		assert.GreaterOrEqual(t, xr.At(i, 0), 10.0)
		assert.LessOrEqual(t, xr.At(i, 0), 11.0)
	}
}

func TestSMOTEDeterministic(t *testing.T) {
	x, y := imbalanced()
	a, _, err := (&SMOTE{K: 5, Seed: 7}).Resample(x, y)
	require.NoError(t, err)
	b, _, err := (&SMOTE{K: 5, Seed: 7}).Resample(x, y)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestSMOTEMinorityZero(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{0, 0.5, 1, 1.5, 2})
	y := []int{1, 1, 1, 0, 0}
	xr, yr, err := (&SMOTE{Seed: 1}).Resample(x, y)
	require.NoError(t, err)
	r, _ := xr.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 0, yr[5])
	assert.False(t, math.IsNaN(xr.At(5, 0)))
	assert.GreaterOrEqual(t, xr.At(5, 0), 1.5)
}

func TestSMOTEAlreadyBalanced(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := []int{0, 1, 0, 1}
	xr, yr, err := (&SMOTE{}).Resample(x, y)
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, xr))
	assert.Equal(t, y, yr)
}

func TestSMOTEErrors(t *testing.T) {
	tests := []struct {
		name string
		y    []int
		want error
	}{
		{"single class", []int{0, 0, 0}, ErrSingleClass},
		{"one minority sample", []int{0, 0, 1}, ErrTooFewMinority},
	}
	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := (&SMOTE{K: 5}).Resample(x, tt.y)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := (&SMOTE{}).Resample(x, []int{0, 1})
	assert.Error(t, err)
	_, _, err = (&SMOTE{}).Resample(x, []int{0, 1, 2})
	assert.Error(t, err)
}

func TestNearest(t *testing.T) {
	samples := [][]float64{{0}, {1}, {3}, {7}}
	assert.Equal(t, [][]int{{1, 2}, {0, 2}, {1, 0}, {2, 1}}, nearest(samples, 2))
}
