package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrInvalidSplit is returned when a stratified split cannot be made.
var ErrInvalidSplit = errors.New("invalid split")

// Split holds the two partitions of a stratified split.
type Split struct {
	Train       Frame
	TrainLabels []int
	Test        Frame
	TestLabels  []int
}

// StratifiedSplit partitions the rows into train and test sets of sizes
// n - ceil(testSize*n) and ceil(testSize*n), keeping the class ratio of labels
// in both. Per-class test counts are allocated by largest remainder, so every
// class is off by at most one row from its exact share.
func StratifiedSplit(f Frame, labels []int, testSize float64, seed int64) (Split, error) {
	n := len(labels)
	if f.Len() != n {
		return Split{}, fmt.Errorf("%w: %d rows but %d labels", ErrInvalidSplit, f.Len(), n)
	}
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("%w: test size %v outside (0, 1)", ErrInvalidSplit, testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest == 0 || nTest >= n {
		return Split{}, fmt.Errorf("%w: %d rows cannot hold a %v test partition", ErrInvalidSplit, n, testSize)
	}

	byClass := make(map[int][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c, rows := range byClass {
		if len(rows) < 2 {
			return Split{}, fmt.Errorf("%w: class %d has only %d member", ErrInvalidSplit, c, len(rows))
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if nTest > n-len(classes) {
		return Split{}, fmt.Errorf("%w: train partition would miss a class", ErrInvalidSplit)
	}

	alloc := allocate(classes, byClass, nTest, n)

	rng := rand.New(rand.NewSource(seed))
	trainRows := make([]int, 0, n-nTest)
	testRows := make([]int, 0, nTest)
	for _, c := range classes {
		rows := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		testRows = append(testRows, rows[:alloc[c]]...)
		trainRows = append(trainRows, rows[alloc[c]:]...)
	}
	shuffleRows(rng, trainRows)
	shuffleRows(rng, testRows)

	return Split{
		Train:       f.Take(trainRows),
		TrainLabels: takeLabels(labels, trainRows),
		Test:        f.Take(testRows),
		TestLabels:  takeLabels(labels, testRows),
	}, nil
}

// allocate distributes nTest test rows across classes proportionally to their
// size using the largest remainder method. Ties go to the larger class, then the
// smaller label.
func allocate(classes []int, byClass map[int][]int, nTest, n int) map[int]int {
	type share struct {
		class int
		size  int
		rem   float64
	}
	alloc := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	assigned := 0
	for _, c := range classes {
		exact := float64(len(byClass[c])) * float64(nTest) / float64(n)
		whole := int(math.Floor(exact))
		alloc[c] = whole
		assigned += whole
		shares = append(shares, share{class: c, size: len(byClass[c]), rem: exact - float64(whole)})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].rem != shares[j].rem {
			return shares[i].rem > shares[j].rem
		}
		return shares[i].size > shares[j].size
	})
	for i := 0; assigned < nTest; i++ {
		s := shares[i%len(shares)]
		if alloc[s.class] < s.size-1 {
			alloc[s.class]++
			assigned++
		}
	}
	return alloc
}

// shuffleRows shuffles a slice of row indices
func shuffleRows(rng *rand.Rand, rows []int) {
	for i := len(rows) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func takeLabels(labels []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = labels[r]
	}
	return out
}
