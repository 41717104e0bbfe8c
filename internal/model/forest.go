package model

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ForestParams configures a random forest.
type ForestParams struct {
	Trees   int
	Seed    int64
	Workers int // 0 means runtime.NumCPU()
}

// DefaultForestParams returns the reference forest: 300 trees, seed 42.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 300, Seed: 42}
}

// RandomForest is an unfit bagged ensemble of Gini trees using sqrt(p)
// candidate features per split.
type RandomForest struct {
	Params    ForestParams
	Callbacks []Callback
}

func (rf *RandomForest) Name() string { return RandomForestName }

// Fit grows the trees in parallel. Every tree's seed is drawn from the forest
// seed before any worker starts, so the result does not depend on scheduling.
func (rf *RandomForest) Fit(ctx context.Context, x mat.Matrix, y []int) (Classifier, error) {
	if _, err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	numTrees := rf.Params.Trees
	if numTrees <= 0 {
		numTrees = DefaultForestParams().Trees
	}

	rows := rowsOf(x)
	n := len(rows)
	maxFeatures := int(math.Sqrt(float64(len(rows[0]))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	master := rand.New(rand.NewSource(rf.Params.Seed))
	seeds := make([]int64, numTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	cbs := callbacks(rf.Callbacks)
	cbs.begin(rf.Name(), numTrees)
	defer cbs.end()

	trees := make([]Tree, numTrees)
	oobErrors := make([]float64, numTrees)

	numWorkers := rf.Params.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, numTrees)

	worker := func(start, end int) {
		for t := start; t < end; t++ {
			if ctx.Err() != nil {
				return
			}
			rng := rand.New(rand.NewSource(seeds[t]))
			counts := make([]int, n)
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
				counts[idx[i]]++
			}
			tree := growGiniTree(rows, y, idx, maxFeatures, rng)
			trees[t] = *tree
			oobErrors[t] = outOfBagError(tree, rows, y, counts)
		}
	}

	// Distribute work across workers
	var wg sync.WaitGroup
	chunkSize := (numTrees + numWorkers - 1) / numWorkers
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, numTrees)
		if start < end {
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker(start, end)
			}()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for t, e := range oobErrors {
		cbs.round(t, e)
	}

	return &Forest{Trees: trees}, nil
}

// outOfBagError is the misclassification rate of a tree on the rows its
// bootstrap sample never drew. NaN when every row was drawn.
func outOfBagError(t *Tree, rows [][]float64, y []int, counts []int) float64 {
	var total, wrong int
	for i, c := range counts {
		if c > 0 {
			continue
		}
		total++
		pred := 0
		if t.predict(rows[i]) > 0.5 {
			pred = 1
		}
		if pred != y[i] {
			wrong++
		}
	}
	if total == 0 {
		return math.NaN()
	}
	return float64(wrong) / float64(total)
}

// Forest is a fitted random forest. The positive-class probability is the mean
// of the trees' leaf probabilities.
type Forest struct {
	Trees []Tree
}

func (f *Forest) Name() string { return RandomForestName }

func (f *Forest) PredictProba(x mat.Matrix) []float64 {
	rows := rowsOf(x)
	proba := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for t := range f.Trees {
			sum += f.Trees[t].predict(row)
		}
		proba[i] = sum / float64(len(f.Trees))
	}
	return proba
}

func (f *Forest) Predict(x mat.Matrix) []int {
	return threshold(f.PredictProba(x))
}
