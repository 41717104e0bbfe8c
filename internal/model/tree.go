package model

import (
	"math/rand"
	"sort"
)

// Node is one node of a flattened binary tree. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Value     float64
}

// Tree is a binary decision tree stored as a node slice; node 0 is the root.
// Rows go left when row[Feature] <= Threshold.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = int(n.Left)
		} else {
			i = int(n.Right)
		}
	}
}

func (t *Tree) leaf(value float64) int32 {
	t.Nodes = append(t.Nodes, Node{Feature: -1, Value: value})
	return int32(len(t.Nodes) - 1)
}

func (t *Tree) split(feature int, threshold float64) int32 {
	t.Nodes = append(t.Nodes, Node{Feature: feature, Threshold: threshold})
	return int32(len(t.Nodes) - 1)
}

// sortedBy returns a copy of idx ordered by column f.
func sortedBy(rows [][]float64, idx []int, f int) []int {
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool {
		return rows[order[a]][f] < rows[order[b]][f]
	})
	return order
}

// midpoint returns a threshold strictly separating a < b.
func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}

// giniBuilder grows an unpruned classification tree. Leaves hold the fraction
// of positive samples that reached them.
type giniBuilder struct {
	rows        [][]float64
	y           []int
	maxFeatures int
	rng         *rand.Rand
	tree        *Tree
	features    []int
}

func growGiniTree(rows [][]float64, y []int, idx []int, maxFeatures int, rng *rand.Rand) *Tree {
	nf := len(rows[0])
	b := &giniBuilder{
		rows:        rows,
		y:           y,
		maxFeatures: maxFeatures,
		rng:         rng,
		tree:        &Tree{},
		features:    make([]int, nf),
	}
	for i := range b.features {
		b.features[i] = i
	}
	b.grow(idx)
	return b.tree
}

func (b *giniBuilder) grow(idx []int) int32 {
	positives := 0
	for _, i := range idx {
		positives += b.y[i]
	}
	n := len(idx)
	value := float64(positives) / float64(n)
	if n < 2 || positives == 0 || positives == n {
		return b.tree.leaf(value)
	}

	feature, threshold, ok := b.bestSplit(idx, positives)
	if !ok {
		return b.tree.leaf(value)
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node := b.tree.split(feature, threshold)
	l := b.grow(left)
	r := b.grow(right)
	b.tree.Nodes[node].Left = l
	b.tree.Nodes[node].Right = r
	return node
}

// bestSplit draws features in random order and evaluates the first
// maxFeatures of them. If none of those admits a split it keeps drawing until
// one does or all features are exhausted.
func (b *giniBuilder) bestSplit(idx []int, positives int) (int, float64, bool) {
	nf := len(b.features)
	bestScore := 0.0
	bestFeature, bestThreshold, found := -1, 0.0, false

	for k := 0; k < nf; k++ {
		j := k + b.rng.Intn(nf-k)
		b.features[k], b.features[j] = b.features[j], b.features[k]
		if k >= b.maxFeatures && found {
			break
		}

		f := b.features[k]
		order := sortedBy(b.rows, idx, f)
		n := len(order)
		posLeft := 0
		for s := 1; s < n; s++ {
			posLeft += b.y[order[s-1]]
			lo := b.rows[order[s-1]][f]
			hi := b.rows[order[s]][f]
			if lo == hi {
				continue
			}
			// weighted child impurity up to a constant factor of 2
			nl, nr := float64(s), float64(n-s)
			pl, pr := float64(posLeft), float64(positives-posLeft)
			score := pl*(nl-pl)/nl + pr*(nr-pr)/nr
			if !found || score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// newtonBuilder grows a depth-limited regression tree on first and second
// order gradients of the logistic loss.
type newtonBuilder struct {
	rows           [][]float64
	grad           []float64
	hess           []float64
	maxDepth       int
	lambda         float64
	minChildWeight float64
	learningRate   float64
	tree           *Tree
}

func (b *newtonBuilder) weight(g, h float64) float64 {
	return -g / (h + b.lambda) * b.learningRate
}

func (b *newtonBuilder) score(g, h float64) float64 {
	return g * g / (h + b.lambda)
}

func (b *newtonBuilder) grow(idx []int, depth int) int32 {
	var g, h float64
	for _, i := range idx {
		g += b.grad[i]
		h += b.hess[i]
	}
	if depth >= b.maxDepth || len(idx) < 2 {
		return b.tree.leaf(b.weight(g, h))
	}

	parent := b.score(g, h)
	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	nf := len(b.rows[0])
	for f := 0; f < nf; f++ {
		order := sortedBy(b.rows, idx, f)
		var gl, hl float64
		for s := 1; s < len(order); s++ {
			gl += b.grad[order[s-1]]
			hl += b.hess[order[s-1]]
			lo := b.rows[order[s-1]][f]
			hi := b.rows[order[s]][f]
			if lo == hi {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.minChildWeight || hr < b.minChildWeight {
				continue
			}
			gain := 0.5 * (b.score(gl, hl) + b.score(gr, hr) - parent)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
			}
		}
	}
	if bestFeature < 0 {
		return b.tree.leaf(b.weight(g, h))
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node := b.tree.split(bestFeature, bestThreshold)
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[node].Left = l
	b.tree.Nodes[node].Right = r
	return node
}
