package model

import (
	"context"
	"testing"
)

// BenchmarkForestFit benchmarks growing a 50-tree forest on 1000 rows.
func BenchmarkForestFit(b *testing.B) {
	x, y := separable(1000, 1)
	rf := &RandomForest{Params: ForestParams{Trees: 50, Seed: 42}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rf.Fit(context.Background(), x, y); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBoostingFit benchmarks 50 boosting rounds at depth 6.
func BenchmarkBoostingFit(b *testing.B) {
	x, y := separable(1000, 1)
	gb := &GradientBoosting{Params: DefaultBoostParams()}
	gb.Params.Rounds = 50

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gb.Fit(context.Background(), x, y); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkForestPredictProba benchmarks scoring 1000 rows with 300 trees.
func BenchmarkForestPredictProba(b *testing.B) {
	x, y := separable(1000, 1)
	clf, err := (&RandomForest{Params: DefaultForestParams()}).Fit(context.Background(), x, y)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = clf.PredictProba(x)
	}
}
