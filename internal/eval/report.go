// Package eval scores a fitted pipeline on held-out data.
package eval

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrUndefinedAUC is returned when the truth vector holds a single class.
var ErrUndefinedAUC = errors.New("ROC AUC is undefined for a single class")

// Predictor is the inference surface Evaluate scores.
type Predictor interface {
	Predict(f dataset.Frame) ([]int, error)
	PredictProba(f dataset.Frame) ([]float64, error)
}

// ClassMetrics holds the per-class scores of a Report.
type ClassMetrics struct {
	Label     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Average is a macro or support-weighted average over classes.
type Average struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a classification report plus the ROC AUC.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    Average
	WeightedAvg Average
	ROCAUC      float64
}

// Evaluate predicts labels and positive-class probabilities through p and
// scores them against y.
func Evaluate(p Predictor, x dataset.Frame, y []int) (*Report, error) {
	pred, err := p.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	proba, err := p.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("failed to predict probabilities: %w", err)
	}
	return Score(y, pred, proba)
}

// Score builds a Report from true labels, predicted labels and scores.
func Score(yTrue, yPred []int, scores []float64) (*Report, error) {
	if len(yTrue) != len(yPred) || len(yTrue) != len(scores) {
		return nil, fmt.Errorf("length mismatch: %d labels, %d predictions, %d scores", len(yTrue), len(yPred), len(scores))
	}
	if len(yTrue) == 0 {
		return nil, errors.New("nothing to evaluate")
	}

	auc, err := ROCAUC(yTrue, scores)
	if err != nil {
		return nil, err
	}
	r := Classification(yTrue, yPred)
	r.ROCAUC = auc
	return r, nil
}

// Classification computes per-class precision, recall, F1 and support over
// every label seen in either vector. A zero denominator scores 0.
func Classification(yTrue, yPred []int) *Report {
	seen := map[int]bool{}
	for i := range yTrue {
		seen[yTrue[i]] = true
		seen[yPred[i]] = true
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	r := &Report{}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	if len(yTrue) > 0 {
		r.Accuracy = float64(correct) / float64(len(yTrue))
	}

	total := len(yTrue)
	for _, l := range labels {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yPred[i] == l && yTrue[i] == l:
				tp++
			case yPred[i] == l:
				fp++
			case yTrue[i] == l:
				fn++
			}
		}
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   tp + fn,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision / float64(len(labels))
		r.MacroAvg.Recall += m.Recall / float64(len(labels))
		r.MacroAvg.F1 += m.F1 / float64(len(labels))
		if total > 0 {
			w := float64(m.Support) / float64(total)
			r.WeightedAvg.Precision += w * m.Precision
			r.WeightedAvg.Recall += w * m.Recall
			r.WeightedAvg.F1 += w * m.F1
		}
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ROCAUC returns the area under the ROC curve of scores against 0/1 labels.
// Tied scores share a single cutoff.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("length mismatch: %d labels, %d scores", len(yTrue), len(scores))
	}
	var pos, neg int
	classes := make([]bool, len(yTrue))
	for i, v := range yTrue {
		classes[i] = v == 1
		if classes[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, ErrUndefinedAUC
	}

	y := append([]float64(nil), scores...)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// String renders the report as a text table.
func (r *Report) String() string {
	const width = len("weighted avg")
	var b strings.Builder

	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%*d  %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	for _, a := range []struct {
		name string
		avg  Average
	}{{"macro avg", r.MacroAvg}, {"weighted avg", r.WeightedAvg}} {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, a.name, a.avg.Precision, a.avg.Recall, a.avg.F1, a.avg.Support)
	}
	return b.String()
}
