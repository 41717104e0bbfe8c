// Package preprocess turns a typed frame into a numeric feature matrix.
//
// A Plan only names the columns; fitting it on a frame produces a Transformer
// holding the learned statistics. Transformers are immutable after Fit.
package preprocess

import (
	"errors"
	"fmt"

	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMissingColumn is returned when a planned column is absent from a frame.
	ErrMissingColumn = errors.New("missing column")
	// ErrColumnKind is returned when a column has a different kind than planned.
	ErrColumnKind = errors.New("unexpected column kind")
	// ErrEmptyFrame is returned when fitting or transforming zero rows.
	ErrEmptyFrame = errors.New("empty frame")
)

// Plan partitions columns into numeric and categorical groups.
type Plan struct {
	Numeric     []string
	Categorical []string
}

// Build inspects the column kinds of f and returns an unfit plan.
func Build(f dataset.Frame) Plan {
	var p Plan
	for _, c := range f.Columns {
		switch c.Kind {
		case dataset.Numeric:
			p.Numeric = append(p.Numeric, c.Name)
		case dataset.Categorical:
			p.Categorical = append(p.Categorical, c.Name)
		}
	}
	return p
}

// Fit learns scaling statistics for numeric columns and category sets for
// categorical columns.
func (p Plan) Fit(f dataset.Frame) (*Transformer, error) {
	if f.Len() == 0 {
		return nil, ErrEmptyFrame
	}

	t := &Transformer{
		numeric:     make([]string, len(p.Numeric)),
		categorical: make([]string, len(p.Categorical)),
	}
	copy(t.numeric, p.Numeric)
	copy(t.categorical, p.Categorical)

	values := make([][]float64, len(p.Numeric))
	for i, name := range p.Numeric {
		c, err := lookup(f, name, dataset.Numeric)
		if err != nil {
			return nil, err
		}
		values[i] = c.Floats
	}
	t.scaler = fitScaler(values)

	cats := make([][]string, len(p.Categorical))
	for i, name := range p.Categorical {
		c, err := lookup(f, name, dataset.Categorical)
		if err != nil {
			return nil, err
		}
		cats[i] = c.Strings
	}
	t.encoder = fitEncoder(cats)

	return t, nil
}

// Transformer is a fitted preprocessing plan.
type Transformer struct {
	numeric     []string
	categorical []string
	scaler      scaler
	encoder     encoder
}

// NumOutputs returns the width of the transformed matrix.
func (t *Transformer) NumOutputs() int {
	return len(t.numeric) + t.encoder.width()
}

// FeatureNames returns one name per output column: numeric columns first,
// then "column=category" indicators.
func (t *Transformer) FeatureNames() []string {
	names := make([]string, 0, t.NumOutputs())
	names = append(names, t.numeric...)
	for i, col := range t.categorical {
		for _, cat := range t.encoder.Categories[i] {
			names = append(names, col+"="+cat)
		}
	}
	return names
}

// Categories returns the categories learned for a categorical column.
func (t *Transformer) Categories(column string) []string {
	for i, name := range t.categorical {
		if name == column {
			return append([]string(nil), t.encoder.Categories[i]...)
		}
	}
	return nil
}

// Transform maps f to a dense matrix of NumOutputs columns. Categories not
// seen during Fit produce all-zero indicators.
func (t *Transformer) Transform(f dataset.Frame) (*mat.Dense, error) {
	rows := f.Len()
	if rows == 0 {
		return nil, ErrEmptyFrame
	}
	width := t.NumOutputs()
	if width == 0 {
		return nil, fmt.Errorf("transformer has no output columns")
	}

	out := mat.NewDense(rows, width, nil)

	for j, name := range t.numeric {
		c, err := lookup(f, name, dataset.Numeric)
		if err != nil {
			return nil, err
		}
		for i, v := range c.Floats {
			out.Set(i, j, t.scaler.apply(j, v))
		}
	}

	offset := len(t.numeric)
	for j, name := range t.categorical {
		c, err := lookup(f, name, dataset.Categorical)
		if err != nil {
			return nil, err
		}
		for i, v := range c.Strings {
			if k, ok := t.encoder.index(j, v); ok {
				out.Set(i, offset+k, 1)
			}
		}
		offset += len(t.encoder.Categories[j])
	}

	return out, nil
}

func lookup(f dataset.Frame, name string, kind dataset.Kind) (dataset.Column, error) {
	c, ok := f.Column(name)
	if !ok {
		return dataset.Column{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	if c.Kind != kind {
		return dataset.Column{}, fmt.Errorf("%w: %s is %s, want %s", ErrColumnKind, name, c.Kind, kind)
	}
	return c, nil
}
