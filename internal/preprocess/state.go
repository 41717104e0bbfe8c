package preprocess

import "fmt"

// State is the serializable form of a fitted Transformer.
type State struct {
	Numeric     []string
	Categorical []string
	Mean        []float64
	Scale       []float64
	Categories  [][]string
}

// State returns a deep copy of the fitted parameters.
func (t *Transformer) State() State {
	s := State{
		Numeric:     append([]string(nil), t.numeric...),
		Categorical: append([]string(nil), t.categorical...),
		Mean:        append([]float64(nil), t.scaler.Mean...),
		Scale:       append([]float64(nil), t.scaler.Scale...),
		Categories:  make([][]string, len(t.encoder.Categories)),
	}
	for i, cats := range t.encoder.Categories {
		s.Categories[i] = append([]string(nil), cats...)
	}
	return s
}

// FromState rebuilds a fitted Transformer.
func FromState(s State) (*Transformer, error) {
	if len(s.Mean) != len(s.Numeric) || len(s.Scale) != len(s.Numeric) {
		return nil, fmt.Errorf("scaler has %d/%d statistics for %d numeric columns", len(s.Mean), len(s.Scale), len(s.Numeric))
	}
	if len(s.Categories) != len(s.Categorical) {
		return nil, fmt.Errorf("encoder has %d category sets for %d categorical columns", len(s.Categories), len(s.Categorical))
	}
	for i, scale := range s.Scale {
		if scale == 0 {
			return nil, fmt.Errorf("numeric column %s has zero scale", s.Numeric[i])
		}
	}

	c := s
	t := &Transformer{
		numeric:     c.Numeric,
		categorical: c.Categorical,
		scaler:      scaler{Mean: c.Mean, Scale: c.Scale},
		encoder:     encoder{Categories: c.Categories},
	}
	t.encoder.buildLookup()
	return t, nil
}
