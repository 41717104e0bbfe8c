package model

import (
	"fmt"
	"sort"
)

// Params holds the hyper-parameters of every variant plus fit callbacks.
type Params struct {
	Forest    ForestParams
	Boost     BoostParams
	MLP       MLPParams
	Callbacks []Callback
}

// DefaultParams returns reference hyper-parameters for every variant.
func DefaultParams() Params {
	return Params{
		Forest: DefaultForestParams(),
		Boost:  DefaultBoostParams(),
		MLP:    DefaultMLPParams(),
	}
}

// Factory builds an unfit estimator from Params.
type Factory func(Params) Estimator

type entry struct {
	factory   Factory
	available bool
}

// Registry maps model names to factories. A registered but unavailable model
// is known to the selector but cannot be built; selecting it falls back to the
// random forest.
type Registry struct {
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a model under name.
func (r *Registry) Register(name string, f Factory, available bool) {
	r.entries[name] = entry{factory: f, available: available}
}

// Available reports whether name can be built.
func (r *Registry) Available(name string) bool {
	e, ok := r.entries[name]
	return ok && e.available
}

// Names returns all registered names, available or not.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry registers every variant. Gradient boosting is available
// unless the binary was built with the noboost tag.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RandomForestName, func(p Params) Estimator {
		return &RandomForest{Params: p.Forest, Callbacks: p.Callbacks}
	}, true)
	r.Register(GradientBoostingName, func(p Params) Estimator {
		return &GradientBoosting{Params: p.Boost, Callbacks: p.Callbacks}
	}, boostingAvailable)
	r.Register(MLPName, func(p Params) Estimator {
		return &MLP{Params: p.MLP, Callbacks: p.Callbacks}
	}, true)
	return r
}

// Selection records which model was asked for and which one will be trained.
type Selection struct {
	Requested string
	Effective string
	Fallback  bool
	Reason    string
}

// Select returns an unfit estimator for name. An unavailable model falls back
// to the random forest and the Selection says so; with strict set the fallback
// is an ErrModelUnavailable error instead.
func (r *Registry) Select(name string, p Params, strict bool) (Estimator, Selection, error) {
	sel := Selection{Requested: name, Effective: name}

	e, ok := r.entries[name]
	if !ok {
		return nil, sel, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	if !e.available {
		if strict {
			return nil, sel, fmt.Errorf("%w: %q", ErrModelUnavailable, name)
		}
		fallback, ok := r.entries[RandomForestName]
		if !ok || !fallback.available {
			return nil, sel, fmt.Errorf("%w: %q and no fallback", ErrModelUnavailable, name)
		}
		sel.Effective = RandomForestName
		sel.Fallback = true
		sel.Reason = fmt.Sprintf("model %q is not compiled into this binary", name)
		e = fallback
	}

	return e.factory(p), sel, nil
}
