package model

import (
	"encoding/gob"
	"fmt"

	"github.com/FlavioCFOliveira/GoFraud/internal/net"
)

// Encode writes a type tag followed by the fitted parameters of c.
func Encode(encoder *gob.Encoder, c Classifier) error {
	if err := encoder.Encode(c.Name()); err != nil {
		return fmt.Errorf("failed to encode model type: %w", err)
	}

	var err error
	switch v := c.(type) {
	case *Forest:
		err = encoder.Encode(v)
	case *Booster:
		err = encoder.Encode(v)
	case *Perceptron:
		err = v.Network.EncodeTo(encoder)
	default:
		return fmt.Errorf("unsupported classifier %T", c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.Name(), err)
	}
	return nil
}

// Decode reads a classifier written by Encode. width is the number of input
// features the classifier will be scored on; a model built for another width
// is rejected with ErrShapeMismatch.
func Decode(decoder *gob.Decoder, width int) (Classifier, error) {
	var name string
	if err := decoder.Decode(&name); err != nil {
		return nil, fmt.Errorf("failed to read model type: %w", err)
	}

	switch name {
	case RandomForestName:
		var f Forest
		if err := decoder.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to read forest: %w", err)
		}
		if err := validateTrees(f.Trees, width); err != nil {
			return nil, err
		}
		return &f, nil
	case GradientBoostingName:
		var b Booster
		if err := decoder.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to read booster: %w", err)
		}
		if err := validateTrees(b.Trees, width); err != nil {
			return nil, err
		}
		return &b, nil
	case MLPName:
		network, err := net.DecodeFrom(decoder)
		if err != nil {
			return nil, fmt.Errorf("failed to read network: %w", err)
		}
		layers := network.Layers()
		if in := layers[0].InSize(); in != width {
			return nil, fmt.Errorf("%w: network takes %d inputs, features have %d", ErrShapeMismatch, in, width)
		}
		if out := layers[len(layers)-1].OutSize(); out != 1 {
			return nil, fmt.Errorf("%w: network has %d outputs, want 1", ErrShapeMismatch, out)
		}
		return &Perceptron{Network: network}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// validateTrees rejects trees whose child links would escape the node slice
// or loop back, and splits on features beyond width.
func validateTrees(trees []Tree, width int) error {
	if len(trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for t, tree := range trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= width {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d of %d", ErrShapeMismatch, t, i, n.Feature, width)
			}
			if int(n.Left) <= i || int(n.Right) <= i || int(n.Left) >= len(tree.Nodes) || int(n.Right) >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", t, i)
			}
		}
	}
	return nil
}
