package pipeline

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FlavioCFOliveira/GoFraud/internal/model"
	"github.com/FlavioCFOliveira/GoFraud/internal/preprocess"
)

const (
	artifactMagic   = "GOFRAUD"
	artifactVersion = 1
)

// ErrBadArtifact is returned when an artifact cannot be decoded.
var ErrBadArtifact = errors.New("bad artifact")

// Rebalance records whether class rebalancing was requested and what happened.
type Rebalance struct {
	Requested bool
	Available bool
	Applied   bool
	Method    string
	Reason    string
}

// Effective is the configuration a run actually trained with, after
// capability fallbacks were resolved.
type Effective struct {
	Model     model.Selection
	Rebalance Rebalance
}

// Degraded reports whether any requested capability was substituted or skipped.
func (e Effective) Degraded() bool {
	return e.Model.Fallback || (e.Rebalance.Requested && !e.Rebalance.Applied)
}

// Metadata describes the run that produced a pipeline.
type Metadata struct {
	RunID     string
	CreatedAt time.Time
	Effective Effective
}

type header struct {
	Magic    string
	Version  int
	Metadata Metadata
}

// Encode writes the pipeline as a gob stream: a header with the metadata,
// the transformer state, then the classifier.
func (p *Pipeline) Encode(w io.Writer) error {
	encoder := gob.NewEncoder(w)

	h := header{Magic: artifactMagic, Version: artifactVersion, Metadata: p.Metadata}
	if err := encoder.Encode(h); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := encoder.Encode(p.prep.State()); err != nil {
		return fmt.Errorf("failed to encode preprocessor: %w", err)
	}
	if err := model.Encode(encoder, p.clf); err != nil {
		return err
	}
	return nil
}

// Decode reads a pipeline written by Encode. Every failure wraps ErrBadArtifact.
func Decode(r io.Reader) (*Pipeline, error) {
	decoder := gob.NewDecoder(r)

	var h header
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrBadArtifact, err)
	}
	if h.Magic != artifactMagic {
		return nil, fmt.Errorf("%w: not a pipeline artifact", ErrBadArtifact)
	}
	if h.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadArtifact, h.Version)
	}

	var state preprocess.State
	if err := decoder.Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: failed to read preprocessor: %v", ErrBadArtifact, err)
	}
	prep, err := preprocess.FromState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}

	clf, err := model.Decode(decoder, prep.NumOutputs())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}

	return &Pipeline{prep: prep, clf: clf, Metadata: h.Metadata}, nil
}

// Save writes the pipeline to filename, replacing any existing file.
func (p *Pipeline) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := p.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Load reads a pipeline saved by Save.
func Load(filename string) (*Pipeline, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}
