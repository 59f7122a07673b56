package genre

import (
	"context"
	"fmt"
)

// Loader supplies model artifacts. Repeated calls must return the same
// artifacts once loading has succeeded.
type Loader interface {
	Load(ctx context.Context) (*Artifacts, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Artifacts, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (*Artifacts, error) {
	return f(ctx)
}

// Static returns a Loader that always yields a.
func Static(a *Artifacts) Loader {
	return LoaderFunc(func(context.Context) (*Artifacts, error) { return a, nil })
}

// Predictor runs compose, infer and normalize behind one call.
type Predictor struct {
	loader Loader
}

// NewPredictor creates a predictor that obtains its artifacts from loader.
func NewPredictor(loader Loader) *Predictor {
	return &Predictor{loader: loader}
}

// Predict returns the genre prediction for in. It fails only with an error
// wrapping ErrModelUnavailable; a low-confidence answer is still a result.
func (p *Predictor) Predict(ctx context.Context, in Input) (*Prediction, error) {
	artifacts, err := p.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	engine, err := NewEngine(artifacts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	scores, err := engine.Infer(ctx, in.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return Normalize(scores, artifacts.Labels), nil
}
