package genre

import (
	"context"
	"fmt"
)

// DefaultMaxLength is the token length the model was trained with.
const DefaultMaxLength = 256

// TokenizerConfig fixes how text is tokenized before the forward pass. The
// values must match training time; a mismatch degrades accuracy silently.
type TokenizerConfig struct {
	MaxLength  int    `json:"max_length"`
	Truncation bool   `json:"truncation"`
	Padding    string `json:"padding"`
}

// DefaultTokenizer returns truncation with max_length padding at DefaultMaxLength.
func DefaultTokenizer() TokenizerConfig {
	return TokenizerConfig{MaxLength: DefaultMaxLength, Truncation: true, Padding: "max_length"}
}

// ModelInfo is the metadata shipped with the model weights.
type ModelInfo struct {
	Name      string
	NumLabels int
}

// Classifier runs one read-only forward pass and returns the raw logits for
// a single text. Implementations must be safe for concurrent use.
type Classifier interface {
	Logits(ctx context.Context, text string, tok TokenizerConfig) ([]float64, error)
}

// Artifacts bundles everything needed for inference. It is built once and
// shared read-only by all predictions.
type Artifacts struct {
	Tokenizer TokenizerConfig
	Model     Classifier
	Labels    *LabelEncoder
	Info      ModelInfo
}

// Validate reports artifacts that cannot serve a prediction at all.
func (a *Artifacts) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: no artifacts", ErrArtifactLoad)
	}
	if a.Model == nil {
		return fmt.Errorf("%w: no model", ErrArtifactLoad)
	}
	if a.Labels.Len() == 0 {
		return fmt.Errorf("%w: no label encoder", ErrArtifactLoad)
	}
	if a.Tokenizer.MaxLength <= 0 {
		return fmt.Errorf("%w: tokenizer max_length must be positive", ErrArtifactLoad)
	}
	return nil
}

// Consistent reports whether the model's output space matches the encoder.
// A model that does not declare its label count is assumed consistent.
func (a *Artifacts) Consistent() bool {
	return a.Info.NumLabels == 0 || a.Info.NumLabels == a.Labels.Len()
}

// Engine turns composed text into class scores.
type Engine struct {
	artifacts *Artifacts
}

// NewEngine binds an engine to loaded artifacts.
func NewEngine(a *Artifacts) (*Engine, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Engine{artifacts: a}, nil
}

// Infer runs the forward pass for text and applies softmax over the classes.
func (e *Engine) Infer(ctx context.Context, text string) (ClassScores, error) {
	logits, err := e.artifacts.Model.Logits(ctx, text, e.artifacts.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}
	if len(logits) == 0 {
		return nil, ErrEmptyLogits
	}
	return Softmax(logits), nil
}

// Artifacts returns the artifacts the engine was built from.
func (e *Engine) Artifacts() *Artifacts {
	return e.artifacts
}
