package genre

import "errors"

var (
	// ErrArtifactLoad means the tokenizer, model or label encoder could not be obtained.
	ErrArtifactLoad = errors.New("genre: artifact load failed")
	// ErrModelUnavailable is what Predict reports when it cannot run the model at all.
	ErrModelUnavailable = errors.New("genre: model unavailable")
	// ErrLabelResolution means a class index has no label in the encoder.
	ErrLabelResolution = errors.New("genre: label resolution failed")
	// ErrEmptyLogits means the model answered with no class scores.
	ErrEmptyLogits = errors.New("genre: model returned no logits")
)
