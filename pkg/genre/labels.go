package genre

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// LabelEncoder maps class indices in [0, N) to human-readable labels.
// It is immutable after construction and safe for concurrent use.
type LabelEncoder struct {
	classes []string
}

// NewLabelEncoder builds an encoder whose class i is classes[i].
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("label encoder needs at least one class")
	}
	seen := make(map[string]int, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("label encoder class %d is empty", i)
		}
		if j, dup := seen[c]; dup {
			return nil, fmt.Errorf("label encoder class %q appears at %d and %d", c, j, i)
		}
		seen[c] = i
	}
	cp := make([]string, len(classes))
	copy(cp, classes)
	return &LabelEncoder{classes: cp}, nil
}

// NewLabelEncoderFromIndex builds an encoder from an index→label map such as
// the id2label section of a transformers config.json. Keys must cover [0, N).
func NewLabelEncoderFromIndex(id2label map[string]string) (*LabelEncoder, error) {
	classes := make([]string, len(id2label))
	for k, v := range id2label {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("id2label key %q is not an index: %w", k, err)
		}
		if i < 0 || i >= len(classes) {
			return nil, fmt.Errorf("id2label index %d outside [0, %d)", i, len(classes))
		}
		classes[i] = v
	}
	return NewLabelEncoder(classes)
}

// LoadLabelEncoder decodes an encoder exported as JSON. Both a bare array of
// class names and an object with a "classes" array are accepted.
func LoadLabelEncoder(r io.Reader) (*LabelEncoder, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read label encoder: %w", err)
	}

	var classes []string
	if err := json.Unmarshal(raw, &classes); err != nil {
		var wrapped struct {
			Classes []string `json:"classes"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode label encoder: %w", err)
		}
		classes = wrapped.Classes
	}
	return NewLabelEncoder(classes)
}

// Len returns the number of classes N.
func (e *LabelEncoder) Len() int {
	if e == nil {
		return 0
	}
	return len(e.classes)
}

// Label returns the label of class i, or an error wrapping ErrLabelResolution
// when i is outside [0, N).
func (e *LabelEncoder) Label(i int) (string, error) {
	if e == nil || i < 0 || i >= len(e.classes) {
		return "", fmt.Errorf("%w: index %d outside [0, %d)", ErrLabelResolution, i, e.Len())
	}
	return e.classes[i], nil
}

// Classes returns a copy of the class labels in index order.
func (e *LabelEncoder) Classes() []string {
	cp := make([]string, len(e.classes))
	copy(cp, e.classes)
	return cp
}
