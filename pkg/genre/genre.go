// Package genre turns book metadata into a genre prediction.
//
// It owns the three steps every serving surface repeats: compose the model
// input text, run one forward pass through a Classifier, and normalize the
// raw class scores into a Prediction. Model loading and transport live
// elsewhere; this package only consumes an *Artifacts value.
package genre

import (
	"fmt"
	"strings"
)

// Unknown is the genre reported when no label can be resolved.
const Unknown = "Unknown"

// Input holds the request fields for one prediction.
// Description is the only field the model really needs.
type Input struct {
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
}

// Text returns the composed model input for in.
func (in Input) Text() string {
	return ComposeText(in.Title, in.Authors, in.Description)
}

// ComposeText builds the single input string the model was trained on:
// "{title} by {authors}: {description}" with surrounding whitespace trimmed.
// Changing this format changes prediction quality.
func ComposeText(title, authors, description string) string {
	return strings.TrimSpace(fmt.Sprintf("%s by %s: %s", title, authors, description))
}
