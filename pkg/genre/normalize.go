package genre

import (
	"fmt"
	"math"
	"sort"
)

// ClassScores holds one probability per class, in label-encoder index order.
type ClassScores []float64

// Sum returns the total probability mass.
func (s ClassScores) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Softmax converts logits into a probability distribution. The maximum logit
// is subtracted first so large logits do not overflow.
func Softmax(logits []float64) ClassScores {
	if len(logits) == 0 {
		return nil
	}
	peak := logits[0]
	for _, v := range logits[1:] {
		if v > peak {
			peak = v
		}
	}

	out := make(ClassScores, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - peak)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the highest score. Ties go to the lowest index.
// It returns -1 for empty scores.
func Argmax(scores []float64) int {
	if len(scores) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// ResolveLabel maps a class index to its label, returning Unknown instead of
// an error when the encoder has no such class.
func ResolveLabel(enc *LabelEncoder, index int) string {
	label, err := enc.Label(index)
	if err != nil {
		return Unknown
	}
	return label
}

// LabeledScore pairs a class label with its score.
type LabeledScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Prediction is one normalized model answer. Scores and Ranked are two views
// of the same class scores.
type Prediction struct {
	Genre  string
	Index  int
	Scores ClassScores
	Ranked []LabeledScore
}

// Normalize turns class scores into a Prediction: the top label by argmax and
// every class ranked by score descending. Equal scores keep class-index order.
func Normalize(scores ClassScores, enc *LabelEncoder) *Prediction {
	if len(scores) == 0 {
		return Fallback()
	}

	flat := make(ClassScores, len(scores))
	copy(flat, scores)

	ranked := make([]LabeledScore, len(flat))
	for i, s := range flat {
		ranked[i] = LabeledScore{Label: ResolveLabel(enc, i), Score: s}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})

	top := Argmax(flat)
	return &Prediction{
		Genre:  ResolveLabel(enc, top),
		Index:  top,
		Scores: flat,
		Ranked: ranked,
	}
}

// Fallback is the structurally valid result used whenever no prediction could
// be made.
func Fallback() *Prediction {
	return &Prediction{
		Genre:  Unknown,
		Index:  -1,
		Scores: ClassScores{},
		Ranked: []LabeledScore{},
	}
}

// Confidence returns the score of the top class, or 0 for a fallback.
func (p *Prediction) Confidence() float64 {
	if p.Index < 0 || p.Index >= len(p.Scores) {
		return 0
	}
	return p.Scores[p.Index]
}

// View selects how a Prediction is serialized.
type View string

const (
	// ViewFlat renders scores as a bare vector in class-index order.
	ViewFlat View = "flat"
	// ViewRanked renders scores as labeled pairs sorted by score.
	ViewRanked View = "ranked"
)

// ParseView validates a view name; the empty string means ViewFlat.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewFlat:
		return ViewFlat, nil
	case ViewRanked:
		return ViewRanked, nil
	}
	return "", fmt.Errorf("unknown view %q (want %q or %q)", s, ViewFlat, ViewRanked)
}

// FlatResult is the {"genre", "scores": [float]} wire shape.
type FlatResult struct {
	Genre  string    `json:"genre"`
	Scores []float64 `json:"scores"`
}

// RankedResult is the {"genre", "scores": [{"label", "score"}]} wire shape.
type RankedResult struct {
	Genre  string         `json:"genre"`
	Scores []LabeledScore `json:"scores"`
}

// Flat returns the flat serialization.
func (p *Prediction) Flat() FlatResult {
	scores := make([]float64, len(p.Scores))
	copy(scores, p.Scores)
	return FlatResult{Genre: p.Genre, Scores: scores}
}

// RankedView returns the labeled, sorted serialization.
func (p *Prediction) RankedView() RankedResult {
	ranked := make([]LabeledScore, len(p.Ranked))
	copy(ranked, p.Ranked)
	return RankedResult{Genre: p.Genre, Scores: ranked}
}

// View returns the serialization selected by v. Unknown views fall back to flat.
func (p *Prediction) View(v View) any {
	if v == ViewRanked {
		return p.RankedView()
	}
	return p.Flat()
}
