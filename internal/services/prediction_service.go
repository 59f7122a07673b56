package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"bookgenre/pkg/genre"
)

// Predictor is the core inference entry point.
type Predictor interface {
	Predict(ctx context.Context, in genre.Input) (*genre.Prediction, error)
}

// ReadinessChecker reports whether model artifacts are loaded.
type ReadinessChecker interface {
	Loaded() bool
}

// PredictionService applies the serving policy around the predictor: an
// input without a description never reaches the model.
type PredictionService struct {
	predictor Predictor
	readiness ReadinessChecker
}

// NewPredictionService creates the service. readiness may be nil, in which
// case the model is always reported ready.
func NewPredictionService(p Predictor, readiness ReadinessChecker) *PredictionService {
	return &PredictionService{predictor: p, readiness: readiness}
}

// Predict returns the prediction for in. An empty description yields the
// Unknown fallback without an error; a model failure returns an error
// wrapping genre.ErrModelUnavailable.
func (s *PredictionService) Predict(ctx context.Context, in genre.Input) (*genre.Prediction, error) {
	if strings.TrimSpace(in.Description) == "" {
		log.WithField("title", in.Title).Debug("No description, skipping model")
		return genre.Fallback(), nil
	}

	pred, err := s.predictor.Predict(ctx, in)
	if err != nil {
		entry := log.WithError(err).WithField("title", in.Title)
		if errors.Is(err, genre.ErrArtifactLoad) {
			entry.Error("Model artifacts unavailable")
		} else {
			entry.Warn("Prediction failed")
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"title":      in.Title,
		"genre":      pred.Genre,
		"confidence": pred.Confidence(),
	}).Debug("Predicted genre")
	return pred, nil
}

// Ready reports whether a prediction can be served without loading artifacts first.
func (s *PredictionService) Ready() bool {
	return s.readiness == nil || s.readiness.Loaded()
}
