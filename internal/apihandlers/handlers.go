// Package apihandlers exposes predictions and the book catalogue over HTTP.
package apihandlers

import (
	"context"

	"bookgenre/internal/app"
	"bookgenre/internal/services"
)

type APIHandler struct {
	Predictions *services.PredictionService
	Books       *services.BookService
	Checks      map[string]HealthCheck
}

func NewAPIHandler(a *app.App) *APIHandler {
	h := &APIHandler{
		Predictions: a.PredictionService,
		Books:       a.BookService,
		Checks:      map[string]HealthCheck{"database": a.Ping},
	}
	if a.Redis != nil {
		h.Checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return h
}
