package artifacts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"bookgenre/pkg/genre"
)

// Lazy loads artifacts on first use and caches them for the life of the
// process. Concurrent first calls share a single load; a failed load is not
// cached, so the next call tries again.
type Lazy struct {
	provider genre.Loader

	group     singleflight.Group
	mu        sync.RWMutex
	artifacts *genre.Artifacts
}

// NewLazy wraps provider.
func NewLazy(provider genre.Loader) *Lazy {
	return &Lazy{provider: provider}
}

// Load returns the cached artifacts, loading them if needed. The load itself
// is detached from ctx cancellation so one abandoned request cannot fail the
// load for every caller waiting on it.
func (l *Lazy) Load(ctx context.Context) (*genre.Artifacts, error) {
	if a := l.cached(); a != nil {
		return a, nil
	}

	v, err, _ := l.group.Do("artifacts", func() (any, error) {
		if a := l.cached(); a != nil {
			return a, nil
		}
		a, err := l.provider.Load(context.WithoutCancel(ctx))
		if err != nil {
			if !errors.Is(err, genre.ErrArtifactLoad) {
				err = fmt.Errorf("%w: %w", genre.ErrArtifactLoad, err)
			}
			log.WithError(err).Error("Failed to load model artifacts")
			return nil, err
		}
		if err := a.Validate(); err != nil {
			log.WithError(err).Error("Loaded model artifacts are unusable")
			return nil, err
		}
		if !a.Consistent() {
			log.WithFields(log.Fields{
				"num_labels": a.Info.NumLabels,
				"classes":    a.Labels.Len(),
			}).Warn("Model output size differs from the label encoder; unmatched classes will be reported as Unknown")
		}

		l.mu.Lock()
		l.artifacts = a
		l.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*genre.Artifacts), nil
}

// Loaded reports whether artifacts are cached.
func (l *Lazy) Loaded() bool {
	return l.cached() != nil
}

func (l *Lazy) cached() *genre.Artifacts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.artifacts
}
