// Package artifacts loads the tokenizer settings, model metadata and label
// encoder that make up genre.Artifacts, either from a local directory or from
// a model bundle (.tar.gz) kept in an object store.
package artifacts

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by an ObjectStore when the key does not exist.
var ErrNotFound = errors.New("artifacts: object not found")

// ObjectStore is the read side of a blob store holding model bundles.
// Keys are forward-slash separated. Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Open returns a stream for the object at key. The caller must close it.
	// Returns an error wrapping ErrNotFound if the key does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
