// Package service holds the application operations behind the HTTP layer.
// Reads are served through the shared query cache; writes go to the store
// and then drop the cache namespaces whose results they can change.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
)

// Cache namespaces. Class listings embed room, subject and user names, so
// writes to those entities also drop the classes namespace.
const (
	nsRooms    = "rooms."
	nsSubjects = "subjects."
	nsUsers    = "users."
	nsClasses  = "classes."
)

// codeAttempts bounds retries when a generated code collides with an
// existing one.
const codeAttempts = 5

func invalidate(ctx context.Context, c *cache.Cache, namespaces ...string) {
	for _, ns := range namespaces {
		c.Invalidate(ctx, ns)
	}
}

// invalid wraps a validation failure so the HTTP layer reports it as a bad
// request.
func invalid(err error) error {
	return fmt.Errorf("%w: %v", db.ErrInvalid, err)
}

// withGeneratedCode calls create with fresh codes until one does not collide.
func withGeneratedCode[T any](generate func() string, create func(code string) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for range codeAttempts {
		result, err = create(generate())
		if !errors.Is(err, db.ErrConflict) {
			return result, err
		}
	}
	return result, err
}
