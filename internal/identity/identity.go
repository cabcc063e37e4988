// Package identity provides the user directory bounded context API.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Directory defines the public interface other domains use to look users up.
// Other domains should depend on this interface, not on concrete implementations.
type Directory interface {
	// IsAssignable reports whether the user may own leads.
	IsAssignable(ctx context.Context, userID uuid.UUID) (bool, error)
	// Contact returns the user's display name and e-mail address.
	Contact(ctx context.Context, userID uuid.UUID) (name string, email string, err error)
}
