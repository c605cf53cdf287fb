// Package gate is a small permission gate: subjects resolve to profiles and
// profiles grant "resource:action" permissions (with wildcards). It knows
// nothing about users or HTTP; callers supply a ProfileResolver.
package gate

import "context"

// Gate checks permissions for subjects of type U (zero value = anonymous).
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns nil when subject may perform action on resource,
// ErrUnauthenticated for the zero subject and ErrForbidden otherwise.
// Resolver errors are returned as is.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resource string) error {
	var zero U
	if subject == zero {
		return ErrUnauthenticated
	}
	profile, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		return err
	}
	if profile == nil || !profile.HasPermission(NewPermission(resource, action)) {
		return ErrForbidden
	}
	return nil
}

// Profile returns the subject's resolved profile (nil when none).
func (g *Gate[U]) Profile(ctx context.Context, subject U) (Profile, error) {
	var zero U
	if subject == zero {
		return nil, ErrUnauthenticated
	}
	return g.resolver.Resolve(ctx, subject)
}
