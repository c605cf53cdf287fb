package gate

import (
	"context"
	"sort"
)

// Profile is a named permission set (one per role).
type Profile interface {
	Name() string
	HasPermission(Permission) bool
	Permissions() []Permission
}

// ProfileResolver maps a subject to its profile. A nil profile with nil error
// means the subject exists but has no access.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, subject U) (Profile, error)
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, subject U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	return f(ctx, subject)
}

// StaticProfile is an in-memory permission set.
type StaticProfile struct {
	name        string
	permissions map[Permission]struct{}
}

func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{name: name, permissions: make(map[Permission]struct{}, len(permissions))}
	for _, perm := range permissions {
		p.permissions[perm] = struct{}{}
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

// Permissions returns the granted permissions in sorted order.
func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

func (p *StaticProfile) HasPermission(requested Permission) bool {
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// StaticResolver is a map-backed resolver, mostly for tests.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

func (r *StaticResolver[U]) Set(subject U, profile Profile) { r.profiles[subject] = profile }

func (r *StaticResolver[U]) Resolve(_ context.Context, subject U) (Profile, error) {
	return r.profiles[subject], nil
}
