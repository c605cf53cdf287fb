package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/uclergnlts/tav-egitim/gate"
)

func chefProfile() *gate.StaticProfile {
	return gate.NewStaticProfile("CHEF",
		gate.NewPermission("attendance", gate.ActionCreate),
		gate.NewPermission("personnel", gate.ActionList),
	)
}

func TestStaticProfile_HasPermission(t *testing.T) {
	p := chefProfile()
	if !p.HasPermission("attendance:create") {
		t.Error("should have attendance:create")
	}
	if p.HasPermission("personnel:delete") {
		t.Error("should not have personnel:delete")
	}
	perms := p.Permissions()
	if len(perms) != 2 || perms[0] != "attendance:create" {
		t.Errorf("expected sorted permissions, got %v", perms)
	}
}

func TestStaticResolver(t *testing.T) {
	r := gate.NewStaticResolver[uint]()
	r.Set(1, chefProfile())
	p, err := r.Resolve(context.Background(), 1)
	if err != nil || p == nil || p.Name() != "CHEF" {
		t.Fatalf("unexpected resolve result %v %v", p, err)
	}
	if p, _ := r.Resolve(context.Background(), 999); p != nil {
		t.Error("expected nil for unknown subject")
	}
}

func TestGate_Authorize(t *testing.T) {
	r := gate.NewStaticResolver[uint]()
	r.Set(1, gate.NewStaticProfile("ADMIN", gate.PermissionSuperAdmin))
	r.Set(2, chefProfile())
	g := gate.New[uint](r)
	ctx := context.Background()

	if err := g.Authorize(ctx, 0, gate.ActionList, "personnel"); !errors.Is(err, gate.ErrUnauthenticated) {
		t.Errorf("zero subject: got %v", err)
	}
	if err := g.Authorize(ctx, 1, gate.ActionDelete, "personnel"); err != nil {
		t.Errorf("admin delete: got %v", err)
	}
	if err := g.Authorize(ctx, 2, gate.ActionList, "personnel"); err != nil {
		t.Error("chef should list personnel")
	}
	if err := g.Authorize(ctx, 2, gate.ActionDelete, "personnel"); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("chef delete: got %v", err)
	}
	if err := g.Authorize(ctx, 3, gate.ActionList, "personnel"); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("subject without profile: got %v", err)
	}
}

func TestGate_ResolverError(t *testing.T) {
	boom := errors.New("db down")
	g := gate.New[uint](gate.ResolverFunc[uint](func(context.Context, uint) (gate.Profile, error) {
		return nil, boom
	}))
	if err := g.Authorize(context.Background(), 1, gate.ActionList, "x"); !errors.Is(err, boom) {
		t.Errorf("expected resolver error, got %v", err)
	}
}
