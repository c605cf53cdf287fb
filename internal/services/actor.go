package services

import (
	"net/http"

	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
)

// Actor is the logged-in user a service call runs on behalf of.
type Actor struct {
	UserID   uint
	Role     string
	FullName string
	Meta     audit.Meta
}

// ActorFromRequest reads the session claims and request metadata.
func ActorFromRequest(r *http.Request) Actor {
	a := Actor{Meta: audit.MetaFromRequest(r)}
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		a.UserID = c.UserID
		a.Role = c.Role
		a.FullName = c.FullName
	}
	return a
}

// Entry builds an audit entry attributed to the actor.
func (a Actor) Entry(action models.AuditAction, entity models.AuditEntity, id *uint, oldValue, newValue any) audit.Entry {
	return audit.Entry{
		UserID:     a.UserID,
		UserRole:   a.Role,
		Action:     action,
		EntityType: entity,
		EntityID:   id,
		OldValue:   oldValue,
		NewValue:   newValue,
		Meta:       a.Meta,
	}
}
