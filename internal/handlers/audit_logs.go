package handlers

import (
	"net/http"
	"strings"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
)

// AuditLogHandler exposes the audit trail read-only.
type AuditLogHandler struct {
	store *audit.GormStore
}

func NewAuditLogHandler(store *audit.GormStore) *AuditLogHandler {
	return &AuditLogHandler{store: store}
}

func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.PageParams(r, defaultPageSize, maxPageSize)
	userID, _, err := queryInt(r, "userId")
	if err != nil || userID < 0 {
		httpx.HandleError(w, r, httpx.Validation("Geçersiz parametre: userId", nil))
		return
	}
	f := audit.Filter{
		EntityType: models.AuditEntity(r.URL.Query().Get("entityType")),
		Action:     models.AuditAction(strings.ToUpper(r.URL.Query().Get("actionType"))),
		UserID:     uint(userID),
		Page:       page,
		Limit:      limit,
	}
	rows, total, err := h.store.List(r.Context(), f)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	httpx.Page(w, rows, httpx.NewPagination(total, page, limit))
}
