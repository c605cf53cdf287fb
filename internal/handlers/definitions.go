package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"gorm.io/gorm"
)

// DefinitionHandler serves the reference lists under /api/definitions/{kind}.
type DefinitionHandler struct {
	db    *gorm.DB
	defs  *services.Definitions
	audit audit.Recorder
}

func NewDefinitionHandler(db *gorm.DB, defs *services.Definitions, rec audit.Recorder) *DefinitionHandler {
	return &DefinitionHandler{db: db, defs: defs, audit: rec}
}

type definitionRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	IsActive *bool  `json:"isActive"`
}

func entityFor(kind models.DefinitionKind) models.AuditEntity {
	if kind == models.KindPersonnelGroup {
		return models.EntityPersonnelGroup
	}
	return models.EntityDefinition
}

func (h *DefinitionHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	q := h.db.WithContext(r.Context()).Where("kind = ?", kind)
	if !includeArchived(r) {
		q = q.Where("state = ?", models.StateActive)
	}
	rows := []models.Definition{}
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, rows)
}

func (h *DefinitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req definitionRequest
	if !decode(w, r, &req) {
		return
	}
	d := models.Definition{Kind: kind, Name: strings.TrimSpace(req.Name)}
	if err := h.db.WithContext(r.Context()).Create(&d).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu isimde bir tanım zaten mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionCreate, entityFor(kind), audit.ID(d.ID), nil, d))
	httpx.OK(w, http.StatusCreated, d)
}

// Update renames or (de)activates a definition. ?resync=true also rewrites
// the rows that refer to the old name.
func (h *DefinitionHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	var req definitionRequest
	if !decode(w, r, &req) {
		return
	}
	resync, _ := strconv.ParseBool(r.URL.Query().Get("resync"))
	actor := services.ActorFromRequest(r)

	var rewritten *services.ResyncResult
	if name := strings.TrimSpace(req.Name); name != d.Name {
		res, err := h.defs.Rename(r.Context(), actor, d, name, resync)
		if err != nil {
			httpx.HandleError(w, r, duplicate(err, "Bu isimde bir tanım zaten mevcut"))
			return
		}
		rewritten = res
	}
	if req.IsActive != nil && *req.IsActive != d.IsActive {
		state := models.StateArchived
		if *req.IsActive {
			state = models.StateActive
		}
		before := *d
		if err := h.db.WithContext(r.Context()).Model(d).Update("state", state).Error; err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		d.State, d.IsActive = state, !state.IsEffectivelyDeleted()
		h.audit.Log(r.Context(), actor.Entry(models.ActionUpdate, entityFor(d.Kind), audit.ID(d.ID), before, d))
	}
	httpx.OK(w, http.StatusOK, map[string]any{"definition": d, "resync": rewritten})
}

// Delete archives the definition. Rows keep the name they stored.
func (h *DefinitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.db.WithContext(r.Context()).Model(d).Update("state", models.StateArchived).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	d.State, d.IsActive = models.StateArchived, false
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionDelete, entityFor(d.Kind), audit.ID(d.ID), nil, d))
	httpx.OKMessage(w, http.StatusOK, d, "Tanım pasif duruma alındı")
}

func (h *DefinitionHandler) kind(w http.ResponseWriter, r *http.Request) (models.DefinitionKind, bool) {
	kind, ok := models.ParseDefinitionKind(r.PathValue("kind"))
	if !ok {
		httpx.HandleError(w, r, httpx.NotFound("Tanım türü"))
		return "", false
	}
	return kind, true
}

func (h *DefinitionHandler) load(w http.ResponseWriter, r *http.Request) (*models.Definition, bool) {
	kind, ok := h.kind(w, r)
	if !ok {
		return nil, false
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return nil, false
	}
	var d models.Definition
	if err := h.db.WithContext(r.Context()).Where("kind = ?", kind).First(&d, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Tanım"))
		return nil, false
	}
	return &d, true
}
