package handlers

import (
	"net/http"
	"strings"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"gorm.io/gorm"
)

type TrainerHandler struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewTrainerHandler(db *gorm.DB, rec audit.Recorder) *TrainerHandler {
	return &TrainerHandler{db: db, audit: rec}
}

type trainerRequest struct {
	SicilNo  string `json:"sicilNo" validate:"required,max=50"`
	FullName string `json:"fullName" validate:"required,max=255"`
	IsActive *bool  `json:"isActive"`
}

func (h *TrainerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := search(h.db.WithContext(r.Context()).Model(&models.Trainer{}), r)
	if !includeArchived(r) {
		q = q.Where("state = ?", models.StateActive)
	}
	var rows []models.Trainer
	paginate(w, r, q, "full_name ASC, id ASC", &rows)
}

func (h *TrainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req trainerRequest
	if !decode(w, r, &req) {
		return
	}
	t := models.Trainer{SicilNo: strings.TrimSpace(req.SicilNo), FullName: strings.TrimSpace(req.FullName)}
	if err := h.db.WithContext(r.Context()).Create(&t).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu sicil numarası ile kayıtlı eğitmen mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionCreate, models.EntityTrainer, audit.ID(t.ID), nil, t))
	httpx.OK(w, http.StatusCreated, t)
}

func (h *TrainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	var req trainerRequest
	if !decode(w, r, &req) {
		return
	}
	db := h.db.WithContext(r.Context())
	var t models.Trainer
	if err := db.First(&t, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Eğitmen"))
		return
	}
	before := t
	t.SicilNo = strings.TrimSpace(req.SicilNo)
	t.FullName = strings.TrimSpace(req.FullName)
	if req.IsActive != nil {
		t.State = models.StateArchived
		if *req.IsActive {
			t.State = models.StateActive
		}
	}
	if err := db.Save(&t).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu sicil numarası ile kayıtlı eğitmen mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionUpdate, models.EntityTrainer, audit.ID(t.ID), before, t))
	httpx.OK(w, http.StatusOK, t)
}

func (h *TrainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	db := h.db.WithContext(r.Context())
	var t models.Trainer
	if err := db.First(&t, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Eğitmen"))
		return
	}
	if err := db.Model(&t).Update("state", models.StateArchived).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	t.State, t.IsActive = models.StateArchived, false
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionDelete, models.EntityTrainer, audit.ID(t.ID), nil, t))
	httpx.OKMessage(w, http.StatusOK, t, "Eğitmen pasif duruma alındı")
}
