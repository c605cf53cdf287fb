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

type TrainingHandler struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewTrainingHandler(db *gorm.DB, rec audit.Recorder) *TrainingHandler {
	return &TrainingHandler{db: db, audit: rec}
}

type trainingRequest struct {
	Code                string                  `json:"code" validate:"required,max=50"`
	Name                string                  `json:"name" validate:"required,max=255"`
	DurationMin         int                     `json:"durationMin" validate:"min=0,max=100000"`
	Category            models.TrainingCategory `json:"category" validate:"omitempty,oneof=TEMEL TAZELEME DIGER"`
	DefaultLocation     string                  `json:"defaultLocation" validate:"max=255"`
	DefaultDocumentType string                  `json:"defaultDocumentType" validate:"max=255"`
	IsActive            *bool                   `json:"isActive"`
}

func (req trainingRequest) apply(t *models.Training) {
	t.Code = strings.TrimSpace(req.Code)
	t.Name = strings.TrimSpace(req.Name)
	t.DurationMin = req.DurationMin
	if req.Category != "" {
		t.Category = req.Category
	}
	t.DefaultLocation = req.DefaultLocation
	t.DefaultDocumentType = req.DefaultDocumentType
	if req.IsActive != nil {
		t.State = models.StateArchived
		if *req.IsActive {
			t.State = models.StateActive
		}
	}
}

type topicRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	OrderNo *int   `json:"orderNo" validate:"omitempty,min=0"`
}

// List pages trainings. Archived entries need ?includeArchived=true.
func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.db.WithContext(r.Context()).Model(&models.Training{})
	q = search(q, r)
	if c := r.URL.Query().Get("category"); c != "" {
		q = q.Where("category = ?", strings.ToUpper(c))
	}
	if !includeArchived(r) {
		q = q.Where("state = ?", models.StateActive)
	}
	q = q.Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("order_no ASC, id ASC") })
	var rows []models.Training
	paginate(w, r, q, "code ASC", &rows)
}

func (h *TrainingHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, t)
}

func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req trainingRequest
	if !decode(w, r, &req) {
		return
	}
	var t models.Training
	req.apply(&t)
	if err := h.db.WithContext(r.Context()).Create(&t).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu kod ile kayıtlı eğitim mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionCreate, models.EntityTraining, audit.ID(t.ID), nil, t))
	httpx.OK(w, http.StatusCreated, t)
}

func (h *TrainingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req trainingRequest
	t, ok := h.load(w, r)
	if !ok || !decode(w, r, &req) {
		return
	}
	before := *t
	req.apply(t)
	if err := h.db.WithContext(r.Context()).Omit("Topics").Save(t).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu kod ile kayıtlı eğitim mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionUpdate, models.EntityTraining, audit.ID(t.ID), before, t))
	httpx.OK(w, http.StatusOK, t)
}

// Delete archives the training; attendance keeps referring to it.
func (h *TrainingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.db.WithContext(r.Context()).Model(t).Update("state", models.StateArchived).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	t.State, t.IsActive = models.StateArchived, false
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionDelete, models.EntityTraining, audit.ID(t.ID), nil, t))
	httpx.OKMessage(w, http.StatusOK, t, "Eğitim pasif duruma alındı")
}

func (h *TrainingHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, t.Topics)
}

// CreateTopic appends a topic; without orderNo it goes last.
func (h *TrainingHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	t, ok := h.load(w, r)
	if !ok || !decode(w, r, &req) {
		return
	}
	topic := models.TrainingTopic{TrainingID: t.ID, Title: strings.TrimSpace(req.Title)}
	if req.OrderNo != nil {
		topic.OrderNo = *req.OrderNo
	} else {
		for _, existing := range t.Topics {
			if existing.OrderNo >= topic.OrderNo {
				topic.OrderNo = existing.OrderNo + 1
			}
		}
	}
	if err := h.db.WithContext(r.Context()).Create(&topic).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionCreate, models.EntityTraining, audit.ID(t.ID), nil, topic))
	httpx.OK(w, http.StatusCreated, topic)
}

// DeleteTopic removes a topic permanently.
func (h *TrainingHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	topicID, err := httpx.PathID(r, "topicId")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	db := h.db.WithContext(r.Context())
	var topic models.TrainingTopic
	if err := db.Where("id = ? AND training_id = ?", topicID, id).First(&topic).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Alt başlık"))
		return
	}
	if err := db.Delete(&topic).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionDelete, models.EntityTraining, audit.ID(id), topic, nil))
	httpx.OKMessage(w, http.StatusOK, nil, "Alt başlık silindi")
}

func (h *TrainingHandler) load(w http.ResponseWriter, r *http.Request) (*models.Training, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return nil, false
	}
	var t models.Training
	err = h.db.WithContext(r.Context()).
		Preload("Topics", func(db *gorm.DB) *gorm.DB { return db.Order("order_no ASC, id ASC") }).
		First(&t, id).Error
	if err != nil {
		httpx.HandleError(w, r, notFound(err, "Eğitim"))
		return nil, false
	}
	return &t, true
}
