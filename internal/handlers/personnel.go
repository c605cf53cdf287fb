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

type PersonnelHandler struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewPersonnelHandler(db *gorm.DB, rec audit.Recorder) *PersonnelHandler {
	return &PersonnelHandler{db: db, audit: rec}
}

type personnelRequest struct {
	SicilNo    string                 `json:"sicilNo" validate:"required,max=50"`
	FullName   string                 `json:"fullName" validate:"required,max=255"`
	TcKimlikNo string                 `json:"tcKimlikNo" validate:"omitempty,len=11,numeric"`
	Gorevi     string                 `json:"gorevi" validate:"max=255"`
	ProjeAdi   string                 `json:"projeAdi" validate:"max=255"`
	Grup       string                 `json:"grup" validate:"max=100"`
	Status     models.PersonnelStatus `json:"personelDurumu" validate:"omitempty,oneof=CALISAN IZINLI PASIF AYRILDI"`
}

func (req personnelRequest) apply(p *models.Personnel) {
	p.SicilNo = strings.TrimSpace(req.SicilNo)
	p.FullName = strings.TrimSpace(req.FullName)
	p.TcKimlikNo = req.TcKimlikNo
	p.Gorevi = req.Gorevi
	p.ProjeAdi = req.ProjeAdi
	p.Grup = req.Grup
	if req.Status != "" {
		p.Status = req.Status
	}
}

// List pages personnel. PASIF records are hidden unless ?status=PASIF or
// ?includeArchived=true.
func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request) {
	q := search(h.db.WithContext(r.Context()).Model(&models.Personnel{}), r)
	status := models.PersonnelStatus(strings.ToUpper(r.URL.Query().Get("status")))
	switch {
	case status != "":
		q = q.Where("status = ?", status)
	case !includeArchived(r):
		q = q.Where("status <> ?", models.StatusPasif)
	}
	if g := r.URL.Query().Get("grup"); g != "" {
		q = q.Where("grup = ?", g)
	}
	var rows []models.Personnel
	paginate(w, r, q, "full_name ASC, id ASC", &rows)
}

func (h *PersonnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	var p models.Personnel
	if err := h.db.WithContext(r.Context()).First(&p, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Personel"))
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *PersonnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personnelRequest
	if !decode(w, r, &req) {
		return
	}
	var p models.Personnel
	req.apply(&p)
	if err := h.db.WithContext(r.Context()).Create(&p).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu sicil numarası ile kayıtlı personel mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionCreate, models.EntityPersonnel, audit.ID(p.ID), nil, p))
	httpx.OK(w, http.StatusCreated, p)
}

func (h *PersonnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	var req personnelRequest
	if !decode(w, r, &req) {
		return
	}
	db := h.db.WithContext(r.Context())
	var p models.Personnel
	if err := db.First(&p, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Personel"))
		return
	}
	before := p
	req.apply(&p)
	if err := db.Save(&p).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu sicil numarası ile kayıtlı personel mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionUpdate, models.EntityPersonnel, audit.ID(p.ID), before, p))
	httpx.OK(w, http.StatusOK, p)
}

// Delete marks the personnel PASIF. Attendance history is kept.
func (h *PersonnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	db := h.db.WithContext(r.Context())
	var p models.Personnel
	if err := db.First(&p, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Personel"))
		return
	}
	before := p
	if err := db.Model(&p).Update("status", models.StatusPasif).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	p.Status = models.StatusPasif
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionDelete, models.EntityPersonnel, audit.ID(p.ID), before, p))
	httpx.OKMessage(w, http.StatusOK, p, "Personel pasif duruma alındı")
}
