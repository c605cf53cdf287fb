package handlers

import (
	"net/http"
	"strings"

	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/policy"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler manages login accounts. Role and state changes invalidate the
// cached permission profile of the user.
type UserHandler struct {
	db    *gorm.DB
	gate  *policy.AuthGate
	audit audit.Recorder
}

func NewUserHandler(db *gorm.DB, ag *policy.AuthGate, rec audit.Recorder) *UserHandler {
	return &UserHandler{db: db, gate: ag, audit: rec}
}

type createUserRequest struct {
	SicilNo  string      `json:"sicilNo" validate:"required,max=50"`
	FullName string      `json:"fullName" validate:"required,max=255"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     models.Role `json:"role" validate:"required,oneof=ADMIN CHEF"`
}

type updateUserRequest struct {
	FullName *string      `json:"fullName" validate:"omitempty,min=1,max=255"`
	Password *string      `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *models.Role `json:"role" validate:"omitempty,oneof=ADMIN CHEF"`
	IsActive *bool        `json:"isActive"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := search(h.db.WithContext(r.Context()).Model(&models.User{}), r)
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", strings.ToUpper(role))
	}
	if !includeArchived(r) {
		q = q.Where("state = ?", models.StateActive)
	}
	var rows []models.User
	paginate(w, r, q, "full_name ASC, id ASC", &rows)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	u := models.User{
		SicilNo:      strings.TrimSpace(req.SicilNo),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := h.db.WithContext(r.Context()).Create(&u).Error; err != nil {
		httpx.HandleError(w, r, duplicate(err, "Bu sicil numarası ile kayıtlı kullanıcı mevcut"))
		return
	}
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionCreate, models.EntityUser, audit.ID(u.ID), nil, u))
	httpx.OK(w, http.StatusCreated, u)
}

// Update changes name, role, state or password. Admins cannot demote or
// archive themselves.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if !decode(w, r, &req) {
		return
	}
	self, _ := auth.UserIDFromContext(r.Context())
	if u.ID == self && ((req.Role != nil && *req.Role != models.RoleAdmin) || (req.IsActive != nil && !*req.IsActive)) {
		httpx.HandleError(w, r, httpx.BadRequest(httpx.CodeValidation, "Kendi yetkinizi kaldıramazsınız"))
		return
	}

	before := *u
	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.State = models.StateArchived
		if *req.IsActive {
			u.State = models.StateActive
		}
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		u.PasswordHash = string(hash)
	}
	if err := h.db.WithContext(r.Context()).Save(u).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	h.gate.InvalidateUser(u.ID)
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionUpdate, models.EntityUser, audit.ID(u.ID), before, map[string]any{
		"user":            u,
		"passwordChanged": req.Password != nil,
	}))
	httpx.OK(w, http.StatusOK, u)
}

// Delete archives the user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	if self, _ := auth.UserIDFromContext(r.Context()); u.ID == self {
		httpx.HandleError(w, r, httpx.BadRequest(httpx.CodeValidation, "Kendi hesabınızı silemezsiniz"))
		return
	}
	if err := h.db.WithContext(r.Context()).Model(u).Update("state", models.StateArchived).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	u.State, u.IsActive = models.StateArchived, false
	h.gate.InvalidateUser(u.ID)
	h.audit.Log(r.Context(), services.ActorFromRequest(r).Entry(models.ActionDelete, models.EntityUser, audit.ID(u.ID), nil, u))
	httpx.OKMessage(w, http.StatusOK, u, "Kullanıcı pasif duruma alındı")
}

func (h *UserHandler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return nil, false
	}
	var u models.User
	if err := h.db.WithContext(r.Context()).First(&u, id).Error; err != nil {
		httpx.HandleError(w, r, notFound(err, "Kullanıcı"))
		return nil, false
	}
	return &u, true
}
