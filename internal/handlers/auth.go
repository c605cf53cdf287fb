package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const invalidCredentials = "Geçersiz sicil no veya şifre"

type AuthHandler struct {
	db       *gorm.DB
	sessions *auth.Manager
	audit    audit.Recorder
}

func NewAuthHandler(db *gorm.DB, sessions *auth.Manager, rec audit.Recorder) *AuthHandler {
	return &AuthHandler{db: db, sessions: sessions, audit: rec}
}

type loginRequest struct {
	SicilNo  string `json:"sicilNo" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=200"`
}

// Login checks the credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).Where("sicil_no = ?", req.SicilNo).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.HandleError(w, r, err)
		return
	}
	if err != nil || !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		log.Warn().Str("sicil_no", req.SicilNo).Str("ip", httpx.ClientIP(r)).Msg("failed login")
		httpx.HandleError(w, r, httpx.NewError(http.StatusUnauthorized, httpx.CodeUnauthorized, invalidCredentials))
		return
	}

	if _, err := h.sessions.CreateSession(w, user.ID, user.SicilNo, user.FullName, string(user.Role)); err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	now := time.Now()
	if err := h.db.WithContext(r.Context()).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to store last login")
	}
	user.LastLoginAt = &now

	actor := services.Actor{UserID: user.ID, Role: string(user.Role), FullName: user.FullName, Meta: audit.MetaFromRequest(r)}
	h.audit.Log(r.Context(), actor.Entry(models.ActionLogin, models.EntityUser, audit.ID(user.ID), nil, nil))
	httpx.OK(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.OKMessage(w, http.StatusOK, nil, "Çıkış yapıldı")
}

// Me returns the logged-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.HandleError(w, r, httpx.Unauthorized())
			return
		}
		httpx.HandleError(w, r, err)
		return
	}
	if !user.IsActive {
		auth.ClearSession(w)
		httpx.HandleError(w, r, httpx.Unauthorized())
		return
	}
	httpx.OK(w, http.StatusOK, user)
}
