package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"gorm.io/gorm"
)

// SuperAdminChecker reports whether the session user currently holds the
// administrator profile.
type SuperAdminChecker interface {
	IsSuperAdmin(ctx context.Context) (bool, error)
}

type AttendanceHandler struct {
	db     *gorm.DB
	svc    *services.AttendanceService
	admins SuperAdminChecker
}

func NewAttendanceHandler(db *gorm.DB, svc *services.AttendanceService, admins SuperAdminChecker) *AttendanceHandler {
	return &AttendanceHandler{db: db, svc: svc, admins: admins}
}

// List pages attendance, newest first. Users without the administrator
// profile only see the rows they entered.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.db.WithContext(r.Context()).Model(&models.Attendance{})
	isAdmin, err := h.admins.IsSuperAdmin(r.Context())
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	if !isAdmin {
		userID, _ := auth.UserIDFromContext(r.Context())
		q = q.Where("created_by_id = ?", userID)
	}
	for _, f := range []struct{ param, column string }{
		{"year", "year"},
		{"month", "month"},
		{"trainingId", "training_id"},
		{"personnelId", "personnel_id"},
	} {
		n, ok, err := queryInt(r, f.param)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		if ok {
			q = q.Where(f.column+" = ?", n)
		}
	}
	if s := r.URL.Query().Get("search"); s != "" {
		p := services.LikePattern(s)
		q = q.Where(`(search_key LIKE ? ESCAPE '\' OR code_key LIKE ? ESCAPE '\')`, p, p)
	}
	var rows []models.Attendance
	paginate(w, r, q, "start_date DESC, id DESC", &rows)
}

// Create records a session for a list of personnel.
func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.RecordInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Record(r.Context(), services.ActorFromRequest(r), req)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	status := http.StatusCreated
	if len(res.Created) == 0 {
		status = http.StatusOK
	}
	httpx.OKMessage(w, status, res, summary(len(res.Created), len(res.Skipped)))
}

func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	var req services.UpdateInput
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.Update(r.Context(), services.ActorFromRequest(r), id, req)
	if err != nil {
		httpx.HandleError(w, r, duplicate(notFound(err, "Katılım kaydı"), "Bu personel için bu yıl aynı eğitim kaydı mevcut"))
		return
	}
	httpx.OK(w, http.StatusOK, a)
}

func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), services.ActorFromRequest(r), id); err != nil {
		httpx.HandleError(w, r, notFound(err, "Katılım kaydı"))
		return
	}
	httpx.OKMessage(w, http.StatusOK, nil, "Katılım kaydı silindi")
}

func summary(created, skipped int) string {
	if skipped == 0 {
		return fmt.Sprintf("%d kayıt oluşturuldu", created)
	}
	return fmt.Sprintf("%d kayıt oluşturuldu, %d personel atlandı", created, skipped)
}
