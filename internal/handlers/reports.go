package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/export"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"github.com/uclergnlts/tav-egitim/validation"
)

type ReportHandler struct {
	reports *services.Reports
}

func NewReportHandler(reports *services.Reports) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type periodQuery struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

type yearQuery struct {
	Year int `json:"year" validate:"required,min=2000,max=2100"`
}

// atoi reads an int query parameter from the query string; unparsable values are
// left zero and then rejected by the validator.
func atoi(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (h *ReportHandler) monthly(r *http.Request) (*services.MonthlyReport, error) {
	q := periodQuery{Year: atoi(r, "year"), Month: atoi(r, "month")}
	if err := validation.Struct(q).Err(); err != nil {
		return nil, err
	}
	return h.reports.Monthly(r.Context(), q.Year, q.Month)
}

func (h *ReportHandler) yearly(r *http.Request) (*services.YearlyReport, error) {
	q := yearQuery{Year: atoi(r, "year")}
	if err := validation.Struct(q).Err(); err != nil {
		return nil, err
	}
	return h.reports.Yearly(r.Context(), q.Year)
}

func (h *ReportHandler) detail(r *http.Request) (*services.DetailReport, error) {
	v := r.URL.Query()
	f := services.DetailFilter{
		Search:       strings.TrimSpace(v.Get("search")),
		TrainingCode: strings.TrimSpace(v.Get("trainingCode")),
		StartDate:    v.Get("startDate"),
		EndDate:      v.Get("endDate"),
		Group:        v.Get("group"),
		Status:       models.PersonnelStatus(strings.ToUpper(v.Get("status"))),
	}
	if err := validation.Struct(f).Err(); err != nil {
		return nil, err
	}
	return h.reports.Detail(r.Context(), f)
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	rep, err := h.monthly(r)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, rep)
}

func (h *ReportHandler) Yearly(w http.ResponseWriter, r *http.Request) {
	rep, err := h.yearly(r)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, rep)
}

func (h *ReportHandler) Detail(w http.ResponseWriter, r *http.Request) {
	rep, err := h.detail(r)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, rep)
}

// Export renders the report named by {report} as ?format=xlsx|pdf.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httpx.HandleError(w, r, httpx.Validation("Geçersiz dosya formatı", []validation.FieldError{{Field: "format", Message: "format xlsx veya pdf olmalıdır"}}))
		return
	}

	var table export.Table
	var name string
	switch r.PathValue("report") {
	case "monthly":
		rep, err := h.monthly(r)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		table, name = export.MonthlyTable(rep), fmt.Sprintf("aylik-rapor-%d-%02d", rep.Year, rep.Month)
	case "yearly":
		rep, err := h.yearly(r)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		table, name = export.YearlyTable(rep), fmt.Sprintf("yillik-rapor-%d", rep.Year)
	case "detail":
		rep, err := h.detail(r)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		table, name = export.DetailTable(rep), "detay-rapor"
	default:
		httpx.HandleError(w, r, httpx.NotFound("Rapor"))
		return
	}

	body, err := export.Render(format, table)
	if err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(name)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
