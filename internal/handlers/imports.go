package handlers

import (
	"context"
	"net/http"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/services"
)

// ImportHandler accepts rows already parsed from a spreadsheet by the client.
type ImportHandler struct {
	importer *services.Importer
}

func NewImportHandler(importer *services.Importer) *ImportHandler {
	return &ImportHandler{importer: importer}
}

type importRequest struct {
	Data               []services.Row `json:"data" validate:"required,min=1"`
	UseCatalogDuration bool           `json:"useCatalogDuration"`
}

type importFunc func(ctx context.Context, actor services.Actor, req importRequest) (*services.ImportResult, error)

func (h *ImportHandler) serve(fn importFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := fn(r.Context(), services.ActorFromRequest(r), req)
		if err != nil {
			httpx.HandleError(w, r, err)
			return
		}
		httpx.OKMessage(w, http.StatusOK, res, res.Message)
	}
}

func (h *ImportHandler) Personnel() http.HandlerFunc {
	return h.serve(func(ctx context.Context, actor services.Actor, req importRequest) (*services.ImportResult, error) {
		return h.importer.ImportPersonnel(ctx, actor, req.Data)
	})
}

func (h *ImportHandler) Trainings() http.HandlerFunc {
	return h.serve(func(ctx context.Context, actor services.Actor, req importRequest) (*services.ImportResult, error) {
		return h.importer.ImportTrainings(ctx, actor, req.Data)
	})
}

func (h *ImportHandler) Trainers() http.HandlerFunc {
	return h.serve(func(ctx context.Context, actor services.Actor, req importRequest) (*services.ImportResult, error) {
		return h.importer.ImportTrainers(ctx, actor, req.Data)
	})
}

func (h *ImportHandler) Attendance() http.HandlerFunc {
	return h.serve(func(ctx context.Context, actor services.Actor, req importRequest) (*services.ImportResult, error) {
		return h.importer.ImportAttendance(ctx, actor, req.Data, services.AttendanceImportOptions{UseCatalogDuration: req.UseCatalogDuration})
	})
}
