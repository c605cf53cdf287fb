package httpx

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Envelope is the body shape shared by every JSON endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Code       string      `json:"code,omitempty"`
	Errors     any         `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a page of a list endpoint.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Limit      int   `json:"limit"`
}

// NewPagination computes TotalPages for a total/page/limit triple.
func NewPagination(total int64, page, limit int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Total: total, Page: page, TotalPages: pages, Limit: limit}
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"success":false,"message":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK writes {success:true,data}.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// OKMessage writes {success:true,data,message}.
func OKMessage(w http.ResponseWriter, status int, data any, msg string) {
	JSON(w, status, Envelope{Success: true, Data: data, Message: msg})
}

// Page writes a paginated list response.
func Page(w http.ResponseWriter, data any, p *Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}

func JSONError(w http.ResponseWriter, status int, code, msg string, details any) {
	JSON(w, status, Envelope{Success: false, Code: code, Message: msg, Errors: details})
}
