// Package handlers implements the JSON API. Handlers hold a *gorm.DB and
// the services they need; authentication and permission checks are done by
// middleware in the route table.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/services"
	"github.com/uclergnlts/tav-egitim/validation"
	"gorm.io/gorm"
)

// List endpoints page with these bounds.
const (
	defaultPageSize = 50
	maxPageSize     = 500
)

const searchClause = `search_key LIKE ? ESCAPE '\'`

// decode reads and validates the body into dst, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if res := validation.DecodeBody(r, dst); !res.Success {
		httpx.HandleError(w, r, res.Err())
		return false
	}
	return true
}

// paginate counts q, then loads one page of it into dst and writes the
// paginated response.
func paginate(w http.ResponseWriter, r *http.Request, q *gorm.DB, order string, dst any) {
	page, limit := httpx.PageParams(r, defaultPageSize, maxPageSize)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	if err := q.Session(&gorm.Session{}).Order(order).Offset((page - 1) * limit).Limit(limit).Find(dst).Error; err != nil {
		httpx.HandleError(w, r, err)
		return
	}
	httpx.Page(w, dst, httpx.NewPagination(total, page, limit))
}

// search applies a name or sicil substring filter from ?search=. The
// model must carry a search_key column.
func search(q *gorm.DB, r *http.Request) *gorm.DB {
	if s := r.URL.Query().Get("search"); s != "" {
		q = q.Where(searchClause, services.LikePattern(s))
	}
	return q
}

// includeArchived reports whether ?includeArchived=true (or ?all=true) is set.
func includeArchived(r *http.Request) bool {
	for _, key := range []string{"includeArchived", "all"} {
		if v, err := strconv.ParseBool(r.URL.Query().Get(key)); err == nil && v {
			return true
		}
	}
	return false
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, httpx.Validation("Geçersiz parametre: "+key, []validation.FieldError{{Field: key, Message: key + " sayı olmalıdır"}})
	}
	return n, true, nil
}
