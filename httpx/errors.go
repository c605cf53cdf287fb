package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Error codes returned in the "code" field of failure bodies.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeDuplicate    = "DUPLICATE_ERROR"
	CodeForeignKey   = "FOREIGN_KEY_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeDatabase     = "DATABASE_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is an application error carrying an explicit status and code.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error.
func NewError(status int, code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

func BadRequest(code, msg string) *Error { return NewError(http.StatusBadRequest, code, msg) }

// Validation builds a 400 VALIDATION_ERROR with per-field details.
func Validation(msg string, details any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg, Details: details}
}

func Unauthorized() *Error {
	return NewError(http.StatusUnauthorized, CodeUnauthorized, "Oturum açmanız gerekiyor")
}

// NotFound builds a 404; resource is interpolated when given.
func NotFound(resource string) *Error {
	if resource == "" {
		return NewError(http.StatusNotFound, CodeNotFound, "Kayıt bulunamadı")
	}
	return NewError(http.StatusNotFound, CodeNotFound, resource+" bulunamadı")
}

// Forbidden builds a 403; resource is interpolated when given.
func Forbidden(resource string) *Error {
	if resource == "" {
		return NewError(http.StatusForbidden, CodeForbidden, "Bu işlem için yetkiniz yok")
	}
	return NewError(http.StatusForbidden, CodeForbidden, resource+" için yetkiniz yok")
}

func Conflict(msg string) *Error { return NewError(http.StatusConflict, CodeDuplicate, msg) }

// Database signatures checked against raw driver messages (postgres and sqlite).
var (
	uniqueSignatures     = []string{"duplicate key", "unique constraint", "23505"}
	foreignKeySignatures = []string{"foreign key constraint", "violates foreign key", "23503"}
)

// IsUniqueViolation reports whether err looks like a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()), uniqueSignatures)
}

// IsForeignKeyViolation reports whether err looks like a foreign-key failure.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()), foreignKeySignatures)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Classify maps any error to an *Error without writing a response.
func Classify(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: "Geçersiz JSON formatı", Err: err}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := NotFound("")
		e.Err = err
		return e
	}
	if IsUniqueViolation(err) {
		return &Error{Status: http.StatusConflict, Code: CodeDuplicate, Message: "Bu kayıt zaten mevcut", Err: err}
	}
	if IsForeignKeyViolation(err) {
		return &Error{Status: http.StatusConflict, Code: CodeForeignKey, Message: "İlişkili kayıt bulunamadı veya kayıt kullanımda", Err: err}
	}
	if isDatabaseError(err) {
		return &Error{Status: http.StatusInternalServerError, Code: CodeDatabase, Message: "Veritabanı hatası oluştu", Err: err}
	}
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Beklenmeyen bir hata oluştu", Err: err}
}

func isDatabaseError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"sql", "database", "constraint", "relation", "no such table", "pq:", "pgx", "sqlstate"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return errors.Is(err, gorm.ErrInvalidTransaction) || errors.Is(err, gorm.ErrInvalidDB)
}

// HandleError writes the failure body for err. 5xx errors are logged with the full cause.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	e := Classify(err)
	if e.Status >= http.StatusInternalServerError {
		ev := log.Error().Err(err).Str("code", e.Code)
		if r != nil {
			ev = ev.Str("method", r.Method).Str("path", r.URL.Path)
		}
		ev.Msg("request failed")
	}
	JSONError(w, e.Status, e.Code, e.Message, e.Details)
}

// Recover turns panics into a generic 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("panic recovered")
				JSONError(w, http.StatusInternalServerError, CodeInternal, "Beklenmeyen bir hata oluştu", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
