// Package validation validates request payloads with go-playground/validator
// and formats failures into a single user-facing message plus per-field details.
package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/uclergnlts/tav-egitim/httpx"
)

// MaxBodyBytes bounds request bodies; imports of a few thousand rows fit well below.
const MaxBodyBytes = 16 << 20

// InvalidJSONMessage is returned when the body cannot be parsed at all.
const InvalidJSONMessage = "Geçersiz JSON formatı"

// FieldError is one rejected field, named by its JSON path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of DecodeBody / Struct.
type Result struct {
	Success bool
	Message string
	Details []FieldError
}

// Err converts a failed Result into an *httpx.Error (nil on success).
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return httpx.Validation(r.Message, r.Details)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance. Field names in errors use json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("date", isDate)
		_ = validate.RegisterValidation("clock", isClock)
	})
	return validate
}

// DecodeBody parses the JSON body into dst and validates it.
func DecodeBody(r *http.Request, dst any) Result {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return Result{Message: InvalidJSONMessage}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return Result{Message: InvalidJSONMessage}
	}
	return Struct(dst)
}

// Struct validates an already populated struct.
func Struct(s any) Result {
	err := Validator().Struct(s)
	if err == nil {
		return Result{Success: true}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Message: err.Error(), Details: []FieldError{{Field: "", Message: err.Error()}}}
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fieldPath(fe), Message: translate(fe)})
	}
	return Result{Message: FormatMessage(details), Details: details}
}

// FormatMessage joins issues: one issue verbatim, several as a numbered list.
func FormatMessage(details []FieldError) string {
	switch len(details) {
	case 0:
		return "Doğrulama hatası"
	case 1:
		return details[0].Message
	}
	lines := make([]string, len(details))
	for i, d := range details {
		lines[i] = fmt.Sprintf("%d. %s", i+1, d.Message)
	}
	return strings.Join(lines, "\n")
}

// fieldPath drops the top-level struct name from the namespace ("Req.items[0].name" -> "items[0].name").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func translate(fe validator.FieldError) string {
	f := fe.Field()
	p := fe.Param()
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return f + " alanı zorunludur"
	case "oneof":
		return fmt.Sprintf("%s şunlardan biri olmalıdır: %s", f, p)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s en az %s karakter olmalıdır", f, p)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s en az %s öğe içermelidir", f, p)
		}
		return fmt.Sprintf("%s en az %s olmalıdır", f, p)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s en fazla %s karakter olmalıdır", f, p)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s en fazla %s öğe içerebilir", f, p)
		}
		return fmt.Sprintf("%s en fazla %s olmalıdır", f, p)
	case "gte":
		return fmt.Sprintf("%s en az %s olmalıdır", f, p)
	case "lte":
		return fmt.Sprintf("%s en fazla %s olmalıdır", f, p)
	case "gt":
		return fmt.Sprintf("%s %s değerinden büyük olmalıdır", f, p)
	case "len":
		return fmt.Sprintf("%s %s karakter olmalıdır", f, p)
	case "numeric":
		return f + " yalnızca rakamlardan oluşmalıdır"
	case "date":
		return f + " YYYY-AA-GG biçiminde olmalıdır"
	case "clock":
		return f + " SS:DD biçiminde olmalıdır"
	default:
		return fmt.Sprintf("%s geçersiz (%s)", f, fe.Tag())
	}
}
