package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/metrics"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// MaxImportRows caps one import request.
const MaxImportRows = 5000

var (
	ErrNoRows      = errors.New("içe aktarılacak veri bulunamadı")
	ErrTooManyRows = fmt.Errorf("tek seferde en fazla %d satır içe aktarılabilir", MaxImportRows)
)

// ImportResult is returned by every import. Row failures are collected in
// Errors; they never fail the whole import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
}

type rowOutcome int

const (
	outcomeCreated rowOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// AttendanceImportOptions tunes ImportAttendance.
type AttendanceImportOptions struct {
	// UseCatalogDuration takes the duration from the training catalog
	// instead of the row's start and end times.
	UseCatalogDuration bool
}

// Importer upserts spreadsheet rows parsed on the client.
type Importer struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewImporter(db *gorm.DB, rec audit.Recorder) *Importer {
	if rec == nil {
		rec = audit.Discard{}
	}
	return &Importer{db: db, audit: rec}
}

// ImportPersonnel upserts personnel by sicil no. Existing records only take
// the non-empty fields of the row; new records default to CALISAN.
func (im *Importer) ImportPersonnel(ctx context.Context, actor Actor, rows []Row) (*ImportResult, error) {
	return im.run(ctx, actor, "personnel", rows, func(tx *gorm.DB, row Row) (rowOutcome, error) {
		sicil, name := row.Str("sicilNo"), row.Str("fullName")
		if sicil == "" || name == "" {
			return 0, rowErrorf("sicil no ve ad soyad zorunludur")
		}
		status := models.PersonnelStatus(strings.ToUpper(row.Str("personelDurumu")))
		if status != "" && !status.Valid() {
			return 0, rowErrorf("geçersiz personel durumu %q", status)
		}

		var existing models.Personnel
		err := tx.Where("sicil_no = ?", sicil).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p := models.Personnel{
				SicilNo:    sicil,
				FullName:   name,
				TcKimlikNo: row.Str("tcKimlikNo"),
				Gorevi:     row.Str("gorevi"),
				ProjeAdi:   row.Str("projeAdi"),
				Grup:       row.Str("grup"),
				Status:     status,
			}
			return outcomeCreated, tx.Create(&p).Error
		case err != nil:
			return 0, err
		}

		updates := map[string]any{"full_name": name, "search_key": models.SearchKey(existing.SicilNo, name)}
		for col, key := range map[string]string{
			"tc_kimlik_no": "tcKimlikNo",
			"gorevi":       "gorevi",
			"proje_adi":    "projeAdi",
			"grup":         "grup",
		} {
			if v := row.Str(key); v != "" {
				updates[col] = v
			}
		}
		if status != "" {
			updates["status"] = status
		}
		return outcomeUpdated, tx.Model(&existing).Updates(updates).Error
	})
}

// ImportTrainings upserts trainings by code. The comma separated topics
// column only appends titles the training does not have yet.
func (im *Importer) ImportTrainings(ctx context.Context, actor Actor, rows []Row) (*ImportResult, error) {
	return im.run(ctx, actor, "trainings", rows, func(tx *gorm.DB, row Row) (rowOutcome, error) {
		code, name := row.Str("code"), row.Str("name")
		dur, ok := row["durationMin"].Float()
		if code == "" || name == "" || !ok {
			return 0, rowErrorf("eğitim kodu, adı ve süresi zorunludur")
		}
		if dur < 0 || dur != math.Trunc(dur) {
			return 0, rowErrorf("geçersiz süre %v", dur)
		}
		category := models.TrainingCategory(strings.ToUpper(row.Str("category")))
		if category != "" && !category.Valid() {
			return 0, rowErrorf("geçersiz kategori %q", category)
		}

		var t models.Training
		err := tx.Where("code = ?", code).First(&t).Error
		outcome := outcomeUpdated
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			t = models.Training{
				Code:                code,
				Name:                name,
				DurationMin:         int(dur),
				Category:            category,
				DefaultLocation:     row.Str("defaultLocation"),
				DefaultDocumentType: row.Str("defaultDocumentType"),
			}
			if err := tx.Create(&t).Error; err != nil {
				return 0, err
			}
			outcome = outcomeCreated
		case err != nil:
			return 0, err
		default:
			updates := map[string]any{"name": name, "duration_min": int(dur), "search_key": models.SearchKey(t.Code, name)}
			if category != "" {
				updates["category"] = category
			}
			if v := row.Str("defaultLocation"); v != "" {
				updates["default_location"] = v
			}
			if v := row.Str("defaultDocumentType"); v != "" {
				updates["default_document_type"] = v
			}
			if err := tx.Model(&t).Updates(updates).Error; err != nil {
				return 0, err
			}
		}
		return outcome, appendTopics(tx, t.ID, row.Str("topics"))
	})
}

func appendTopics(tx *gorm.DB, trainingID uint, raw string) error {
	if raw == "" {
		return nil
	}
	var existing []models.TrainingTopic
	if err := tx.Where("training_id = ?", trainingID).Order("order_no").Find(&existing).Error; err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	next := 0
	for _, t := range existing {
		seen[strings.ToLower(t.Title)] = true
		if t.OrderNo >= next {
			next = t.OrderNo + 1
		}
	}
	for _, title := range strings.Split(raw, ",") {
		title = strings.TrimSpace(title)
		if title == "" || seen[strings.ToLower(title)] {
			continue
		}
		seen[strings.ToLower(title)] = true
		if err := tx.Create(&models.TrainingTopic{TrainingID: trainingID, Title: title, OrderNo: next}).Error; err != nil {
			return err
		}
		next++
	}
	return nil
}

// ImportTrainers upserts trainers by sicil no.
func (im *Importer) ImportTrainers(ctx context.Context, actor Actor, rows []Row) (*ImportResult, error) {
	return im.run(ctx, actor, "trainers", rows, func(tx *gorm.DB, row Row) (rowOutcome, error) {
		sicil, name := row.Str("sicilNo"), row.Str("fullName")
		if sicil == "" || name == "" {
			return 0, rowErrorf("sicil no ve ad soyad zorunludur")
		}
		var t models.Trainer
		err := tx.Where("sicil_no = ?", sicil).First(&t).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return outcomeCreated, tx.Create(&models.Trainer{SicilNo: sicil, FullName: name}).Error
		case err != nil:
			return 0, err
		}
		return outcomeUpdated, tx.Model(&t).Updates(map[string]any{
			"full_name":  name,
			"search_key": models.SearchKey(t.SicilNo, name),
		}).Error
	})
}

// ImportAttendance inserts attendance rows. A row whose (personnel,
// training, year) already exists is skipped, not reported as an error.
func (im *Importer) ImportAttendance(ctx context.Context, actor Actor, rows []Row, opts AttendanceImportOptions) (*ImportResult, error) {
	return im.run(ctx, actor, "attendance", rows, func(tx *gorm.DB, row Row) (rowOutcome, error) {
		sicil, code := row.Str("sicilNo"), row.Str("trainingCode")
		if sicil == "" || code == "" || row.Str("startDate") == "" {
			return 0, rowErrorf("sicil no, eğitim kodu ve başlama tarihi zorunludur")
		}
		a, err := buildAttendance(tx, row, opts)
		if err != nil {
			return 0, err
		}
		a.CreatedByID = actor.UserID
		a.CreatedByName = actor.FullName

		var n int64
		if err := tx.Model(&models.Attendance{}).
			Where("personnel_id = ? AND training_id = ? AND year = ?", a.PersonnelID, a.TrainingID, a.Year).
			Count(&n).Error; err != nil {
			return 0, err
		}
		if n > 0 {
			return outcomeSkipped, nil
		}
		if err := tx.Create(a).Error; err != nil {
			if httpx.IsUniqueViolation(err) {
				return outcomeSkipped, nil
			}
			return 0, err
		}
		return outcomeCreated, nil
	})
}

func buildAttendance(tx *gorm.DB, row Row, opts AttendanceImportOptions) (*models.Attendance, error) {
	sicil, code := row.Str("sicilNo"), row.Str("trainingCode")

	var p models.Personnel
	if err := tx.Where("sicil_no = ?", sicil).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rowErrorf("personel bulunamadı (%s)", sicil)
		}
		return nil, err
	}
	var t models.Training
	if err := tx.Where("code = ?", code).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rowErrorf("eğitim bulunamadı (%s)", code)
		}
		return nil, err
	}

	startDate, err := ParseDate(row["startDate"])
	if err != nil {
		return nil, rowErrorf("başlama tarihi: %v", err)
	}
	endDate := startDate
	if row.Str("endDate") != "" {
		if endDate, err = ParseDate(row["endDate"]); err != nil {
			return nil, rowErrorf("bitiş tarihi: %v", err)
		}
	}
	startTime, err := ParseClock(row["startTime"])
	if err != nil {
		return nil, rowErrorf("başlama saati: %v", err)
	}
	endTime, err := ParseClock(row["endTime"])
	if err != nil {
		return nil, rowErrorf("bitiş saati: %v", err)
	}
	ie, err := parseInternalExternal(row.Str("internalExternal"))
	if err != nil {
		return nil, err
	}

	a := &models.Attendance{
		PersonnelID:       p.ID,
		TrainingID:        t.ID,
		PersonnelSnapshot: models.SnapshotPersonnel(p),
		TrainingSnapshot:  models.SnapshotTraining(t, nil),
		StartDate:         startDate,
		EndDate:           endDate,
		StartTime:         startTime,
		EndTime:           endTime,
		Location:          firstNonEmpty(row.Str("location"), t.DefaultLocation),
		DocumentType:      firstNonEmpty(row.Str("documentType"), t.DefaultDocumentType),
		InternalExternal:  ie,
		Description:       row.Str("description"),
	}
	if a.Year, a.Month, err = models.PeriodOf(startDate); err != nil {
		return nil, err
	}
	if opts.UseCatalogDuration {
		a.DurationMin = t.DurationMin
	} else {
		a.DurationMin = models.SessionMinutes(startDate, startTime, endDate, endTime, t.DurationMin)
	}

	if trainer := row.Str("trainerSicilNo"); trainer != "" {
		var tr models.Trainer
		if err := tx.Where("sicil_no = ?", trainer).First(&tr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, rowErrorf("eğitmen bulunamadı (%s)", trainer)
			}
			return nil, err
		}
		a.TrainerID = &tr.ID
	}
	if title := row.Str("topic"); title != "" {
		var topic models.TrainingTopic
		err := tx.Where("training_id = ? AND title = ?", t.ID, title).First(&topic).Error
		switch {
		case err == nil:
			a.TopicID = &topic.ID
			a.TopicTitle = topic.Title
		case errors.Is(err, gorm.ErrRecordNotFound):
			a.TopicTitle = title
		default:
			return nil, err
		}
	}
	return a, nil
}

// parseInternalExternal accepts IC/DIS with or without Turkish letters.
func parseInternalExternal(s string) (models.InternalExternal, error) {
	switch strings.ToUpper(strings.NewReplacer("ç", "c", "Ç", "C", "ı", "i", "İ", "I", "ş", "s", "Ş", "S").Replace(s)) {
	case "", "IC":
		return models.Internal, nil
	case "DIS":
		return models.External, nil
	}
	return "", rowErrorf("geçersiz iç/dış eğitim değeri %q", s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// run applies fn to every row in order. Each row is isolated: an error or
// panic becomes a "Satır N" message and the next row runs. Row numbers
// follow the spreadsheet, where row 1 is the header.
func (im *Importer) run(ctx context.Context, actor Actor, entity string, rows []Row, fn func(*gorm.DB, Row) (rowOutcome, error)) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, httpx.BadRequest(httpx.CodeValidation, ErrNoRows.Error())
	}
	if len(rows) > MaxImportRows {
		return nil, httpx.BadRequest(httpx.CodeValidation, ErrTooManyRows.Error())
	}

	// an import runs to completion once started, even if the client goes away
	ctx = context.WithoutCancel(ctx)
	res := &ImportResult{Errors: []string{}}
	tx := im.db.WithContext(ctx)
	for i, row := range rows {
		outcome, err := applyRow(tx, row, fn)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Satır %d: %s", i+2, rowMessage(err)))
			continue
		}
		switch outcome {
		case outcomeCreated:
			res.Created++
		case outcomeUpdated:
			res.Updated++
		case outcomeSkipped:
			res.Skipped++
		}
	}
	res.Message = fmt.Sprintf("%d kayıt eklendi, %d güncellendi, %d atlandı, %d hata", res.Created, res.Updated, res.Skipped, len(res.Errors))

	metrics.RecordImport(entity, res.Created, res.Updated, res.Skipped, len(res.Errors))
	im.audit.Log(ctx, actor.Entry(models.ActionImport, models.EntityImport, nil, nil, map[string]any{
		"type":    entity,
		"total":   len(rows),
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
		"errors":  len(res.Errors),
	}))
	log.Info().
		Str("entity", entity).
		Int("rows", len(rows)).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("import finished")
	return res, nil
}

func applyRow(tx *gorm.DB, row Row, fn func(*gorm.DB, Row) (rowOutcome, error)) (outcome rowOutcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("import row panicked")
			err = rowErrorf("beklenmeyen hata")
		}
	}()
	return fn(tx, row)
}

// rowError is a row failure whose text is safe to show the client.
type rowError string

func (e rowError) Error() string { return string(e) }

func rowErrorf(format string, args ...any) error {
	return rowError(fmt.Sprintf(format, args...))
}

// rowMessage returns the text of a rowError; any other error is reduced
// to its taxonomy message so driver details never reach the client.
func rowMessage(err error) string {
	var re rowError
	if errors.As(err, &re) {
		return string(re)
	}
	return httpx.Classify(err).Message
}
