package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// MaxDetailRows caps the detail report. Callers narrow the filters to see more.
const MaxDetailRows = 2000

// Reports runs the read-only report queries over attendance.
type Reports struct {
	db *gorm.DB
}

func NewReports(db *gorm.DB) *Reports { return &Reports{db: db} }

type MonthlyReport struct {
	Year         int                 `json:"year"`
	Month        int                 `json:"month"`
	Rows         []models.Attendance `json:"rows"`
	TotalCount   int64               `json:"total_count"`
	TotalMinutes int64               `json:"total_minutes"`
}

// Monthly lists the attendance of one month ordered by date, time and name.
func (s *Reports) Monthly(ctx context.Context, year, month int) (*MonthlyReport, error) {
	q := s.db.WithContext(ctx).Model(&models.Attendance{}).Where("year = ? AND month = ?", year, month)

	rep := &MonthlyReport{Year: year, Month: month, Rows: []models.Attendance{}}
	if err := q.Session(&gorm.Session{}).
		Order("start_date ASC, start_time ASC, ad_soyad ASC, id ASC").
		Find(&rep.Rows).Error; err != nil {
		return nil, fmt.Errorf("monthly rows: %w", err)
	}
	var totals struct {
		Count   int64
		Minutes int64
	}
	if err := q.Session(&gorm.Session{}).
		Select("COUNT(*) AS count, COALESCE(SUM(duration_min), 0) AS minutes").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	rep.TotalCount, rep.TotalMinutes = totals.Count, totals.Minutes
	return rep, nil
}

type YearlyRow struct {
	TrainingID         uint                    `json:"training_id"`
	Code               string                  `json:"egitim_kodu"`
	Name               string                  `json:"egitim_adi"`
	Category           models.TrainingCategory `json:"category"`
	DurationMin        int                     `json:"duration_min"`
	Months             [12]int64               `json:"months"`
	TotalParticipation int64                   `json:"total_participation"`
	TotalMinutes       int64                   `json:"total_minutes"`
}

type YearlyReport struct {
	Year                    int         `json:"year"`
	Rows                    []YearlyRow `json:"rows"`
	MonthTotals             [12]int64   `json:"month_totals"`
	GrandTotalParticipation int64       `json:"grand_total_participation"`
	GrandTotalMinutes       int64       `json:"grand_total_minutes"`
}

// Yearly pivots attendance counts per active training and month. Row
// minutes are count times the catalog duration, not the sum of the
// per-record durations the monthly report uses.
func (s *Reports) Yearly(ctx context.Context, year int) (*YearlyReport, error) {
	db := s.db.WithContext(ctx)

	var trainings []models.Training
	if err := db.Where("state = ?", models.StateActive).
		Order(orderCase("category", models.CategoryOrder)).
		Order("code ASC").
		Find(&trainings).Error; err != nil {
		return nil, fmt.Errorf("yearly trainings: %w", err)
	}

	var cells []struct {
		TrainingID uint
		Month      int
		Count      int64
	}
	if err := db.Model(&models.Attendance{}).
		Select("training_id, month, COUNT(*) AS count").
		Where("year = ?", year).
		Group("training_id, month").
		Scan(&cells).Error; err != nil {
		return nil, fmt.Errorf("yearly counts: %w", err)
	}
	counts := make(map[uint]*[12]int64, len(trainings))
	for _, c := range cells {
		if c.Month < 1 || c.Month > 12 {
			continue
		}
		m, ok := counts[c.TrainingID]
		if !ok {
			m = new([12]int64)
			counts[c.TrainingID] = m
		}
		m[c.Month-1] += c.Count
	}

	rep := &YearlyReport{Year: year, Rows: make([]YearlyRow, 0, len(trainings))}
	for _, t := range trainings {
		row := YearlyRow{
			TrainingID:  t.ID,
			Code:        t.Code,
			Name:        t.Name,
			Category:    t.Category,
			DurationMin: t.DurationMin,
		}
		if m, ok := counts[t.ID]; ok {
			row.Months = *m
		}
		for i, n := range row.Months {
			row.TotalParticipation += n
			rep.MonthTotals[i] += n
		}
		row.TotalMinutes = row.TotalParticipation * int64(t.DurationMin)
		rep.GrandTotalParticipation += row.TotalParticipation
		rep.GrandTotalMinutes += row.TotalMinutes
		rep.Rows = append(rep.Rows, row)
	}
	return rep, nil
}

// DetailFilter narrows the detail report. Empty fields are ignored; dates are
// inclusive YYYY-MM-DD bounds.
type DetailFilter struct {
	Search       string                 `json:"search" validate:"omitempty,max=100"`
	TrainingCode string                 `json:"trainingCode" validate:"omitempty,max=50"`
	StartDate    string                 `json:"startDate" validate:"omitempty,date"`
	EndDate      string                 `json:"endDate" validate:"omitempty,date"`
	Group        string                 `json:"group" validate:"omitempty,max=100"`
	Status       models.PersonnelStatus `json:"status" validate:"omitempty,oneof=CALISAN IZINLI PASIF AYRILDI"`
}

type DetailReport struct {
	Rows      []models.Attendance `json:"rows"`
	Count     int                 `json:"count"`
	Limit     int                 `json:"limit"`
	Truncated bool                `json:"truncated"`
}

// Detail filters attendance and sorts by status priority, date descending
// and name. At most MaxDetailRows rows are returned.
func (s *Reports) Detail(ctx context.Context, f DetailFilter) (*DetailReport, error) {
	q := s.db.WithContext(ctx).Model(&models.Attendance{})
	if f.Search != "" {
		q = q.Where(`search_key LIKE ? ESCAPE '\'`, LikePattern(f.Search))
	}
	if f.TrainingCode != "" {
		q = q.Where(`code_key LIKE ? ESCAPE '\'`, LikePattern(f.TrainingCode))
	}
	if f.StartDate != "" {
		q = q.Where("start_date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("start_date <= ?", f.EndDate)
	}
	if f.Group != "" {
		q = q.Where("grup = ?", f.Group)
	}
	if f.Status != "" {
		q = q.Where("personel_durumu = ?", f.Status)
	}

	rows := []models.Attendance{}
	if err := q.Order(orderCase("personel_durumu", models.StatusOrder)).
		Order("start_date DESC").
		Order("ad_soyad ASC").
		Order("id ASC").
		Limit(MaxDetailRows + 1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("detail rows: %w", err)
	}
	rep := &DetailReport{Limit: MaxDetailRows}
	if len(rows) > MaxDetailRows {
		rows = rows[:MaxDetailRows]
		rep.Truncated = true
	}
	rep.Rows, rep.Count = rows, len(rows)
	return rep, nil
}

// orderCase renders a CASE expression ranking column by its position in
// order; other values rank last. The values are package constants.
func orderCase[T ~string](column string, order []T) string {
	var b strings.Builder
	b.WriteString("CASE " + column)
	for i, v := range order {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(order))
	return b.String()
}

// LikePattern folds s the way search keys are folded, escapes LIKE
// wildcards with a backslash and wraps it for a substring match.
func LikePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(models.SearchFold(s))
	return "%" + s + "%"
}
