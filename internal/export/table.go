// Package export renders reports as Excel workbooks and PDF documents.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/uclergnlts/tav-egitim/internal/models"
	"github.com/uclergnlts/tav-egitim/internal/services"
)

// Format is an export file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "xlsx", "excel" and "pdf", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename returns base with the format's extension.
func (f Format) Filename(base string) string { return base + "." + string(f) }

// Table is a report flattened for rendering. Widths are relative column
// weights; Footer, when set, is a totals row.
type Table struct {
	Title   string
	Sheet   string
	Headers []string
	Widths  []int
	Rows    [][]any
	Footer  []any
}

// Render writes t in the given format.
func Render(f Format, t Table) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return Excel(t)
	case FormatPDF:
		return PDF(t)
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

var monthNames = [12]string{"Oca", "Şub", "Mar", "Nis", "May", "Haz", "Tem", "Ağu", "Eyl", "Eki", "Kas", "Ara"}

// MonthlyTable flattens the monthly report.
func MonthlyTable(rep *services.MonthlyReport) Table {
	t := Table{
		Title:   fmt.Sprintf("Aylık Eğitim Raporu %02d/%d", rep.Month, rep.Year),
		Sheet:   "Aylık",
		Headers: []string{"Sicil No", "Ad Soyad", "Grup", "Eğitim Kodu", "Eğitim Adı", "Tarih", "Saat", "Süre (dk)", "Yer", "İç/Dış"},
		Widths:  []int{2, 4, 2, 2, 4, 2, 2, 2, 3, 1},
	}
	for _, a := range rep.Rows {
		t.Rows = append(t.Rows, []any{
			a.SicilNo, a.FullName, a.Grup, a.Code, a.Name,
			a.StartDate, clockRange(a), a.DurationMin, a.Location, string(a.InternalExternal),
		})
	}
	t.Footer = []any{"Toplam", fmt.Sprintf("%d kayıt", rep.TotalCount), "", "", "", "", "", rep.TotalMinutes, "", ""}
	return t
}

// YearlyTable flattens the yearly pivot.
func YearlyTable(rep *services.YearlyReport) Table {
	t := Table{
		Title:   fmt.Sprintf("Yıllık Eğitim Raporu %d", rep.Year),
		Sheet:   "Yıllık",
		Headers: append(append([]string{"Kod", "Eğitim", "Kategori", "Süre (dk)"}, monthNames[:]...), "Toplam", "Toplam (dk)"),
		Widths:  []int{3, 6, 3, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 3},
	}
	for _, r := range rep.Rows {
		row := []any{r.Code, r.Name, string(r.Category), r.DurationMin}
		for _, n := range r.Months {
			row = append(row, n)
		}
		t.Rows = append(t.Rows, append(row, r.TotalParticipation, r.TotalMinutes))
	}
	footer := []any{"Toplam", "", "", ""}
	for _, n := range rep.MonthTotals {
		footer = append(footer, n)
	}
	t.Footer = append(footer, rep.GrandTotalParticipation, rep.GrandTotalMinutes)
	return t
}

// DetailTable flattens the detail report.
func DetailTable(rep *services.DetailReport) Table {
	t := Table{
		Title:   "Detaylı Eğitim Raporu",
		Sheet:   "Detay",
		Headers: []string{"Sicil No", "Ad Soyad", "Durum", "Görevi", "Proje", "Grup", "Eğitim Kodu", "Eğitim Adı", "Tarih", "Süre (dk)"},
		Widths:  []int{2, 4, 2, 3, 3, 2, 2, 4, 2, 2},
	}
	for _, a := range rep.Rows {
		t.Rows = append(t.Rows, []any{
			a.SicilNo, a.FullName, string(a.Status), a.Gorevi, a.ProjeAdi, a.Grup,
			a.Code, a.Name, a.StartDate, a.DurationMin,
		})
	}
	if rep.Truncated {
		t.Title += fmt.Sprintf(" (ilk %d kayıt)", rep.Limit)
	}
	return t
}

func clockRange(a models.Attendance) string {
	switch {
	case a.StartTime != "" && a.EndTime != "":
		return a.StartTime + "-" + a.EndTime
	case a.StartTime != "":
		return a.StartTime
	}
	return ""
}

// cellText formats a value for text-only renderers.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}
