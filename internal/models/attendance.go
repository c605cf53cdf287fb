package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Date and clock layouts stored on attendance rows.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// PersonnelSnapshot is the personnel state copied onto an attendance row when
// it is created. It is never resynchronised with the live Personnel record,
// so historical reports show the person as they were at training time.
type PersonnelSnapshot struct {
	SicilNo    string          `gorm:"column:sicil_no;size:50;index" json:"sicil_no"`
	FullName   string          `gorm:"column:ad_soyad;size:255;index" json:"ad_soyad"`
	TcKimlikNo string          `gorm:"column:tc_kimlik_no;size:11" json:"tc_kimlik_no,omitempty"`
	Gorevi     string          `gorm:"column:gorevi;size:255" json:"gorevi,omitempty"`
	ProjeAdi   string          `gorm:"column:proje_adi;size:255" json:"proje_adi,omitempty"`
	Grup       string          `gorm:"column:grup;size:100;index" json:"grup,omitempty"`
	Status     PersonnelStatus `gorm:"column:personel_durumu;size:20;index" json:"personel_durumu"`
}

// TrainingSnapshot is the catalog state copied onto an attendance row.
type TrainingSnapshot struct {
	Code       string `gorm:"column:egitim_kodu;size:50;index" json:"egitim_kodu"`
	Name       string `gorm:"column:egitim_adi;size:255" json:"egitim_adi"`
	TopicTitle string `gorm:"column:alt_baslik;size:255" json:"alt_baslik,omitempty"`
}

// SnapshotPersonnel copies the fields an attendance row keeps.
func SnapshotPersonnel(p Personnel) PersonnelSnapshot {
	return PersonnelSnapshot{
		SicilNo:    p.SicilNo,
		FullName:   p.FullName,
		TcKimlikNo: p.TcKimlikNo,
		Gorevi:     p.Gorevi,
		ProjeAdi:   p.ProjeAdi,
		Grup:       p.Grup,
		Status:     p.Status,
	}
}

// SnapshotTraining copies the training (and optional topic) identity.
func SnapshotTraining(t Training, topic *TrainingTopic) TrainingSnapshot {
	s := TrainingSnapshot{Code: t.Code, Name: t.Name}
	if topic != nil {
		s.TopicTitle = topic.Title
	}
	return s
}

// Attendance records one person attending one training session. At most one
// row exists per (personnel, training, year).
type Attendance struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PersonnelID uint      `gorm:"not null;uniqueIndex:idx_attendance_unique" json:"personnel_id"`
	TrainingID  uint      `gorm:"not null;uniqueIndex:idx_attendance_unique" json:"training_id"`
	Year        int       `gorm:"not null;uniqueIndex:idx_attendance_unique;index:idx_attendance_period" json:"yil"`
	Month       int       `gorm:"not null;index:idx_attendance_period" json:"ay"`
	TrainerID   *uint     `gorm:"index" json:"egitmen_id,omitempty"`
	TopicID     *uint     `json:"alt_baslik_id,omitempty"`

	PersonnelSnapshot
	TrainingSnapshot

	StartDate        string           `gorm:"size:10;not null;index" json:"baslama_tarihi"`
	EndDate          string           `gorm:"size:10" json:"bitis_tarihi,omitempty"`
	StartTime        string           `gorm:"size:5" json:"baslama_saati,omitempty"`
	EndTime          string           `gorm:"size:5" json:"bitis_saati,omitempty"`
	DurationMin      int              `gorm:"not null;default:0" json:"egitim_suresi_dk"`
	Location         string           `gorm:"size:255" json:"egitim_yeri,omitempty"`
	InternalExternal InternalExternal `gorm:"size:3;not null;default:IC" json:"ic_dis_egitim"`
	DocumentType     string           `gorm:"size:255" json:"belge_tipi,omitempty"`
	Description      string           `gorm:"type:text" json:"aciklama,omitempty"`
	CreatedByID      uint             `json:"kayit_yapan_id"`
	CreatedByName    string           `gorm:"size:255" json:"kayit_yapan,omitempty"`

	// Folded copies of the snapshot fields used by substring search.
	SearchKey string `gorm:"size:320;index" json:"-"`
	CodeKey   string `gorm:"size:64;index" json:"-"`
}

// BeforeSave derives Year and Month from StartDate and refreshes the
// search keys.
func (a *Attendance) BeforeSave(*gorm.DB) error {
	year, month, err := PeriodOf(a.StartDate)
	if err != nil {
		return err
	}
	a.Year, a.Month = year, month
	a.SearchKey = SearchKey(a.SicilNo, a.FullName)
	a.CodeKey = SearchFold(a.Code)
	if a.InternalExternal == "" {
		a.InternalExternal = Internal
	}
	return nil
}

// PeriodOf returns the year and month of a YYYY-MM-DD date.
func PeriodOf(date string) (int, int, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Year(), int(t.Month()), nil
}

// ComputeDurationMinutes returns the whole minutes between start and end,
// floored at zero. An empty end date means the start date, an empty clock
// means midnight. Unparsable input yields 0.
func ComputeDurationMinutes(startDate, startTime, endDate, endTime string) int {
	if endDate == "" {
		endDate = startDate
	}
	start, err := parseDateTime(startDate, startTime)
	if err != nil {
		return 0
	}
	end, err := parseDateTime(endDate, endTime)
	if err != nil {
		return 0
	}
	mins := int(end.Sub(start) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}

// SessionMinutes is the duration of a session: the span between start and
// end when both clocks are set, otherwise the catalog duration.
func SessionMinutes(startDate, startTime, endDate, endTime string, catalog int) int {
	if startTime == "" || endTime == "" {
		return catalog
	}
	return ComputeDurationMinutes(startDate, startTime, endDate, endTime)
}

func parseDateTime(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	return time.Parse(DateLayout+" "+ClockLayout, date+" "+clock)
}
