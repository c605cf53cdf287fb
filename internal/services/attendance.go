package services

import (
	"context"
	"errors"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// RecordInput describes one training session and who attended it.
type RecordInput struct {
	TrainingID       uint                    `json:"trainingId" validate:"required"`
	TopicID          *uint                   `json:"topicId"`
	TrainerID        *uint                   `json:"trainerId"`
	PersonnelIDs     []uint                  `json:"personnelIds" validate:"required,min=1,max=500,dive,required"`
	StartDate        string                  `json:"startDate" validate:"required,date"`
	EndDate          string                  `json:"endDate" validate:"omitempty,date"`
	StartTime        string                  `json:"startTime" validate:"omitempty,clock"`
	EndTime          string                  `json:"endTime" validate:"omitempty,clock"`
	Location         string                  `json:"location" validate:"max=255"`
	DocumentType     string                  `json:"documentType" validate:"max=255"`
	InternalExternal models.InternalExternal `json:"internalExternal" validate:"omitempty,oneof=IC DIS"`
	Description      string                  `json:"description" validate:"max=2000"`
}

// SkippedPersonnel explains why no row was created for a person.
type SkippedPersonnel struct {
	PersonnelID uint   `json:"personnelId"`
	SicilNo     string `json:"sicilNo,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	Reason      string `json:"reason"`
}

type RecordResult struct {
	Created []models.Attendance `json:"created"`
	Skipped []SkippedPersonnel  `json:"skipped"`
}

// UpdateInput holds the editable fields of an attendance row. Nil means
// unchanged.
type UpdateInput struct {
	TrainerID        *uint                    `json:"trainerId"`
	StartDate        *string                  `json:"startDate" validate:"omitempty,date"`
	EndDate          *string                  `json:"endDate" validate:"omitempty,date"`
	StartTime        *string                  `json:"startTime" validate:"omitempty,clock"`
	EndTime          *string                  `json:"endTime" validate:"omitempty,clock"`
	DurationMin      *int                     `json:"durationMin" validate:"omitempty,min=0"`
	Location         *string                  `json:"location" validate:"omitempty,max=255"`
	DocumentType     *string                  `json:"documentType" validate:"omitempty,max=255"`
	InternalExternal *models.InternalExternal `json:"internalExternal" validate:"omitempty,oneof=IC DIS"`
	Description      *string                  `json:"description" validate:"omitempty,max=2000"`
}

const (
	reasonNotFound  = "Personel bulunamadı"
	reasonInactive  = "Personel pasif durumda"
	reasonDuplicate = "Bu eğitim için bu yıl kayıt mevcut"
)

// AttendanceService records and edits attendance.
type AttendanceService struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewAttendanceService(db *gorm.DB, rec audit.Recorder) *AttendanceService {
	if rec == nil {
		rec = audit.Discard{}
	}
	return &AttendanceService{db: db, audit: rec}
}

// Record creates one attendance per personnel for the session. Unknown,
// PASIF and already recorded personnel are skipped with a reason.
func (s *AttendanceService) Record(ctx context.Context, actor Actor, in RecordInput) (*RecordResult, error) {
	db := s.db.WithContext(ctx)

	var training models.Training
	if err := db.First(&training, in.TrainingID).Error; err != nil || training.State.IsEffectivelyDeleted() {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, httpx.NotFound("Eğitim")
	}
	var topic *models.TrainingTopic
	if in.TopicID != nil {
		topic = &models.TrainingTopic{}
		if err := db.Where("id = ? AND training_id = ?", *in.TopicID, training.ID).First(topic).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, httpx.NotFound("Alt başlık")
			}
			return nil, err
		}
	}
	if in.TrainerID != nil {
		var trainer models.Trainer
		if err := db.First(&trainer, *in.TrainerID).Error; err != nil || trainer.State.IsEffectivelyDeleted() {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			return nil, httpx.NotFound("Eğitmen")
		}
	}
	year, _, err := models.PeriodOf(in.StartDate)
	if err != nil {
		return nil, httpx.Validation("Geçersiz başlama tarihi", nil)
	}

	var people []models.Personnel
	if err := db.Where("id IN ?", in.PersonnelIDs).Find(&people).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Personnel, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}

	duration := models.SessionMinutes(in.StartDate, in.StartTime, in.EndDate, in.EndTime, training.DurationMin)
	endDate := in.EndDate
	if endDate == "" {
		endDate = in.StartDate
	}

	res := &RecordResult{Created: []models.Attendance{}, Skipped: []SkippedPersonnel{}}
	seen := make(map[uint]bool, len(in.PersonnelIDs))
	for _, id := range in.PersonnelIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		p, ok := byID[id]
		if !ok {
			res.Skipped = append(res.Skipped, SkippedPersonnel{PersonnelID: id, Reason: reasonNotFound})
			continue
		}
		skip := SkippedPersonnel{PersonnelID: id, SicilNo: p.SicilNo, FullName: p.FullName}
		if p.Status.IsEffectivelyDeleted() {
			skip.Reason = reasonInactive
			res.Skipped = append(res.Skipped, skip)
			continue
		}

		var n int64
		if err := db.Model(&models.Attendance{}).
			Where("personnel_id = ? AND training_id = ? AND year = ?", p.ID, training.ID, year).
			Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			skip.Reason = reasonDuplicate
			res.Skipped = append(res.Skipped, skip)
			continue
		}

		a := models.Attendance{
			PersonnelID:       p.ID,
			TrainingID:        training.ID,
			TrainerID:         in.TrainerID,
			TopicID:           in.TopicID,
			PersonnelSnapshot: models.SnapshotPersonnel(p),
			TrainingSnapshot:  models.SnapshotTraining(training, topic),
			StartDate:         in.StartDate,
			EndDate:           endDate,
			StartTime:         in.StartTime,
			EndTime:           in.EndTime,
			DurationMin:       duration,
			Location:          firstNonEmpty(in.Location, training.DefaultLocation),
			DocumentType:      firstNonEmpty(in.DocumentType, training.DefaultDocumentType),
			InternalExternal:  in.InternalExternal,
			Description:       in.Description,
			CreatedByID:       actor.UserID,
			CreatedByName:     actor.FullName,
		}
		if err := db.Create(&a).Error; err != nil {
			if httpx.IsUniqueViolation(err) {
				skip.Reason = reasonDuplicate
				res.Skipped = append(res.Skipped, skip)
				continue
			}
			return nil, err
		}
		res.Created = append(res.Created, a)
	}

	if len(res.Created) > 0 {
		ids := make([]uint, len(res.Created))
		for i, a := range res.Created {
			ids[i] = a.ID
		}
		s.audit.Log(ctx, actor.Entry(models.ActionCreate, models.EntityAttendance, nil, nil, map[string]any{
			"trainingId":    training.ID,
			"egitimKodu":    training.Code,
			"startDate":     in.StartDate,
			"attendanceIds": ids,
			"skipped":       len(res.Skipped),
		}))
	}
	return res, nil
}

// Update edits a row. Unless DurationMin is given explicitly, duration is
// recomputed from the dates and times when both times are set, and reset to
// the catalog duration when an edit leaves a time empty.
func (s *AttendanceService) Update(ctx context.Context, actor Actor, id uint, in UpdateInput) (*models.Attendance, error) {
	db := s.db.WithContext(ctx)
	var a models.Attendance
	if err := db.First(&a, id).Error; err != nil {
		return nil, err
	}
	before := a

	if in.TrainerID != nil {
		if *in.TrainerID == 0 {
			a.TrainerID = nil
		} else {
			var trainer models.Trainer
			if err := db.First(&trainer, *in.TrainerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, httpx.NotFound("Eğitmen")
				}
				return nil, err
			}
			a.TrainerID = &trainer.ID
		}
	}
	setString(&a.StartDate, in.StartDate)
	setString(&a.EndDate, in.EndDate)
	setString(&a.StartTime, in.StartTime)
	setString(&a.EndTime, in.EndTime)
	setString(&a.Location, in.Location)
	setString(&a.DocumentType, in.DocumentType)
	setString(&a.Description, in.Description)
	if in.InternalExternal != nil {
		a.InternalExternal = *in.InternalExternal
	}
	switch {
	case in.DurationMin != nil:
		a.DurationMin = *in.DurationMin
	case a.StartTime != "" && a.EndTime != "":
		a.DurationMin = models.ComputeDurationMinutes(a.StartDate, a.StartTime, a.EndDate, a.EndTime)
	case in.StartTime != nil || in.EndTime != nil:
		// a clock was cleared; fall back to the catalog duration
		var t models.Training
		if err := db.Select("duration_min").First(&t, a.TrainingID).Error; err != nil {
			return nil, err
		}
		a.DurationMin = t.DurationMin
	}

	if err := db.Save(&a).Error; err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor.Entry(models.ActionUpdate, models.EntityAttendance, audit.ID(a.ID), before, a))
	return &a, nil
}

// Delete removes a row permanently.
func (s *AttendanceService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)
	var a models.Attendance
	if err := db.First(&a, id).Error; err != nil {
		return err
	}
	if err := db.Delete(&a).Error; err != nil {
		return err
	}
	s.audit.Log(ctx, actor.Entry(models.ActionDelete, models.EntityAttendance, audit.ID(a.ID), a, nil))
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
