package audit

import (
	"context"

	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// GormStore persists audit rows to the audit_logs table. It only inserts
// and reads.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) Save(ctx context.Context, row *models.AuditLog) error {
	return s.DB.WithContext(ctx).Create(row).Error
}

// Filter narrows List. Zero values mean no filter.
type Filter struct {
	EntityType models.AuditEntity
	Action     models.AuditAction
	UserID     uint
	Page       int
	Limit      int
}

// List returns one page of entries, newest first, and the total count.
func (s *GormStore) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page < 1 {
		f.Page = 1
	}
	var rows []models.AuditLog
	err := q.Order("created_at DESC, id DESC").Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&rows).Error
	return rows, total, err
}
