package models

import (
	"time"

	"gorm.io/gorm"
)

// Personnel is a staff member keyed by registration number (sicil no).
// Personnel rows are never hard deleted; delete sets status PASIF.
type Personnel struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	SicilNo    string          `gorm:"uniqueIndex;size:50;not null" json:"sicilNo"`
	FullName   string          `gorm:"size:255;not null;index" json:"fullName"`
	TcKimlikNo string          `gorm:"size:11" json:"tcKimlikNo,omitempty"`
	Gorevi     string          `gorm:"size:255" json:"gorevi,omitempty"`
	ProjeAdi   string          `gorm:"size:255" json:"projeAdi,omitempty"`
	Grup       string          `gorm:"size:100;index" json:"grup,omitempty"`
	Status     PersonnelStatus `gorm:"size:20;not null;default:CALISAN;index" json:"personelDurumu"`
	SearchKey  string          `gorm:"size:320;index" json:"-"`
}

func (p *Personnel) BeforeSave(*gorm.DB) error {
	if p.Status == "" {
		p.Status = StatusCalisan
	}
	p.SearchKey = SearchKey(p.SicilNo, p.FullName)
	return nil
}

// Training is a catalog entry. DurationMin is the catalog duration used by
// the yearly report and by catalog-duration imports.
type Training struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	Code                string           `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Name                string           `gorm:"size:255;not null" json:"name"`
	DurationMin         int              `gorm:"not null;default:0" json:"durationMin"`
	Category            TrainingCategory `gorm:"size:20;not null;default:DIGER;index" json:"category"`
	DefaultLocation     string           `gorm:"size:255" json:"defaultLocation,omitempty"`
	DefaultDocumentType string           `gorm:"size:255" json:"defaultDocumentType,omitempty"`
	State               Lifecycle        `gorm:"size:20;not null;default:ACTIVE;index" json:"state"`
	IsActive            bool             `gorm:"-" json:"isActive"`
	Topics              []TrainingTopic  `gorm:"constraint:OnDelete:CASCADE" json:"topics,omitempty"`
	SearchKey           string           `gorm:"size:320;index" json:"-"`
}

func (t *Training) BeforeSave(*gorm.DB) error {
	t.State = t.State.orDefault()
	if t.Category == "" {
		t.Category = CategoryDiger
	}
	t.IsActive = !t.State.IsEffectivelyDeleted()
	t.SearchKey = SearchKey(t.Code, t.Name)
	return nil
}

func (t *Training) AfterFind(*gorm.DB) error {
	t.IsActive = !t.State.IsEffectivelyDeleted()
	return nil
}

// TrainingTopic is an ordered sub item of a training. Topics are hard deleted.
type TrainingTopic struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	TrainingID uint      `gorm:"index;not null" json:"trainingId"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	OrderNo    int       `gorm:"not null;default:0" json:"orderNo"`
}

// Trainer is a roster entry keyed by registration number.
type Trainer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	SicilNo   string    `gorm:"uniqueIndex;size:50;not null" json:"sicilNo"`
	FullName  string    `gorm:"size:255;not null" json:"fullName"`
	State     Lifecycle `gorm:"size:20;not null;default:ACTIVE;index" json:"state"`
	IsActive  bool      `gorm:"-" json:"isActive"`
	SearchKey string    `gorm:"size:320;index" json:"-"`
}

func (t *Trainer) BeforeSave(*gorm.DB) error {
	t.State = t.State.orDefault()
	t.IsActive = !t.State.IsEffectivelyDeleted()
	t.SearchKey = SearchKey(t.SicilNo, t.FullName)
	return nil
}

func (t *Trainer) AfterFind(*gorm.DB) error {
	t.IsActive = !t.State.IsEffectivelyDeleted()
	return nil
}

// Definition is an entry of a reference list (location, document type,
// personnel group). Other rows refer to definitions by name, not by key.
type Definition struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Kind      DefinitionKind `gorm:"size:30;not null;uniqueIndex:idx_definition_kind_name" json:"kind"`
	Name      string         `gorm:"size:255;not null;uniqueIndex:idx_definition_kind_name" json:"name"`
	State     Lifecycle      `gorm:"size:20;not null;default:ACTIVE;index" json:"state"`
	IsActive  bool           `gorm:"-" json:"isActive"`
}

func (d *Definition) BeforeSave(*gorm.DB) error {
	d.State = d.State.orDefault()
	d.IsActive = !d.State.IsEffectivelyDeleted()
	return nil
}

func (d *Definition) AfterFind(*gorm.DB) error {
	d.IsActive = !d.State.IsEffectivelyDeleted()
	return nil
}

// AuditLog is an append-only change record.
type AuditLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time   `gorm:"index" json:"createdAt"`
	UserID     uint        `gorm:"index" json:"userId"`
	UserRole   string      `gorm:"size:20" json:"userRole"`
	Action     AuditAction `gorm:"size:20;not null;index" json:"actionType"`
	EntityType AuditEntity `gorm:"size:30;not null;index" json:"entityType"`
	EntityID   *uint       `json:"entityId,omitempty"`
	OldValue   string      `gorm:"type:text" json:"oldValue,omitempty"`
	NewValue   string      `gorm:"type:text" json:"newValue,omitempty"`
	IP         string      `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent  string      `gorm:"size:512" json:"userAgent,omitempty"`
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{},
		&Personnel{},
		&Training{},
		&TrainingTopic{},
		&Trainer{},
		&Definition{},
		&Attendance{},
		&AuditLog{},
	}
}
