package services

import (
	"context"

	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// ResyncResult counts the rows a definition rename rewrote.
type ResyncResult struct {
	Trainings   int64 `json:"trainings"`
	Personnel   int64 `json:"personnel"`
	Attendances int64 `json:"attendances"`
}

// Definitions manages the reference lists.
type Definitions struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewDefinitions(db *gorm.DB, rec audit.Recorder) *Definitions {
	if rec == nil {
		rec = audit.Discard{}
	}
	return &Definitions{db: db, audit: rec}
}

// Rename changes a definition's name. Rows refer to definitions by name, so
// they keep the old one unless resync is set, in which case live rows are
// rewritten in the same transaction. Attendance personnel snapshots are
// never touched; only attendance location and document type follow.
func (s *Definitions) Rename(ctx context.Context, actor Actor, def *models.Definition, newName string, resync bool) (*ResyncResult, error) {
	oldName := def.Name
	before := *def
	res := &ResyncResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(def).Update("name", newName).Error; err != nil {
			return err
		}
		if !resync || oldName == newName {
			return nil
		}
		var err error
		switch def.Kind {
		case models.KindLocation:
			if res.Trainings, err = rewrite(tx, &models.Training{}, "default_location", oldName, newName); err != nil {
				return err
			}
			res.Attendances, err = rewrite(tx, &models.Attendance{}, "location", oldName, newName)
		case models.KindDocumentType:
			if res.Trainings, err = rewrite(tx, &models.Training{}, "default_document_type", oldName, newName); err != nil {
				return err
			}
			res.Attendances, err = rewrite(tx, &models.Attendance{}, "document_type", oldName, newName)
		case models.KindPersonnelGroup:
			res.Personnel, err = rewrite(tx, &models.Personnel{}, "grup", oldName, newName)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	def.Name = newName

	entity := models.EntityDefinition
	if def.Kind == models.KindPersonnelGroup {
		entity = models.EntityPersonnelGroup
	}
	s.audit.Log(ctx, actor.Entry(models.ActionUpdate, entity, audit.ID(def.ID), before, map[string]any{
		"definition": def,
		"resync":     resync,
		"rewritten":  res,
	}))
	return res, nil
}

func rewrite(tx *gorm.DB, model any, column, from, to string) (int64, error) {
	r := tx.Model(model).Where(column+" = ?", from).UpdateColumn(column, to)
	return r.RowsAffected, r.Error
}
