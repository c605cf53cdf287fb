package db

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions configures the initial administrator. The admin is only
// created when the users table is empty and a password is known.
type SeedOptions struct {
	AdminSicilNo  string
	AdminFullName string
	AdminPassword string
	AllowDevAdmin bool
}

// devAdminPassword is used when AllowDevAdmin is set and no password was configured.
const devAdminPassword = "admin123"

var baseDefinitions = []models.Definition{
	{Kind: models.KindLocation, Name: "Eğitim Salonu"},
	{Kind: models.KindLocation, Name: "Saha"},
	{Kind: models.KindLocation, Name: "Online"},
	{Kind: models.KindDocumentType, Name: "Katılım Belgesi"},
	{Kind: models.KindDocumentType, Name: "Sertifika"},
	{Kind: models.KindPersonnelGroup, Name: "Genel"},
}

// Seed inserts reference data and the initial admin. It is idempotent.
func Seed(db *gorm.DB, opts SeedOptions) error {
	if err := seedDefinitions(db); err != nil {
		return err
	}
	return seedAdmin(db, opts)
}

func seedDefinitions(db *gorm.DB) error {
	for _, d := range baseDefinitions {
		def := d
		if err := db.Where("kind = ? AND name = ?", def.Kind, def.Name).FirstOrCreate(&def).Error; err != nil {
			return fmt.Errorf("seed definition %s/%s: %w", d.Kind, d.Name, err)
		}
	}
	return nil
}

func seedAdmin(db *gorm.DB, opts SeedOptions) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	password := opts.AdminPassword
	if password == "" {
		if !opts.AllowDevAdmin {
			log.Warn().Msg("no users and ADMIN_PASSWORD unset; skipping admin seed")
			return nil
		}
		password = devAdminPassword
		log.Warn().Str("sicil_no", opts.AdminSicilNo).Msg("seeding dev admin with the default password")
	}
	if opts.AdminSicilNo == "" {
		return errors.New("seed admin: empty registration number")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		SicilNo:      opts.AdminSicilNo,
		FullName:     opts.AdminFullName,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if admin.FullName == "" {
		admin.FullName = "Sistem Yöneticisi"
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("sicil_no", admin.SicilNo).Msg("initial admin created")
	return nil
}
