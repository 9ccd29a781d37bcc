package config

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"saccolink/internal/adapters/persistence/models"
	"saccolink/internal/pkg/password"
)

// regionSeed maps seed regions to their districts
var regionSeed = map[string][]string{
	"Central": {"Kampala", "Wakiso", "Mukono", "Masaka"},
	"Eastern": {"Jinja", "Mbale", "Soroti", "Tororo"},
	"Northern": {"Gulu", "Lira", "Arua", "Kitgum"},
	"Western": {"Mbarara", "Fort Portal", "Kabale", "Hoima"},
}

// Seed bootstraps the system admin account and the region/district set.
// It is idempotent: existing rows are left alone.
func Seed(db *gorm.DB, cfg *Config) error {
	if err := seedSystemAdmin(db, cfg); err != nil {
		return err
	}
	return seedRegions(db)
}

func seedSystemAdmin(db *gorm.DB, cfg *Config) error {
	var existing models.User
	err := db.Where("is_system_admin = ?", true).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := password.Hash(cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:      cfg.Seed.AdminUsername,
		Email:         cfg.Seed.AdminEmail,
		Password:      hashed,
		IsSystemAdmin: true,
		IsActive:      true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded system admin account: %s", admin.Username)
	return nil
}

func seedRegions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Region{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for name, districts := range regionSeed {
		region := &models.Region{Name: name, IsActive: true}
		if err := db.Create(region).Error; err != nil {
			return err
		}
		for _, d := range districts {
			district := &models.District{Name: d, RegionID: region.ID, IsActive: true}
			if err := db.Create(district).Error; err != nil {
				return err
			}
		}
	}

	log.Printf("✅ Seeded %d regions with districts", len(regionSeed))
	return nil
}
