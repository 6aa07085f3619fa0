package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate -> AutoMigrate semua model
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Table{},
		&models.Reservation{},
		&models.RefillRequest{},
		&models.CustomerTimer{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed")
	return nil
}

type SeedOptions struct {
	// Tables -> jumlah meja awal (T01, T02, ...), hanya jika belum ada meja
	Tables        int
	AdminEmail    string
	AdminPassword string
}

// Seed idempotent: aman dipanggil setiap startup
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) error {
	db = db.WithContext(ctx)

	if opts.Tables > 0 {
		var count int64
		if err := db.Model(&models.Table{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count tables: %w", err)
		}
		if count == 0 {
			tables := make([]models.Table, 0, opts.Tables)
			for i := 1; i <= opts.Tables; i++ {
				tables = append(tables, models.Table{
					TableNumber: i,
					TableCode:   fmt.Sprintf("T%02d", i),
					Capacity:    4,
					Status:      models.TableStatusAvailable,
				})
			}
			if err := db.Create(&tables).Error; err != nil {
				return fmt.Errorf("seed tables: %w", err)
			}
			utils.InfoLogger.WithField("count", len(tables)).Info("Seeded tables")
		}
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}

	var admin models.User
	err := db.Where("email = ?", opts.AdminEmail).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin = models.User{
		Name:     "Administrator",
		Email:    opts.AdminEmail,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	utils.InfoLogger.WithField("email", admin.Email).Info("Seeded admin user")
	return nil
}
