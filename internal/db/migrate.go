package db

import (
	"finance_tracker/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Migrate creates or updates the schema and seeds the demo accounts
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Transaction{})
	if err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	if err := SeedDemoUsers(db); err != nil {
		logrus.Fatalf("seeding demo users failed: %v", err)
	}
	logrus.Info("Migration completed.")
}

// SeedDemoUsers creates one account per role for local evaluation. Existing
// accounts are left untouched, so reruns are safe.
func SeedDemoUsers(db *gorm.DB) error {
	demos := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"Admin User", "admin@demo.com", "admin123", domain.RoleAdmin},
		{"Regular User", "user@demo.com", "user123", domain.RoleUser},
		{"Read Only User", "readonly@demo.com", "readonly123", domain.RoleReadOnly},
	}
	for _, d := range demos {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := domain.User{Name: d.name, Email: d.email, Password: string(hash), Role: d.role}
		// Insert only when the email is not taken yet
		if err := db.Where(domain.User{Email: d.email}).
			Attrs(user).FirstOrCreate(&domain.User{}).Error; err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"email": d.email, "role": d.role}).Info("Demo user ready")
	}
	return nil
}
