package database

import (
	"errors"
	"fmt"
	"strings"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/models"
	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const sqlitePrefix = "sqlite://"

// ConnectDB opens PostgreSQL, or SQLite when the DSN starts with sqlite://
// (local development and tests).
func ConnectDB(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	gormConfig := &gorm.Config{
		PrepareStmt:                              false,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	isSQLite := strings.HasPrefix(dsn, sqlitePrefix)
	if isSQLite {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	DB = db
	log.WithField("driver", db.Dialector.Name()).Info("✅ Database connected successfully")
	return nil
}

func Migrate() error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.TokenBalance{},
		&models.TokenPack{},
		&models.Session{},
		&models.Answer{},
		&models.Essay{},
		&models.Transaction{},
		&models.ReferralCode{},
		&models.ReferralUser{},
		&models.ReferralMilestone{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("✅ Database migration successful")
	return nil
}

func SeedAdmin(s *config.Settings) error {
	if s.AdminEmail == "" || s.AdminPassword == "" {
		log.Info("Admin seed skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set.")
		return nil
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", s.AdminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if count > 0 {
		log.Info("Admin user already exists.")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(s.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	hashed := string(hashedPassword)

	return DB.Transaction(func(tx *gorm.DB) error {
		admin := models.User{
			Name:          s.AdminName,
			Email:         s.AdminEmail,
			Password:      &hashed,
			Role:          models.RoleAdmin,
			Language:      "en",
			AgreedToTerms: true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		if err := tx.Create(&models.TokenBalance{UserID: admin.ID}).Error; err != nil {
			return err
		}
		log.Info("✅ Admin user seeded successfully")
		return nil
	})
}

var defaultPacks = []models.TokenPack{
	{Name: "Starter", Tokens: 10, Price: 15000, IsActive: true},
	{Name: "Regular", Tokens: 30, Price: 40000, IsActive: true},
	{Name: "Intensive", Tokens: 100, Price: 120000, IsActive: true},
}

// SeedTokenPacks inserts the default catalogue when no pack exists yet.
func SeedTokenPacks() error {
	var count int64
	if err := DB.Model(&models.TokenPack{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	packs := make([]models.TokenPack, len(defaultPacks))
	copy(packs, defaultPacks)
	if err := DB.Create(&packs).Error; err != nil {
		return fmt.Errorf("failed to seed token packs: %w", err)
	}
	log.WithField("count", len(packs)).Info("✅ Token packs seeded")
	return nil
}
