package database

import (
	"errors"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fixedttl-cache/internal/errs"
	"fixedttl-cache/internal/models"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Open opens the SQLite database at dsn and runs migrations.
// glebarez/sqlite is a pure Go implementation, no CGO required.
func Open(dsn, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite db")
	}
	if dsn == ":memory:" {
		// Every pooled connection to ":memory:" would get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errs.Wrap(err, "get sql db")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database connected and migrated", zap.String("dsn", dsn))
	return db, nil
}

// Migrate creates or updates the tables used by the application.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Entry{}); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}
	return nil
}

// SeedAdmin creates the operator account if it does not exist yet.
// An existing account keeps its password.
func SeedAdmin(db *gorm.DB, username, password string) (models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).Take(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errs.Wrap(err, "query admin user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errs.Wrap(err, "hash admin password")
	}

	user = models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, errs.Wrap(err, "create admin user")
	}
	return user, nil
}

// Authenticate returns the user matching username and password.
func Authenticate(db *gorm.DB, username, password string) (models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, errs.Wrap(err, "query user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	return errs.Wrap(sqlDB.Close(), "close sql db")
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
