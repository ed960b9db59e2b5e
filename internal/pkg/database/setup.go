package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/EventSite/app/models"
	"github.com/ManuelReschke/EventSite/internal/pkg/env"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// Settings describes how to reach the database.
type Settings struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// SettingsFromEnv reads DB_* variables. DB_PORT defaults per driver.
func SettingsFromEnv() Settings {
	driver := env.GetEnv("DB_DRIVER", DriverMySQL)
	defaultPort := "3306"
	if driver == DriverPostgres {
		defaultPort = "5432"
	}
	return Settings{
		Driver:   driver,
		Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:     env.GetEnv("DB_PORT", defaultPort),
		User:     env.GetEnv("DB_USER", ""),
		Password: env.GetEnv("DB_PASSWORD", ""),
		Name:     env.GetEnv("DB_NAME", ""),
	}
}

// DSN builds the driver specific connection string.
func (s Settings) DSN() string {
	if s.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			s.Host, s.User, s.Password, s.Name, s.Port)
	}
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		s.User, s.Password, s.Host, s.Port, s.Name)
}

// Dialector returns the gorm dialector for the configured driver.
func (s Settings) Dialector() (gorm.Dialector, error) {
	switch s.Driver {
	case DriverMySQL:
		return mysql.New(mysql.Config{
			DSN:                       s.DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), nil
	case DriverPostgres:
		return postgres.New(postgres.Config{DSN: s.DSN()}), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.Driver)
	}
}

// Migrate creates or updates the tables the site needs.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.QuoteSubmission{},
		&models.Page{},
		&models.Testimonial{},
	)
}

// SetupDatabase connects with retries and migrates. It panics when the
// database stays unreachable, the server cannot run without it.
func SetupDatabase() {
	settings := SettingsFromEnv()
	dialector, err := settings.Dialector()
	if err != nil {
		panic(err)
	}

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if env.IsDev() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			if err = Migrate(DB); err != nil {
				panic(fmt.Errorf("auto migrate: %w", err))
			}
			log.WithFields(log.Fields{"driver": settings.Driver, "host": settings.Host}).Info("[Database] Connected")
			return
		}

		log.Warnf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	panic(err)
}

// GetDB returns the connection opened by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// Close releases the underlying pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
