package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"

	"github.com/ManuelReschke/EventSite/internal/pkg/database"
	"github.com/ManuelReschke/EventSite/internal/pkg/env"
	"github.com/ManuelReschke/EventSite/internal/pkg/logger"
)

func main() {
	env.SetupEnvFile()
	logger.Setup(env.IsDev(), env.GetEnv("LOG_LEVEL", "info"))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	settings := database.SettingsFromEnv()
	sourceURL, dbURL, err := migrationURLs(settings)
	if err != nil {
		log.Fatal(err)
	}

	log.Infof("Connecting to database: %s@%s:%s/%s (%s)", settings.User, settings.Host, settings.Port, settings.Name, settings.Driver)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		log.Fatalf("Failed to initialise migrations: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Errorf("Failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info("No changes: database is up to date")
		case err != nil:
			log.Fatalf("Failed to apply migrations: %v", err)
		default:
			log.Info("Migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Failed to roll back the last migration: %v", err)
		}
		log.Info("Rolled back the last migration")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatal("Please pass a version number")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("Invalid version number: %v", err)
		}
		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Infof("No changes: database is already at version %d", version)
		case err != nil:
			log.Fatalf("Failed to migrate to version %d: %v", version, err)
		default:
			log.Infof("Migrated to version %d", version)
		}

	case "status":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Info("No migrations have been applied yet")
				return
			}
			log.Fatalf("Failed to read migration version: %v", err)
		}
		dirtyStatus := ""
		if dirty {
			dirtyStatus = " (dirty)"
		}
		log.Infof("Current migration version: %d%s", version, dirtyStatus)

	default:
		printUsage()
		os.Exit(1)
	}
}

// migrationURLs returns the source directory and database URL for the driver.
func migrationURLs(s database.Settings) (string, string, error) {
	switch s.Driver {
	case database.DriverMySQL:
		return "file://migrations/mysql", fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
			s.User, s.Password, s.Host, s.Port, s.Name), nil
	case database.DriverPostgres:
		u := url.URL{
			Scheme:   "pgx5",
			User:     url.UserPassword(s.User, s.Password),
			Host:     s.Host + ":" + s.Port,
			Path:     "/" + s.Name,
			RawQuery: "sslmode=disable",
		}
		return "file://migrations/postgres", u.String(), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", s.Driver)
	}
}

func printUsage() {
	fmt.Println("Usage: go run cmd/migrate/main.go [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - print the current migration version")
}
