package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/linemk/bookstore/internal/config"
	"github.com/linemk/bookstore/internal/lib/logger"
	"github.com/linemk/bookstore/internal/service"
	"github.com/linemk/bookstore/internal/storage"
	pkgerrors "github.com/pkg/errors"
)

// buildMigrateDSN собирает строку подключения (DSN) из отдельных параметров
func buildMigrateDSN(dbCfg config.DatabaseConfig, migrationTable string) string {
	return buildQueryDSN(dbCfg) + "&x-migrations-table=" + migrationTable
}

// buildQueryDSN собирает DSN для обычных SQL запросов
func buildQueryDSN(dbCfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.Name,
	)
}

func main() {
	var (
		migrationsPathFlag string
		catalogPathFlag    string
		seedBadges         bool
		down               bool
	)
	flag.String("config", "", "path to config file")
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.BoolVar(&down, "down", false, "roll back the last migration instead of applying")
	flag.BoolVar(&seedBadges, "seed-badges", false, "upsert the badge catalog after migrating")
	flag.StringVar(&catalogPathFlag, "badges", "", "path to badge catalog yaml (default: badges.catalog_path)")
	flag.Parse()

	cfg := config.MustLoad()

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	migrationTableName := "migrations"
	log.Printf("Using database %s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	// Создаем объект мигратора
	m, err := migrate.New(
		"file://"+migrationsPath,
		buildMigrateDSN(cfg.Database, migrationTableName),
	)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to apply")
		} else {
			log.Fatalf("migration failed: %v", err)
		}
	} else {
		log.Println("Migrations applied successfully")
	}

	db, err := sql.Open("postgres", buildQueryDSN(cfg.Database))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if seedBadges {
		catalogPath := cfg.Badges.CatalogPath
		if catalogPathFlag != "" {
			catalogPath = catalogPathFlag
		}
		if err := seedBadgeCatalog(db, logger.SetupLogger(cfg.Env), catalogPath); err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("Badge catalog %s seeded", catalogPath)
	}

	if err := printTables(db); err != nil {
		log.Fatalf("%v", err)
	}
}

// seedBadgeCatalog обновляет награды из yaml файла по имени
func seedBadgeCatalog(db *sql.DB, slogger *slog.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrap(err, "open badge catalog")
	}
	defer f.Close()

	entries, err := service.LoadCatalog(f)
	if err != nil {
		return pkgerrors.Wrap(err, "load badge catalog")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	badgeService := service.NewBadgeService(slogger, storage.NewPool(db, 5*time.Second), storage.NewBadgeRepository(db))
	return pkgerrors.Wrap(badgeService.SeedCatalog(ctx, entries), "seed badge catalog")
}

func printTables(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT table_name 
		FROM information_schema.tables 
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	fmt.Println("Current tables in the database:")
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		fmt.Println(" -", tableName)
	}
	return rows.Err()
}
