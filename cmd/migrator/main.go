package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/linemk/qris-shop/internal/config"
)

// buildMigrateDSN добавляет к DSN имя таблицы версий мигратора
func buildMigrateDSN(dbCfg config.DatabaseConfig, migrationTable string) string {
	return dbCfg.DSN() + "&x-migrations-table=" + url.QueryEscape(migrationTable)
}

func main() {
	var (
		migrationsPathFlag string
		down               bool
	)
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.BoolVar(&down, "down", false, "roll back all migrations")

	// флаги объявлены до MustLoad: он разбирает командную строку
	cfg := config.MustLoad()
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Fatalf("storage driver is %q, migrations apply only to postgres", cfg.Storage.Driver)
	}

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	// Создаем объект мигратора
	m, err := migrate.New(
		"file://"+migrationsPath,
		buildMigrateDSN(cfg.Database, cfg.Migrations.Table),
	)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}

	if down {
		err = m.Down()
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

	if down {
		return
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var (
		present   bool
		updatedAt sql.NullTime
	)
	err = db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM order_state WHERE id = 1),
		       (SELECT updated_at FROM order_state WHERE id = 1)
	`).Scan(&present, &updatedAt)
	if err != nil {
		log.Fatalf("failed to query order_state: %v", err)
	}

	if present {
		fmt.Println("order_state document present, updated at", updatedAt.Time)
	} else {
		fmt.Println("order_state is empty, the server creates the document on first start")
	}
}
