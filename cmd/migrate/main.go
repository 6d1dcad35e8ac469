package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"github.com/fogelran/people-match/internal/config"
)

// Утилита ручного управления схемой: up, down, force <версия>, version.
// Сервер применяет миграции сам при старте, утилита нужна для отката
// и для снятия dirty-состояния после упавшей миграции.
func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	configPath := flags.String("config", "config/config.yaml", "path to the config file")
	dir := flags.String("dir", "migrations", "migrations directory")
	steps := flags.Int("steps", 0, "number of steps for up/down (0 = all)")
	force := flags.Int("force", -1, "force the schema version and clear the dirty flag")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: migrate [flags] up|down|version\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	cfg, err := config.LoadStorage(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Fatalf("Storage driver %q has no schema to migrate", cfg.Storage.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+*dir, "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	if *force >= 0 {
		fmt.Printf("Forcing migration version to %d to clean dirty state...\n", *force)
		if err := m.Force(*force); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
		fmt.Println("Success! Dirty state cleaned.")
		return
	}

	command := "up"
	if flags.NArg() > 0 {
		command = flags.Arg(0)
	}

	switch command {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return
		}
		if verr != nil {
			log.Fatalf("Failed to read version: %v", verr)
		}
		fmt.Printf("Version: %d (dirty: %t)\n", version, dirty)
		return
	default:
		flags.Usage()
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No change: database is up to date.")
		return
	}
	if err != nil {
		log.Fatalf("Migration %s failed: %v", command, err)
	}
	fmt.Printf("Migration %s applied successfully.\n", command)
}
