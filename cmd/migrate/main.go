package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/invigo/invigo-backend/internal/config"
)

// Schema migration runner. Wraps golang-migrate so deployments only need
// this binary and the migrations directory.
func main() {
	var dir string
	var steps int
	flag.StringVar(&dir, "path", "migrations", "directory containing migration files")
	flag.IntVar(&steps, "steps", 0, "limit up/down to N steps (0 = all)")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migrate init: %v", err)
	}
	defer m.Close()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
		report(err, "database is up to date", "applied pending migrations")
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
		report(err, "nothing to roll back", "rolled back")
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied yet")
			return
		}
		if verr != nil {
			log.Fatalf("version: %v", verr)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	case "force":
		if flag.NArg() < 2 {
			log.Fatal("force requires a version argument")
		}
		v, aerr := strconv.Atoi(flag.Arg(1))
		if aerr != nil {
			log.Fatalf("invalid version %q: %v", flag.Arg(1), aerr)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("force: %v", err)
		}
		fmt.Printf("forced schema version to %d\n", v)
	default:
		usage()
		os.Exit(2)
	}
}

func report(err error, noChangeMsg, okMsg string) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println(noChangeMsg)
	case err != nil:
		log.Fatalf("migration: %v", err)
	default:
		fmt.Println(okMsg)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-path dir] [-steps n] <up|down|version|force <v>>")
	flag.PrintDefaults()
}
