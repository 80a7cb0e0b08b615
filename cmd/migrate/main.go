// Command migrate applies or rolls back the Postgres schema migrations
// under migrations/, driven by the same DATABASE_URL the engine and api
// processes use.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/globalprime/inventory-platform/infrastructure/config"
)

func main() {
	direction := flag.String("direction", "up", `"up", "down", or "steps:<n>"`)
	dir := flag.String("path", "migrations", "migrations directory")
	flag.Parse()

	dsn := config.GetEnv("DATABASE_URL", "")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "migrate: DATABASE_URL not set")
		os.Exit(1)
	}

	m, err := migrate.New("file://"+*dir, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: open: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	switch *direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		n, convErr := strconv.Atoi(strings.TrimPrefix(*direction, "steps:"))
		if !strings.HasPrefix(*direction, "steps:") || convErr != nil {
			err = fmt.Errorf("migrate: unsupported direction %q", *direction)
			break
		}
		err = m.Steps(n)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("migrate: done")
}
