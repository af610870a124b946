// Command migrate applies and authors the ledger's schema migrations.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/backoffice/ledger/internal/infrastructure/config"
	"github.com/backoffice/ledger/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(openPostgres, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openPostgres connects with the LEDGER_DATABASE_* settings and builds a
// migrator over the embedded schema, or over dir when it is set.
func openPostgres(dir string, log *zap.Logger) (schema, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir == "" {
		m, err = migration.New(db, log)
	} else {
		m, err = migration.NewFromDir(db, dir, log)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}
