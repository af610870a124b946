package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/backoffice/ledger/internal/infrastructure/logger"
	"github.com/backoffice/ledger/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// new migration files land here unless --path says otherwise
const sourceMigrationsPath = "internal/infrastructure/migration/sql"

// schema is the part of migration.Migrator the commands drive.
type schema interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() error
}

type schemaOpener func(dir string, log *zap.Logger) (schema, error)

type cli struct {
	open     schemaOpener
	out      io.Writer
	dir      string
	logLevel string
	log      *zap.Logger
}

func newRootCmd(open schemaOpener, out io.Writer) *cobra.Command {
	c := &cli{open: open, out: out}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the billing ledger schema",
		Long: `Applies, rolls back and authors ledger schema migrations.

Database settings come from LEDGER_DATABASE_HOST, LEDGER_DATABASE_PORT,
LEDGER_DATABASE_USER, LEDGER_DATABASE_PASSWORD, LEDGER_DATABASE_DBNAME and
LEDGER_DATABASE_SSLMODE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.dir, "path", "", "read migrations from this directory instead of the embedded schema")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.schemaCmd("up", "Apply all pending migrations", cobra.NoArgs,
			func(s schema, _ []string) error { return s.Up() }),
		c.schemaCmd("down", "Roll back every migration", cobra.NoArgs,
			func(s schema, _ []string) error { return s.Down() }),
		c.schemaCmd("step <n>", "Apply n migrations, negative n rolls back", cobra.ExactArgs(1),
			func(s schema, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return s.Steps(n)
			}),
		c.schemaCmd("version", "Show the applied schema version", cobra.NoArgs, c.printVersion),
		c.schemaCmd("force <version>", "Set the schema version without running migrations", cobra.ExactArgs(1),
			func(s schema, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return s.Force(v)
			}),
		c.createCmd(),
		c.listCmd(),
	)
	return root
}

func (c *cli) setup() error {
	if c.dir != "" {
		abs, err := filepath.Abs(c.dir)
		if err != nil {
			return err
		}
		c.dir = abs
	}
	log, err := logger.New(&logger.Config{Level: c.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

// schemaCmd wraps an action that needs a live database connection.
func (c *cli) schemaCmd(use, short string, args cobra.PositionalArgs, action func(schema, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			s, err := c.open(c.dir, c.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := s.Close(); err != nil {
					c.log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			return action(s, argv)
		},
	}
}

func (c *cli) printVersion(s schema, _ []string) error {
	version, dirty, err := s.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(c.out, "no migrations applied")
		return nil
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(c.out, "version %06d (%s)\n", version, state)
	return nil
}

func (c *cli) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Write a new up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.dir
			if dir == "" {
				dir = sourceMigrationsPath
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				names []string
				err   error
			)
			if c.dir == "" {
				names, err = migration.ListEmbedded()
			} else {
				names, err = migration.ListMigrations(os.DirFS(c.dir), ".")
			}
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(c.out, "no migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(c.out, name)
			}
			return nil
		},
	}
}
