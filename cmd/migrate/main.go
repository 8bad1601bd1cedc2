// Package main applies the session store schema. The connection comes from
// --dsn, then CLERK_DB_URL, then the database section of config.toml.
package main

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/clerk/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the clerk session schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres:// connection URL")

	open := func() (*migrate.Migrate, error) {
		return newMigrator(dsn)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(open, cmd.OutOrStdout(), "migrations applied", (*migrate.Migrate).Up)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(open, cmd.OutOrStdout(), "migrations reverted", (*migrate.Migrate).Down)
			},
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (negative n reverts)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseSteps(args[0])
				if err != nil {
					return err
				}
				return run(open, cmd.OutOrStdout(), fmt.Sprintf("applied %d steps", n), func(m *migrate.Migrate) error {
					return m.Steps(n)
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return run(open, cmd.OutOrStdout(), fmt.Sprintf("forced to version %d", v), func(m *migrate.Migrate) error {
					return m.Force(v)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer m.Close()

				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
				return nil
			},
		},
	)

	return cmd
}

func run(open func() (*migrate.Migrate, error), out io.Writer, done string, fn func(*migrate.Migrate) error) error {
	m, err := open()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	fmt.Fprintln(out, done)
	return nil
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	url, err := resolveURL(dsn)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func resolveURL(dsn string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	db, err := config.LoadDatabase()
	if err != nil {
		return "", err
	}
	return db.ConnectionURL(), nil
}

func parseSteps(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid step count %q", arg)
	}
	return n, nil
}
