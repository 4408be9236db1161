package main

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/loyalty/backend/internal/bootstrap"
	"github.com/loyalty/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "internal/infrastructure/migration/sql"

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the loyalty database schema",
		Long: `Apply or roll back the loyalty schema.

Migrations are compiled into the binary. --dir reads them from disk instead,
which is how new migrations are tried out before they are embedded.`,
	}
	cmd.PersistentFlags().String("dir", "", "Read migrations from this directory instead of the embedded set")

	cmd.AddCommand(
		migrateAction("up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		migrateAction("down", "Roll back every migration", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Down()
		}),
		migrateAction("step <n>", "Apply n migrations, negative n rolls back", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		migrateAction("goto <version>", "Migrate up or down to a version", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(v))
		}),
		migrateAction("force <version>", "Set the version without running SQL, to clear a dirty state", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		}),
		migrateVersionCmd(),
		migrateDropCmd(),
		migrateCreateCmd(),
		migrateListCmd(),
	)
	return cmd
}

// migrateAction builds a subcommand that runs fn against a live migrator
func migrateAction(use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *migration.Migrator, _ *zap.Logger) error {
				return fn(m, args)
			})
		},
	}
}

func migrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migration.Migrator, _ *zap.Logger) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty})
			})
		},
	}
}

func migrateDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ok, _ := cmd.Flags().GetBool("confirm"); !ok {
				return errors.New("drop removes all data; rerun with --confirm")
			}
			return withMigrator(cmd, func(m *migration.Migrator, _ *zap.Logger) error {
				return m.Drop()
			})
		},
	}
	cmd.Flags().Bool("confirm", false, "Confirm dropping all data")
	return cmd
}

func migrateCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Write the next numbered up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = defaultMigrationsDir
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(abs, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
}

func migrateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			var (
				names []string
				err   error
			)
			if dir == "" {
				names, err = migration.EmbeddedMigrations()
			} else {
				names, err = migration.ListMigrations(dir)
			}
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// withMigrator opens a plain database/sql connection for golang-migrate and
// closes it once fn returns
func withMigrator(cmd *cobra.Command, fn func(*migration.Migrator, *zap.Logger) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := bootstrap.NewLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	dir, _ := cmd.Flags().GetString("dir")
	var m *migration.Migrator
	if dir == "" {
		m, err = migration.New(db, log)
	} else {
		m, err = migration.NewFromDir(db, dir, log)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return fn(m, log)
}
