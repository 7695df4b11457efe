package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gatehouse/internal/config"
	sqlitestore "gatehouse/internal/platform/storage/sqlite"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

// Execute runs the gatehouse command line. With no subcommand it serves HTTP.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	serve := serveCmd(stderr)
	root := &cobra.Command{
		Use:           "gatehouse",
		Short:         "Session-gated web shell",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          serve.RunE,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(serve, backupCmd(), footerCmd())
	return root
}

// newLogger builds the process logger from config.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(strings.TrimSpace(cfg.LogFormat), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openDB opens and initializes the SQLite database at cfg.DBPath.
func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db %s: %w", pragma, err)
		}
	}
	if err := sqlitestore.InitDB(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init: %w", err)
	}
	return db, nil
}
