package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nomadledger/internal/core"
	"nomadledger/internal/log"
	"nomadledger/internal/report"
	"nomadledger/internal/services"
	"nomadledger/internal/storage"
	"nomadledger/internal/store"
)

type exportOptions struct {
	email  string
	start  string
	end    string
	format string
	out    string
}

// ledgerStore is what export needs from the database.
type ledgerStore interface {
	store.ExpenseLoader
	FindUserByEmail(ctx context.Context, email string) (store.User, error)
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var eo exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an owner's expenses to a CSV or PDF report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			return runExport(cmd.Context(), repo, opts.logger(), eo, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&eo.email, "email", "", "e-mail of the account to export (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&eo.start, "start", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&eo.end, "end", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&eo.format, "format", string(report.FormatCSV), "report format: csv or pdf")
	cmd.Flags().StringVarP(&eo.out, "out", "o", "", "output file; - for stdout (default: generated report name)")

	return cmd
}

func runExport(ctx context.Context, db ledgerStore, logger *log.Logger, eo exportOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := report.ParseFormat(eo.format)
	if err != nil {
		return err
	}
	b, err := core.NewDateBounds(eo.start, eo.end)
	if err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}
	u, err := db.FindUserByEmail(ctx, eo.email)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no account for %s", eo.email)
	}
	if err != nil {
		return err
	}

	ledger := services.NewLedger(db, nil, logger, nil)
	out, err := ledger.Export(ctx, u.ID, u.Email, b, f)
	if errors.Is(err, report.ErrNoExpenses) {
		return fmt.Errorf("no expenses for %s in %s", u.Email, report.RangeLabel(b))
	}
	if err != nil {
		return err
	}

	path := eo.out
	if path == "" {
		path = out.Filename
	}
	if path == "-" {
		_, err := stdout.Write(out.Body)
		return err
	}
	if err := os.WriteFile(path, out.Body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(stdout, "wrote %d expenses to %s\n", out.Rows, path)
	return nil
}
