package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"surfsup-api/internal/db"
	"surfsup-api/internal/migrate"
)

var importCmd = &cobra.Command{
	Use:   "import <measurements.csv>",
	Short: "Load measurements from a CSV file",
	Long: `Load station,date,prcp,tobs rows into the measurement table in one
transaction. Use "-" to read from stdin. Run migrate first.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	conn, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	n, err := migrate.ImportCSV(cmd.Context(), conn, db.DialectFor(cfg.Driver), in)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d measurement(s) imported\n", n)
	return nil
}
