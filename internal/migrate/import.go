package migrate

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"surfsup-api/internal/db"
)

var importColumns = []string{"station", "date", "prcp", "tobs"}

const insertMeasurementSQL = "INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)"

// ImportCSV loads station,date,prcp,tobs rows from r into measurement in a
// single transaction. The header row is required; columns may appear in any
// order and extra columns are ignored. Empty prcp or tobs values are stored
// as NULL. Any malformed row aborts the whole import.
func ImportCSV(ctx context.Context, conn *sql.DB, dialect db.Dialect, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, errors.New("csv is empty: header row required")
	}
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return 0, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, dialect.Rebind(insertMeasurementSQL))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	imported := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		m, err := parseRecord(record, index)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := stmt.ExecContext(ctx, m.station, m.date, m.prcp, m.tobs); err != nil {
			return 0, fmt.Errorf("line %d: insert: %w", line, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	slog.Info("measurements imported", "rows", imported, "dialect", dialect.String())
	return imported, nil
}

type measurementRow struct {
	station string
	date    string
	prcp    sql.NullFloat64
	tobs    sql.NullFloat64
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header missing column %q (want %s)", col, strings.Join(importColumns, ","))
		}
	}
	return index, nil
}

func parseRecord(record []string, index map[string]int) (measurementRow, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	m := measurementRow{station: field("station"), date: field("date")}
	if m.station == "" {
		return m, errors.New("station is empty")
	}
	if _, err := time.Parse("2006-01-02", m.date); err != nil {
		return m, fmt.Errorf("date %q: expected YYYY-MM-DD", m.date)
	}
	var err error
	if m.prcp, err = parseNullFloat(field("prcp")); err != nil {
		return m, fmt.Errorf("prcp: %w", err)
	}
	if m.tobs, err = parseNullFloat(field("tobs")); err != nil {
		return m, fmt.Errorf("tobs: %w", err)
	}
	return m, nil
}

func parseNullFloat(s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}, fmt.Errorf("%q is not a finite number", s)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
