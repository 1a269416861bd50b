package migrate

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"surfsup-api/internal/db"
)

func migratedDB(t *testing.T) *sql.DB {
	t.Helper()
	conn := openTestDB(t)
	if _, err := Run(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM measurement`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestImportCSV(t *testing.T) {
	conn := migratedDB(t)
	in := `station,date,prcp,tobs
USC00519397,2010-01-01,0.08,65
USC00519397,2010-01-02,,63
USC00513117,2010-01-01,0.28,
`
	n, err := ImportCSV(context.Background(), conn, db.SQLite, strings.NewReader(in))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if n != 3 {
		t.Errorf("imported = %d, want 3", n)
	}

	var prcp, tobs sql.NullFloat64
	if err := conn.QueryRow(`SELECT prcp, tobs FROM measurement WHERE station = 'USC00519397' AND date = '2010-01-02'`).Scan(&prcp, &tobs); err != nil {
		t.Fatalf("select: %v", err)
	}
	if prcp.Valid || !tobs.Valid || tobs.Float64 != 63 {
		t.Errorf("row = prcp %+v tobs %+v, want NULL and 63", prcp, tobs)
	}
	if err := conn.QueryRow(`SELECT prcp, tobs FROM measurement WHERE station = 'USC00513117'`).Scan(&prcp, &tobs); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !prcp.Valid || prcp.Float64 != 0.28 || tobs.Valid {
		t.Errorf("row = prcp %+v tobs %+v, want 0.28 and NULL", prcp, tobs)
	}
}

func TestImportCSV_reorderedColumns(t *testing.T) {
	conn := migratedDB(t)
	in := "date,tobs,station,prcp,extra\n2017-08-23,81,USC00519397,0.0,x\n"
	if _, err := ImportCSV(context.Background(), conn, db.SQLite, strings.NewReader(in)); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	var station, date string
	var tobs float64
	if err := conn.QueryRow(`SELECT station, date, tobs FROM measurement`).Scan(&station, &date, &tobs); err != nil {
		t.Fatalf("select: %v", err)
	}
	if station != "USC00519397" || date != "2017-08-23" || tobs != 81 {
		t.Errorf("row = %s %s %v", station, date, tobs)
	}
}

func TestImportCSV_rejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{name: "empty", in: "", wantErr: "header row required"},
		{name: "missing column", in: "station,date,prcp\nA,2017-01-01,0\n", wantErr: `missing column "tobs"`},
		{name: "bad date", in: "station,date,prcp,tobs\nA,2017-01-01,0,70\nB,01/02/2017,0,70\n", wantErr: "line 3"},
		{name: "bad number", in: "station,date,prcp,tobs\nA,2017-01-01,lots,70\n", wantErr: "prcp"},
		{name: "infinite tobs", in: "station,date,prcp,tobs\nA,2017-01-01,0.1,70\nA,2017-01-02,0.1,Inf\n", wantErr: "line 3: tobs"},
		{name: "negative infinite prcp", in: "station,date,prcp,tobs\nA,2017-01-01,-Inf,70\n", wantErr: "not a finite number"},
		{name: "nan tobs", in: "station,date,prcp,tobs\nA,2017-01-01,0,NaN\n", wantErr: "line 2: tobs"},
		{name: "empty station", in: "station,date,prcp,tobs\n,2017-01-01,0,70\n", wantErr: "station is empty"},
		{name: "ragged row", in: "station,date,prcp,tobs\nA,2017-01-01,0\n", wantErr: "read csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := migratedDB(t)
			_, err := ImportCSV(context.Background(), conn, db.SQLite, strings.NewReader(tt.in))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
			if n := countRows(t, conn); n != 0 {
				t.Errorf("rows after failed import = %d, want 0", n)
			}
		})
	}
}
