package connector

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpattn/crmimport/internal/domain"
)

func sqliteSource(t *testing.T) domain.DatabaseSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE clients (id INTEGER PRIMARY KEY, nom TEXT NOT NULL, prenom TEXT, email TEXT)`,
		`CREATE TABLE contrats (id INTEGER PRIMARY KEY, ref TEXT)`,
		`INSERT INTO clients (nom, prenom, email) VALUES
			('Dupont', 'Jean', 'jean@example.com'),
			('Martin', 'Sophie', 'sophie@example.com'),
			('Durand', 'Luc', NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed sqlite: %v", err)
		}
	}

	return domain.DatabaseSource{Driver: "sqlite", Path: path}
}

func TestTestConnection(t *testing.T) {
	svc := NewService(nil)

	result := svc.TestConnection(context.Background(), sqliteSource(t))
	if !result.Success || result.Message != "Connexion réussie" {
		t.Fatalf("unexpected result: %+v", result)
	}

	result = svc.TestConnection(context.Background(), domain.DatabaseSource{Driver: "sqlsrv"})
	if result.Success || !strings.Contains(result.Message, "driver non supporté") {
		t.Fatalf("unsupported driver should fail gracefully: %+v", result)
	}
}

func TestSanitizeMessage(t *testing.T) {
	in := `dial failed: password=s3cret; pwd:also-secret host=db`
	out := sanitizeMessage(in)
	if strings.Contains(out, "s3cret") || strings.Contains(out, "also-secret") {
		t.Fatalf("credentials leaked: %q", out)
	}
	if !strings.Contains(out, "password=***") || !strings.Contains(out, "pwd=***") {
		t.Fatalf("redaction markers missing: %q", out)
	}
}

func TestListTablesAndColumns(t *testing.T) {
	svc := NewService(nil)
	src := sqliteSource(t)
	ctx := context.Background()

	tables, err := svc.ListTables(ctx, src)
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	if len(tables) != 2 || tables[0] != "clients" || tables[1] != "contrats" {
		t.Fatalf("unexpected tables: %v", tables)
	}

	columns, err := svc.ListColumns(ctx, src, "clients")
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}
	if len(columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(columns))
	}
	if columns[0].Name != "id" || !columns[0].PrimaryKey {
		t.Fatalf("unexpected first column: %+v", columns[0])
	}
	if columns[1].Name != "nom" || columns[1].Nullable {
		t.Fatalf("NOT NULL column reported nullable: %+v", columns[1])
	}
}

func TestFetchTableDataPaging(t *testing.T) {
	svc := NewService(nil)
	src := sqliteSource(t)
	ctx := context.Background()

	count, err := svc.CountRows(ctx, src, "clients")
	if err != nil || count != 3 {
		t.Fatalf("CountRows = %d, %v", count, err)
	}

	page, err := svc.FetchTableData(ctx, src, "clients", 0, 2)
	if err != nil {
		t.Fatalf("FetchTableData failed: %v", err)
	}
	if len(page.Rows) != 2 || !page.HasMore {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if page.Rows[0]["nom"] != "Dupont" {
		t.Fatalf("unexpected row: %+v", page.Rows[0])
	}

	page, err = svc.FetchTableData(ctx, src, "clients", 2, 2)
	if err != nil {
		t.Fatalf("FetchTableData failed: %v", err)
	}
	if len(page.Rows) != 1 || page.HasMore {
		t.Fatalf("unexpected last page: %+v", page)
	}
	if page.Rows[0]["email"] != "" {
		t.Fatalf("NULL should come back empty, got %q", page.Rows[0]["email"])
	}
}

func TestFetchTableDataRejectsBadTableName(t *testing.T) {
	svc := NewService(nil)
	src := sqliteSource(t)

	if _, err := svc.FetchTableData(context.Background(), src, "clients; DROP TABLE clients", 0, 10); err == nil {
		t.Fatal("expected invalid table name to be rejected")
	}
	if _, err := svc.CountRows(context.Background(), src, "1clients"); err == nil {
		t.Fatal("expected invalid table name to be rejected")
	}
}

func TestRunQueryGuards(t *testing.T) {
	svc := NewService(nil)
	src := sqliteSource(t)
	ctx := context.Background()

	rows, err := svc.RunQuery(ctx, src, "SELECT nom, prenom FROM clients WHERE nom = 'Dupont'", 100)
	if err != nil {
		t.Fatalf("RunQuery failed: %v", err)
	}
	if len(rows) != 1 || rows[0]["prenom"] != "Jean" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if _, err := svc.RunQuery(ctx, src, "DELETE FROM clients", 100); err == nil {
		t.Fatal("non-SELECT should be rejected")
	}
	if _, err := svc.RunQuery(ctx, src, "SELECT * FROM clients; DROP TABLE clients", 100); err == nil {
		t.Fatal("dangerous keyword should be rejected")
	}

	rows, err = svc.RunQuery(ctx, src, "SELECT nom FROM clients", 2)
	if err != nil {
		t.Fatalf("RunQuery failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("LIMIT should be enforced, got %d rows", len(rows))
	}
}
