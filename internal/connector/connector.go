// Package connector opens short-lived connections to external client
// databases so imports can pull rows straight from a source system.
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/rpattn/crmimport/internal/domain"
)

// SupportedDrivers lists the source database kinds imports can read.
var SupportedDrivers = []string{"mysql", "pgsql", "sqlite"}

// Column describes one column of a source table.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default"`
	PrimaryKey bool    `json:"primary_key,omitempty"`
}

// TableData is one fetched page of a source table.
type TableData struct {
	Rows    []map[string]string `json:"rows"`
	Offset  int                 `json:"offset"`
	Limit   int                 `json:"limit"`
	HasMore bool                `json:"has_more"`
}

// TestResult is the outcome of a connectivity probe. It is always a
// value, never an error: a failed probe is a normal answer.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service opens one connection per operation and closes it before
// returning. Source databases are not ours to pool.
type Service struct {
	log *logrus.Logger
}

func NewService(log *logrus.Logger) *Service {
	return &Service{log: log}
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("nom de table invalide: %q", name)
	}
	return nil
}

func (s *Service) open(ctx context.Context, src domain.DatabaseSource) (*sql.DB, error) {
	driverName, dsn, err := buildDSN(src)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return db, nil
}

func buildDSN(src domain.DatabaseSource) (string, string, error) {
	switch src.Driver {
	case "mysql":
		host := defaultString(src.Host, "127.0.0.1")
		port := defaultInt(src.Port, 3306)
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
			src.Username, src.Password, host, port, src.Database)
		return "mysql", dsn, nil
	case "pgsql":
		host := defaultString(src.Host, "127.0.0.1")
		port := defaultInt(src.Port, 5432)
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=prefer",
			host, port, src.Database, src.Username, src.Password)
		return "postgres", dsn, nil
	case "sqlite":
		path := src.Path
		if path == "" {
			path = src.Database
		}
		if path == "" {
			return "", "", fmt.Errorf("chemin de base sqlite manquant")
		}
		return "sqlite", path, nil
	default:
		return "", "", fmt.Errorf("driver non supporté: %s", src.Driver)
	}
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

// TestConnection probes the source. Failures come back as a message,
// with credentials scrubbed out.
func (s *Service) TestConnection(ctx context.Context, src domain.DatabaseSource) TestResult {
	db, err := s.open(ctx, src)
	if err != nil {
		return TestResult{Success: false, Message: "Échec de la connexion: " + sanitizeMessage(err.Error())}
	}
	defer db.Close()
	return TestResult{Success: true, Message: "Connexion réussie"}
}

var (
	passwordPattern = regexp.MustCompile(`(?i)password[=:][^\s;]+`)
	pwdPattern      = regexp.MustCompile(`(?i)pwd[=:][^\s;]+`)
)

// sanitizeMessage hides credentials that drivers echo back in their
// error strings.
func sanitizeMessage(message string) string {
	message = passwordPattern.ReplaceAllString(message, "password=***")
	message = pwdPattern.ReplaceAllString(message, "pwd=***")
	return message
}

// ListTables returns the source's table names.
func (s *Service) ListTables(ctx context.Context, src domain.DatabaseSource) ([]string, error) {
	db, err := s.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var query string
	switch src.Driver {
	case "mysql":
		query = "SHOW TABLES"
	case "pgsql":
		query = "SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename"
	case "sqlite":
		query = "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ListColumns returns the column layout of one table.
func (s *Service) ListColumns(ctx context.Context, src domain.DatabaseSource, table string) ([]Column, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}
	db, err := s.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	switch src.Driver {
	case "mysql":
		return mysqlColumns(ctx, db, table)
	case "pgsql":
		return postgresColumns(ctx, db, table)
	case "sqlite":
		return sqliteColumns(ctx, db, table)
	}
	return nil, fmt.Errorf("driver non supporté: %s", src.Driver)
}

func mysqlColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("DESCRIBE `%s`", table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe table: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var field, colType, null, key, extra string
		var def sql.NullString
		if err := rows.Scan(&field, &colType, &null, &key, &def, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, Column{
			Name:       field,
			Type:       colType,
			Nullable:   null == "YES",
			Default:    nullableString(def),
			PrimaryKey: key == "PRI",
		})
	}
	return columns, rows.Err()
}

func postgresColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var name, colType, nullable string
		var def sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, Column{
			Name:     name,
			Type:     colType,
			Nullable: nullable == "YES",
			Default:  nullableString(def),
		})
	}
	return columns, rows.Err()
}

func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var def sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &def, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, Column{
			Name:       name,
			Type:       colType,
			Nullable:   notNull == 0,
			Default:    nullableString(def),
			PrimaryKey: pk == 1,
		})
	}
	return columns, rows.Err()
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// CountRows returns the number of rows in a table.
func (s *Service) CountRows(ctx context.Context, src domain.DatabaseSource, table string) (int, error) {
	if err := validTableName(table); err != nil {
		return 0, err
	}
	db, err := s.open(ctx, src)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(src.Driver, table))
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// FetchTableData reads one page of a table as string maps.
func (s *Service) FetchTableData(ctx context.Context, src domain.DatabaseSource, table string, offset, limit int) (*TableData, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}
	db, err := s.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d", quoteIdent(src.Driver, table), limit, offset)
	records, err := collectRows(ctx, db, query)
	if err != nil {
		return nil, err
	}
	return &TableData{
		Rows:    records,
		Offset:  offset,
		Limit:   limit,
		HasMore: len(records) == limit,
	}, nil
}

// dangerousKeywords are rejected anywhere in a custom query.
var dangerousKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE", "EXEC", "EXECUTE",
}

// RunQuery executes a caller-supplied SELECT with a forced row cap.
func (s *Service) RunQuery(ctx context.Context, src domain.DatabaseSource, query string, limit int) ([]map[string]string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(normalized, "SELECT") {
		return nil, fmt.Errorf("seules les requêtes SELECT sont autorisées")
	}
	for _, keyword := range dangerousKeywords {
		if strings.Contains(normalized, keyword) {
			return nil, fmt.Errorf("opération non autorisée: %s", keyword)
		}
	}
	if !strings.Contains(normalized, "LIMIT") {
		query = fmt.Sprintf("%s LIMIT %d", strings.TrimRight(strings.TrimSpace(query), ";"), limit)
	}

	db, err := s.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return collectRows(ctx, db, query)
}

func quoteIdent(driver, name string) string {
	if driver == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

func collectRows(ctx context.Context, db *sql.DB, query string) ([]map[string]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var records []map[string]string
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make(map[string]string, len(columns))
		for i, column := range columns {
			record[column] = cellString(values[i])
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}
