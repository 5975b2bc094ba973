// Package sqlite is the system of record: every collection lives in one
// SQLite database, embedded lists are stored as JSON documents.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema
// 1 - Partial unique index on open low-stock alerts
const currentSchemaVersion = 1

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// Store implements repositories.Store on a SQLite database.
type Store struct {
	*repos
	db *sql.DB
}

var _ repositories.Store = (*Store)(nil)

// Open creates or opens the database at path, applies pragmas, the schema and
// pending migrations. The special path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite has a single writer and an in-memory database
	// exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{repos: &repos{q: db}, db: db}, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_loc=UTC"
	}
	return path + "?_loc=UTC"
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SchemaVersion returns the migration level recorded in the database
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back on error or panic. fn must only use tx: the store holds a
// single connection, so touching s from inside fn blocks forever.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &repos{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 resolves duplicate open alerts left by databases created before
// the partial unique index existed, then adds the index.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		UPDATE low_stock_alerts SET status = 'resolved', resolved_at = raised_at
		WHERE status = 'open' AND rowid NOT IN (
			SELECT MAX(rowid) FROM low_stock_alerts WHERE status = 'open'
			GROUP BY company_id, branch_id, item_id
		)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_low_stock_alerts_open
		ON low_stock_alerts(company_id, branch_id, item_id) WHERE status = 'open'`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// repos implements every repository on one querier.
type repos struct {
	q querier
}

func (r *repos) Companies() repositories.CompanyRepository           { return r }
func (r *repos) Countries() repositories.CountryRepository           { return r }
func (r *repos) Branches() repositories.BranchRepository             { return r }
func (r *repos) Users() repositories.UserRepository                  { return r }
func (r *repos) Sessions() repositories.SessionRepository            { return r }
func (r *repos) Items() repositories.ItemRepository                  { return r }
func (r *repos) Suppliers() repositories.SupplierRepository          { return r }
func (r *repos) PurchaseOrders() repositories.PurchaseOrderRepository { return r }
func (r *repos) GoodsReceipts() repositories.GoodsReceiptRepository  { return r }
func (r *repos) Transfers() repositories.TransferRepository          { return r }
func (r *repos) Stock() repositories.StockRepository                 { return r }
func (r *repos) Alerts() repositories.AlertRepository                { return r }
func (r *repos) Audit() repositories.AuditRepository                 { return r }
func (r *repos) Counters() repositories.CounterRepository            { return r }

// translate maps driver errors onto apperror kinds. kind and id describe the
// document the statement touched.
func translate(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(kind, id)
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperror.Conflict("%s %s already exists", kind, id)
		case sqlite3.ErrConstraintForeignKey:
			return apperror.Conflict("%s %s is referenced by, or references, another record", kind, id)
		}
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}

// mustAffect turns an UPDATE or DELETE that touched no row into ErrNotFound.
func mustAffect(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound(kind, id)
	}
	return nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func fromJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// scoped appends "column IN (...)" for a non-empty branch scope.
func scoped(where []string, args []any, column string, scope []string) ([]string, []any) {
	if len(scope) == 0 {
		return where, args
	}
	marks := make([]string, len(scope))
	for i, id := range scope {
		marks[i] = "?"
		args = append(args, id)
	}
	return append(where, column+" IN ("+strings.Join(marks, ", ")+")"), args
}

// page appends LIMIT/OFFSET for opts to query.
func page(query string, args []any, opts repositories.ListOptions) (string, []any) {
	opts = opts.Normalize()
	return query + " LIMIT ? OFFSET ?", append(args, opts.Limit, opts.Offset)
}
