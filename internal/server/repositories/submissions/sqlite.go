package submissions

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/formkeeper/internal/dbx"
	"github.com/dmitrijs2005/formkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const tableName = "registros"

var submissionColumns = []string{"id", "nombre", "email", "creado"}

// SQLiteRepository maps models.Submission onto the registros table.
// Statements are built with squirrel and scanned with sqlx struct mapping.
type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save inserts the record inside a transaction; any failure rolls it back.
func (r *SQLiteRepository) Save(ctx context.Context, s *models.Submission) error {
	query, args, err := sq.Insert(tableName).
		Columns(submissionColumns...).
		Values(s.ID, s.Name, s.Email, s.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("query build error: %w", err)
	}

	err = dbx.WithTx(ctx, r.db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Submission, error) {
	query, args, err := sq.Select(submissionColumns...).
		From(tableName).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("query build error: %w", err)
	}

	result := make([]models.Submission, 0)
	if err := r.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// gooseUp is a seam for testing the forms migrations.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Forms)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "forms")
}

// OpenSQLite opens the forms database with the pure-Go sqlite driver and
// applies the registros migrations. SQLite allows a single writer, so the
// pool is limited to one connection.
func OpenSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := gooseUp(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}
