package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go-easyapply-automation/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS %s (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	link        TEXT    NOT NULL UNIQUE,
	position    TEXT    NOT NULL DEFAULT '',
	company     TEXT    NOT NULL DEFAULT '',
	location    TEXT    NOT NULL DEFAULT '',
	salary      TEXT    NOT NULL DEFAULT '',
	description TEXT    NOT NULL DEFAULT '',
	easy_apply  INTEGER NOT NULL DEFAULT 0,
	applied     INTEGER NOT NULL DEFAULT 0,
	status      TEXT    NOT NULL DEFAULT 'PENDING',
	created     INTEGER NOT NULL,
	updated     INTEGER NOT NULL
);`

const sqliteColumns = `id, link, position, company, location, salary, description, easy_apply, applied, status, created, updated`

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite unreachable: %w", err)
	}

	s := NewSQLiteStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an already open handle. Tests pass a sqlmock handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, site := range models.Sites {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteSchema, tableFor(site))); err != nil {
			return fmt.Errorf("create table for %s: %w", site, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ForSite(site models.Site) OpportunityStore {
	return &sqliteTable{db: s.db, table: tableFor(site), site: site}
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteTable struct {
	db    *sql.DB
	table string
	site  models.Site
}

func (t *sqliteTable) Exists(ctx context.Context, link string) (bool, error) {
	var one int
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE link = ? LIMIT 1`, t.table), link).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s opportunity: %w", t.site, err)
	}
	return true, nil
}

func (t *sqliteTable) Add(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, error) {
	now := time.Now().UTC()
	if opp.Created.IsZero() {
		opp.Created = now
	}
	opp.Updated = now

	// relies on the UNIQUE constraint on link; a second Add is a no-op
	_, err := t.db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (link, position, company, location, salary, description, easy_apply, applied, status, created, updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(link) DO NOTHING`, t.table),
		opp.Link, opp.Position, opp.Company, opp.Location, opp.Salary, opp.Description,
		opp.EasyApply, opp.Applied, string(opp.Status), opp.Created.UnixMilli(), opp.Updated.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("add %s opportunity: %w", t.site, err)
	}
	return t.Get(ctx, opp.Link)
}

func (t *sqliteTable) Update(ctx context.Context, opp *models.Opportunity) (bool, error) {
	opp.Updated = time.Now().UTC()
	res, err := t.db.ExecContext(ctx, fmt.Sprintf(`
UPDATE %s SET position = ?, company = ?, location = ?, salary = ?, description = ?,
	easy_apply = ?, applied = (applied OR ?), status = ?, updated = ?
WHERE link = ?`, t.table),
		opp.Position, opp.Company, opp.Location, opp.Salary, opp.Description,
		opp.EasyApply, opp.Applied, string(opp.Status), opp.Updated.UnixMilli(), opp.Link,
	)
	if err != nil {
		return false, fmt.Errorf("update %s opportunity: %w", t.site, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s opportunity: %w", t.site, err)
	}
	return n > 0, nil
}

func (t *sqliteTable) Get(ctx context.Context, link string) (*models.Opportunity, error) {
	row := t.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE link = ?`, sqliteColumns, t.table), link)
	opp, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s opportunity: %w", t.site, err)
	}
	return opp, nil
}

func (t *sqliteTable) List(ctx context.Context) ([]models.Opportunity, error) {
	rows, err := t.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, sqliteColumns, t.table))
	if err != nil {
		return nil, fmt.Errorf("list %s opportunities: %w", t.site, err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		opp, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s opportunities: %w", t.site, err)
		}
		out = append(out, *opp)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (t *sqliteTable) scan(row scanner) (*models.Opportunity, error) {
	var (
		opp              models.Opportunity
		status           string
		created, updated int64
	)
	err := row.Scan(&opp.ID, &opp.Link, &opp.Position, &opp.Company, &opp.Location, &opp.Salary,
		&opp.Description, &opp.EasyApply, &opp.Applied, &status, &created, &updated)
	if err != nil {
		return nil, err
	}
	opp.Site = t.site
	opp.Status = models.Status(status)
	opp.Created = time.UnixMilli(created).UTC()
	opp.Updated = time.UnixMilli(updated).UTC()
	return &opp, nil
}
