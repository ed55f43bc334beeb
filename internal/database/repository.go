package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-easyapply-automation/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS %s (
	id          BIGSERIAL PRIMARY KEY,
	link        TEXT        NOT NULL UNIQUE,
	position    TEXT        NOT NULL DEFAULT '',
	company     TEXT        NOT NULL DEFAULT '',
	location    TEXT        NOT NULL DEFAULT '',
	salary      TEXT        NOT NULL DEFAULT '',
	description TEXT        NOT NULL DEFAULT '',
	easy_apply  BOOLEAN     NOT NULL DEFAULT FALSE,
	applied     BOOLEAN     NOT NULL DEFAULT FALSE,
	status      TEXT        NOT NULL DEFAULT 'PENDING',
	created     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const postgresColumns = `id, link, position, company, location, salary, description, easy_apply, applied, status, created, updated`

type Repository struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	// one campaign at a time, a small pool is plenty
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// PgBouncer in transaction mode does not support prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	r := &Repository{db: pool}
	if err := r.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Migrate(ctx context.Context) error {
	for _, site := range models.Sites {
		if _, err := r.db.Exec(ctx, fmt.Sprintf(postgresSchema, tableFor(site))); err != nil {
			return fmt.Errorf("create table for %s: %w", site, err)
		}
	}
	return nil
}

func (r *Repository) ForSite(site models.Site) OpportunityStore {
	return &pgTable{db: r.db, table: tableFor(site), site: site}
}

func (r *Repository) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}

type pgTable struct {
	db    *pgxpool.Pool
	table string
	site  models.Site
}

func (t *pgTable) Exists(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := t.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE link = $1)`, t.table), link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s opportunity: %w", t.site, err)
	}
	return exists, nil
}

// Add inserts the opportunity, or leaves the existing row alone (based on link)
func (t *pgTable) Add(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, error) {
	if opp.Created.IsZero() {
		opp.Created = time.Now().UTC()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (link, position, company, location, salary, description, easy_apply, applied, status, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (link) DO NOTHING`, t.table)

	_, err := t.db.Exec(ctx, query, opp.Link, opp.Position, opp.Company, opp.Location, opp.Salary,
		opp.Description, opp.EasyApply, opp.Applied, string(opp.Status), opp.Created)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s opportunity: %w", t.site, err)
	}
	return t.Get(ctx, opp.Link)
}

func (t *pgTable) Update(ctx context.Context, opp *models.Opportunity) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET position = $1, company = $2, location = $3, salary = $4, description = $5,
			easy_apply = $6, applied = (applied OR $7), status = $8, updated = now()
		WHERE link = $9`, t.table)

	tag, err := t.db.Exec(ctx, query, opp.Position, opp.Company, opp.Location, opp.Salary,
		opp.Description, opp.EasyApply, opp.Applied, string(opp.Status), opp.Link)
	if err != nil {
		return false, fmt.Errorf("failed to update %s opportunity: %w", t.site, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTable) Get(ctx context.Context, link string) (*models.Opportunity, error) {
	row := t.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE link = $1`, postgresColumns, t.table), link)
	opp, err := t.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s opportunity: %w", t.site, err)
	}
	return opp, nil
}

func (t *pgTable) List(ctx context.Context) ([]models.Opportunity, error) {
	rows, err := t.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, postgresColumns, t.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s opportunities: %w", t.site, err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		opp, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s opportunities: %w", t.site, err)
		}
		out = append(out, *opp)
	}
	return out, rows.Err()
}

func (t *pgTable) scan(row pgx.Row) (*models.Opportunity, error) {
	var (
		opp    models.Opportunity
		status string
	)
	err := row.Scan(&opp.ID, &opp.Link, &opp.Position, &opp.Company, &opp.Location, &opp.Salary,
		&opp.Description, &opp.EasyApply, &opp.Applied, &status, &opp.Created, &opp.Updated)
	if err != nil {
		return nil, err
	}
	opp.Site = t.site
	opp.Status = models.Status(status)
	return &opp, nil
}
