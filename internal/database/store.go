package database

import (
	"context"
	"errors"
	"fmt"

	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/models"
)

var ErrNotFound = errors.New("opportunity not found")

// OpportunityStore persists the opportunities of one site.
type OpportunityStore interface {
	// Exists reports whether link has been stored before.
	Exists(ctx context.Context, link string) (bool, error)
	// Add stores opp unless its link is already present, and returns the
	// stored row either way.
	Add(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, error)
	// Update rewrites the row for opp.Link. Applied never goes back to false.
	// The bool is false when no row matched.
	Update(ctx context.Context, opp *models.Opportunity) (bool, error)
	Get(ctx context.Context, link string) (*models.Opportunity, error)
	List(ctx context.Context) ([]models.Opportunity, error)
}

// Store hands out one OpportunityStore per site, each backed by its own table.
type Store interface {
	ForSite(site models.Site) OpportunityStore
	Close() error
}

var tables = map[models.Site]string{
	models.SiteIndeed:  "indeed_opportunities",
	models.SiteMonster: "monster_opportunities",
}

func tableFor(site models.Site) string {
	if t, ok := tables[site]; ok {
		return t
	}
	panic(fmt.Sprintf("database: no table for site %q", site))
}

// Open connects to the configured backend and creates missing tables.
func Open(ctx context.Context, cfg config.Database) (Store, error) {
	switch cfg.Type {
	case config.DatabaseSQLite, "":
		return OpenSQLite(ctx, cfg.Path)
	case config.DatabasePostgres:
		return ConnectPostgres(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Type)
	}
}
