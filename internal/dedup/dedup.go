package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/models"
)

// ErrStoreUnavailable wraps any failure of the underlying store. The campaign
// treats it as "skip this posting" rather than a reason to stop.
var ErrStoreUnavailable = errors.New("opportunity store unavailable")

// Deduplicator answers "have we seen this link?" against the store, with an
// in-process seen set in front so a link is never handled twice in one run
// even while the store is failing.
type Deduplicator struct {
	mu    sync.Mutex
	store database.OpportunityStore
	seen  map[string]time.Time
}

func New(store database.OpportunityStore) *Deduplicator {
	return &Deduplicator{
		store: store,
		seen:  make(map[string]time.Time),
	}
}

// Exists checks the seen set first, then the store.
func (d *Deduplicator) Exists(ctx context.Context, link string) (bool, error) {
	if d.isSeen(link) {
		return true, nil
	}

	ok, err := d.store.Exists(ctx, link)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if ok {
		d.markSeen(link)
	}
	return ok, nil
}

// Record stores opp. Recording the same link twice returns the stored row
// without creating a second one.
func (d *Deduplicator) Record(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, error) {
	if opp.Link == "" {
		return nil, errors.New("opportunity has no link")
	}
	d.markSeen(opp.Link)

	stored, err := d.store.Add(ctx, opp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	opp.ID = stored.ID
	return stored, nil
}

// Update persists the latest state of an already recorded opportunity.
func (d *Deduplicator) Update(ctx context.Context, opp *models.Opportunity) error {
	if _, err := d.store.Update(ctx, opp); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Seen returns how many links were marked during this run.
func (d *Deduplicator) Seen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduplicator) isSeen(link string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[link]
	return ok
}

func (d *Deduplicator) markSeen(link string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[link]; !ok {
		d.seen[link] = time.Now()
	}
}
