// Package campaign runs the search -> filter -> apply loop against one job
// site. Site specifics (selectors, login form, how a posting is opened and
// applied to) live in the indeed and monster subpackages.
package campaign

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"go-easyapply-automation/internal/models"
)

// Site is one job board.
type Site interface {
	Name() models.Site
	// Login skips itself when the browser already carries a session.
	Login(ctx context.Context) error
	// Search loads the first results page.
	Search(ctx context.Context) error
	// Postings parses the current results page, in page order.
	Postings(ctx context.Context) ([]Posting, error)
	// Open builds the opportunity behind a posting. release undoes whatever
	// Open acquired (windows) and is always non-nil when err is nil.
	Open(ctx context.Context, p Posting) (opp *models.Opportunity, release func(), err error)
	// Apply submits an application for an accepted opportunity. Apply must
	// leave the browser on the window it found it on.
	Apply(ctx context.Context, opp *models.Opportunity) (Outcome, error)
	// NextPage moves to the next results page. It reports false when there is
	// none.
	NextPage(ctx context.Context) (bool, error)
}

// Posting is a result card on a search page.
type Posting struct {
	Link string
	Card *goquery.Selection
}

// Outcome is what happened to one posting.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeRejected
	OutcomeSaved
	OutcomeSynced
	OutcomeApplied
	OutcomeFailed
)

var outcomeNames = [...]string{"skipped", "rejected", "saved", "synced", "applied", "failed"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Tally counts outcomes for a run. It is returned by Runner.Run, never shared.
type Tally struct {
	Pages         int `json:"pages"`
	Opportunities int `json:"opportunities"`
	Applied       int `json:"applied"`
	Synced        int `json:"synced"`
	Saved         int `json:"saved"`
	Rejected      int `json:"rejected"`
	Failed        int `json:"failed"`
	Skipped       int `json:"skipped"`
}

// Add counts o. Every outcome except Skipped is a parsed opportunity.
func (t *Tally) Add(o Outcome) {
	switch o {
	case OutcomeApplied:
		t.Applied++
	case OutcomeSynced:
		t.Synced++
	case OutcomeSaved:
		t.Saved++
	case OutcomeRejected:
		t.Rejected++
	case OutcomeFailed:
		t.Failed++
	case OutcomeSkipped:
		t.Skipped++
		return
	}
	t.Opportunities++
}

func (t Tally) String() string {
	b, _ := json.Marshal(t)
	return string(b)
}

// Event is one posting outcome, as handed to reporters.
type Event struct {
	RunID       string
	Site        models.Site
	Opportunity *models.Opportunity
	Outcome     Outcome
	Err         error
}

// Reporter receives progress. Implementations must not block the run for long.
type Reporter interface {
	Posting(ctx context.Context, ev Event)
	Page(ctx context.Context, runID string, t Tally)
	Done(ctx context.Context, runID string, t Tally, err error)
}

// Reporters fans out to several reporters.
type Reporters []Reporter

func (rs Reporters) Posting(ctx context.Context, ev Event) {
	for _, r := range rs {
		r.Posting(ctx, ev)
	}
}

func (rs Reporters) Page(ctx context.Context, runID string, t Tally) {
	for _, r := range rs {
		r.Page(ctx, runID, t)
	}
}

func (rs Reporters) Done(ctx context.Context, runID string, t Tally, err error) {
	for _, r := range rs {
		r.Done(ctx, runID, t, err)
	}
}

// Confirmer suspends the run until a human finished something in the
// browser (login, CAPTCHA).
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) error
}

type ConfirmFunc func(ctx context.Context, prompt string) error

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) error { return f(ctx, prompt) }

// NoConfirm returns immediately.
var NoConfirm Confirmer = ConfirmFunc(func(ctx context.Context, _ string) error { return ctx.Err() })
