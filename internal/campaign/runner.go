package campaign

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-easyapply-automation/internal/dedup"
	"go-easyapply-automation/internal/filter"
	"go-easyapply-automation/internal/models"
)

type Options struct {
	// MaxPages stops after that many results pages; 0 runs until the site has
	// no next page.
	MaxPages int
	// PostingInterval is the minimum time between two opened postings.
	PostingInterval time.Duration
	Reporter        Reporter
}

// Runner drives one site. It is single-goroutine: postings are handled one at
// a time, in page order.
type Runner struct {
	site    Site
	dedup   *dedup.Deduplicator
	lists   filter.Lists
	opts    Options
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewRunner(site Site, d *dedup.Deduplicator, lists filter.Lists, opts Options, log *zap.Logger) *Runner {
	limit := rate.Inf
	if opts.PostingInterval > 0 {
		limit = rate.Every(opts.PostingInterval)
	}
	if opts.Reporter == nil {
		opts.Reporter = Reporters{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		site:    site,
		dedup:   d,
		lists:   lists,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Run logs in, searches and works through result pages until the site runs
// out of pages, MaxPages is reached or ctx is cancelled. The tally is
// returned in every case.
func (r *Runner) Run(ctx context.Context) (Tally, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run", runID), zap.String("site", string(r.site.Name())))

	var tally Tally
	err := r.run(ctx, runID, log, &tally)
	r.opts.Reporter.Done(ctx, runID, tally, err)

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("❌ Campaign stopped", zap.Error(err), zap.Stringer("tally", tally))
	} else {
		log.Info("🏁 Campaign finished", zap.Stringer("tally", tally), zap.Int("seen", r.dedup.Seen()))
	}
	return tally, err
}

func (r *Runner) run(ctx context.Context, runID string, log *zap.Logger, tally *Tally) error {
	log.Info("🚀 Starting campaign")

	if err := r.site.Login(ctx); err != nil {
		return err
	}
	if err := r.site.Search(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		postings, err := r.site.Postings(ctx)
		if err != nil {
			return err
		}
		log.Debug("results page parsed", zap.Int("page", tally.Pages+1), zap.Int("postings", len(postings)))

		for _, p := range postings {
			if err := ctx.Err(); err != nil {
				return err
			}
			opp, outcome, err := r.process(ctx, log, p)
			tally.Add(outcome)
			if outcome != OutcomeSkipped {
				r.opts.Reporter.Posting(ctx, Event{
					RunID:       runID,
					Site:        r.site.Name(),
					Opportunity: opp,
					Outcome:     outcome,
					Err:         err,
				})
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
		}

		tally.Pages++
		log.Info("📄 Page done",
			zap.Int("pages_scraped", tally.Pages),
			zap.Int("opportunities_parsed", tally.Opportunities))
		r.opts.Reporter.Page(ctx, runID, *tally)

		if r.opts.MaxPages > 0 && tally.Pages >= r.opts.MaxPages {
			log.Info("🛑 Page limit reached", zap.Int("max_pages", r.opts.MaxPages))
			return nil
		}

		more, err := r.site.NextPage(ctx)
		if err != nil {
			return err
		}
		if !more {
			log.Info("✅ No more result pages")
			return nil
		}
	}
}

// process handles one posting end to end. Errors are reported through the
// outcome; the returned error is only for logging and reporting.
func (r *Runner) process(ctx context.Context, log *zap.Logger, p Posting) (*models.Opportunity, Outcome, error) {
	log = log.With(zap.String("link", p.Link))

	if p.Link == "" {
		log.Debug("posting without link, skipping")
		return nil, OutcomeSkipped, nil
	}

	seen, err := r.dedup.Exists(ctx, p.Link)
	if err != nil {
		log.Warn("⚠️ Store unavailable, skipping posting", zap.Error(err))
		return nil, OutcomeSkipped, err
	}
	if seen {
		log.Debug("already seen")
		return nil, OutcomeSkipped, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, OutcomeSkipped, err
	}

	opp, release, err := r.site.Open(ctx, p)
	if err != nil {
		log.Warn("⚠️ Could not open posting", zap.Error(err))
		return opp, OutcomeFailed, err
	}
	defer release()

	if d := filter.Apply(opp, r.lists); !d.Accepted {
		log.Info("🚫 Rejected", zap.Stringer("opportunity", opp),
			zap.String("reason", string(d.Reason)), zap.String("keyword", d.Keyword))
		return opp, OutcomeRejected, nil
	}

	if _, err := r.dedup.Record(ctx, opp); err != nil {
		log.Warn("⚠️ Could not record opportunity, skipping", zap.Error(err))
		return opp, OutcomeSkipped, err
	}

	switch {
	case opp.Applied:
		log.Info("🔄 Synced", zap.Stringer("opportunity", opp))
		return opp, OutcomeSynced, nil
	case !opp.EasyApply:
		log.Info("💾 Saved", zap.Stringer("opportunity", opp))
		return opp, OutcomeSaved, nil
	}

	outcome, err := r.site.Apply(ctx, opp)
	if err != nil {
		r.failed(log, opp, err)
		return opp, OutcomeFailed, err
	}

	if outcome == OutcomeSynced || outcome == OutcomeApplied {
		opp.Applied = true
	}
	if outcome != OutcomeSaved {
		if err := r.dedup.Update(ctx, opp); err != nil {
			log.Warn("⚠️ Could not update opportunity", zap.Error(err))
		}
	}

	switch outcome {
	case OutcomeApplied:
		log.Info("✅ Applied", zap.Stringer("opportunity", opp))
	case OutcomeSynced:
		log.Info("🔄 Synced", zap.Stringer("opportunity", opp))
	case OutcomeRejected:
		log.Info("🚫 Rejected after reading description", zap.Stringer("opportunity", opp))
	default:
		log.Info("💾 Saved", zap.Stringer("opportunity", opp))
	}
	return opp, outcome, nil
}

func (r *Runner) failed(log *zap.Logger, opp *models.Opportunity, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Warn("❌ Apply failed", zap.Stringer("opportunity", opp), zap.Error(err))
}
