// Package reporter holds the campaign.Reporter implementations: structured
// log lines and Telegram notifications.
package reporter

import (
	"context"

	"go.uber.org/zap"

	"go-easyapply-automation/internal/campaign"
)

// Log writes the run summary. Per-posting lines are debug only; the runner
// already logs each outcome as it happens.
type Log struct {
	log *zap.Logger
}

var _ campaign.Reporter = Log{}

func NewLog(log *zap.Logger) Log {
	return Log{log: log}
}

func (l Log) Posting(ctx context.Context, ev campaign.Event) {
	fields := []zap.Field{
		zap.String("run", ev.RunID),
		zap.String("site", string(ev.Site)),
		zap.Stringer("outcome", ev.Outcome),
	}
	if ev.Opportunity != nil {
		fields = append(fields,
			zap.String("company", ev.Opportunity.Company),
			zap.String("position", ev.Opportunity.Position),
			zap.String("link", ev.Opportunity.Link))
	}

	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	l.log.Debug("posting handled", fields...)
}

func (l Log) Page(ctx context.Context, runID string, t campaign.Tally) {
	l.log.Debug("page tally", zap.String("run", runID), zap.Stringer("tally", t))
}

func (l Log) Done(ctx context.Context, runID string, t campaign.Tally, err error) {
	l.log.Info("📊 Run summary",
		zap.String("run", runID),
		zap.Int("applied", t.Applied),
		zap.Int("synced", t.Synced),
		zap.Int("saved", t.Saved),
		zap.Int("rejected", t.Rejected),
		zap.Int("failed", t.Failed),
		zap.Int("skipped", t.Skipped),
		zap.Bool("stopped", err != nil))
}
