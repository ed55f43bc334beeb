package reporter

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-easyapply-automation/internal/campaign"
	"go-easyapply-automation/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, f.err
}

func opportunity() *models.Opportunity {
	opp := models.NewOpportunity(models.SiteIndeed)
	opp.Position = "Go Developer"
	opp.Company = "Acme Inc."
	opp.Location = "Remote"
	opp.Salary = "$120,000 a year"
	opp.Link = "https://indeed.test/viewjob?jk=aaa"
	return opp
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme", "Acme"},
		{"Acme Inc.", "Acme Inc\\."},
		{"C++ (senior)", "C\\+\\+ \\(senior\\)"},
		{"a_b*c", "a\\_b\\*c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeMarkdown(tt.in))
		})
	}
}

func TestTelegram_Posting(t *testing.T) {
	tests := []struct {
		name    string
		outcome campaign.Outcome
		sent    bool
	}{
		{"applied", campaign.OutcomeApplied, true},
		{"failed", campaign.OutcomeFailed, true},
		{"saved", campaign.OutcomeSaved, false},
		{"rejected", campaign.OutcomeRejected, false},
		{"synced", campaign.OutcomeSynced, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSender{}
			tg := newTelegram(s, 42, zap.NewNop())
			tg.Posting(context.Background(), campaign.Event{
				Site:        models.SiteIndeed,
				Opportunity: opportunity(),
				Outcome:     tt.outcome,
			})
			if !tt.sent {
				assert.Empty(t, s.sent)
				return
			}
			require.Len(t, s.sent, 1)
			msg := s.sent[0]
			assert.Equal(t, int64(42), msg.ChatID)
			assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
			assert.Contains(t, msg.Text, "Acme Inc\\.")
			assert.Contains(t, msg.Text, "$120,000 a year")
			assert.NotNil(t, msg.ReplyMarkup)
		})
	}
}

func TestTelegram_PostingWithoutOpportunity(t *testing.T) {
	s := &fakeSender{}
	newTelegram(s, 1, zap.NewNop()).Posting(context.Background(), campaign.Event{
		Site:    models.SiteMonster,
		Outcome: campaign.OutcomeFailed,
		Err:     errors.New("posting page: timeout"),
	})
	require.Len(t, s.sent, 1)
	assert.Contains(t, s.sent[0].Text, "posting page: timeout")
	assert.Nil(t, s.sent[0].ReplyMarkup)
}

func TestTelegram_Done(t *testing.T) {
	s := &fakeSender{}
	tg := newTelegram(s, 1, zap.NewNop())
	tg.Page(context.Background(), "run-1", campaign.Tally{Pages: 1})
	tg.Done(context.Background(), "run-1", campaign.Tally{Pages: 3, Applied: 2, Failed: 1}, nil)

	require.Len(t, s.sent, 1)
	assert.Contains(t, s.sent[0].Text, "Campaign finished")
	assert.Contains(t, s.sent[0].Text, "Applied: 2")
	assert.Contains(t, s.sent[0].Text, "Pages: 3")
	assert.Contains(t, s.sent[0].Text, "run\\-1")
}

func TestTelegram_SendErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := &fakeSender{err: errors.New("chat not found")}
	newTelegram(s, 1, zap.New(core)).Done(context.Background(), "r", campaign.Tally{}, errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, s.sent[0].Text, "Campaign stopped")
}

func TestLog_Posting(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewLog(zap.New(core))

	l.Posting(context.Background(), campaign.Event{RunID: "r", Site: models.SiteIndeed, Opportunity: opportunity(), Outcome: campaign.OutcomeApplied})
	l.Posting(context.Background(), campaign.Event{RunID: "r", Site: models.SiteIndeed, Outcome: campaign.OutcomeFailed, Err: errors.New("boom")})
	l.Done(context.Background(), "r", campaign.Tally{Applied: 1, Failed: 1}, nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "Acme Inc.", entries[0].ContextMap()["company"])
	assert.Equal(t, "applied", entries[0].ContextMap()["outcome"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, int64(1), entries[2].ContextMap()["applied"])
}

func TestLog_PostingStaysOffInfo(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewLog(zap.New(core))

	for _, o := range []campaign.Outcome{campaign.OutcomeApplied, campaign.OutcomeFailed, campaign.OutcomeSaved} {
		l.Posting(context.Background(), campaign.Event{Site: models.SiteIndeed, Opportunity: opportunity(), Outcome: o})
	}
	assert.Zero(t, logs.Len(), "the runner owns the info-level outcome lines")
}
