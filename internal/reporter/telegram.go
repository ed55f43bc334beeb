package reporter

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/campaign"
)

// sender is the part of tgbotapi.BotAPI the reporter uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts applications, failures and the run summary to one chat.
// Rejected and saved postings are not worth a message.
type Telegram struct {
	api    sender
	chatID int64
	log    *zap.Logger
}

var _ campaign.Reporter = (*Telegram)(nil)

func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api sender, chatID int64, log *zap.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, log: log}
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

func (t *Telegram) send(text string, markup any) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := t.api.Send(msg); err != nil {
		t.log.Warn("⚠️ Telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) Posting(ctx context.Context, ev campaign.Event) {
	switch ev.Outcome {
	case campaign.OutcomeApplied, campaign.OutcomeFailed:
	default:
		return
	}
	text, markup := postingMessage(ev)
	t.send(text, markup)
}

func postingMessage(ev campaign.Event) (string, any) {
	var b strings.Builder
	if ev.Outcome == campaign.OutcomeApplied {
		b.WriteString("✅ *Applied*\n")
	} else {
		b.WriteString("❌ *Apply failed*\n")
	}

	opp := ev.Opportunity
	if opp == nil {
		fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(string(ev.Site)))
		if ev.Err != nil {
			fmt.Fprintf(&b, "⚠️ %s\n", escapeMarkdown(ev.Err.Error()))
		}
		return b.String(), nil
	}

	fmt.Fprintf(&b, "💼 *%s*\n", escapeMarkdown(opp.Position))
	fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(opp.Company))
	if opp.Salary != "" {
		fmt.Fprintf(&b, "💰 %s\n", escapeMarkdown(opp.Salary))
	}
	loc := opp.Location
	if loc == "" {
		loc = "N/A"
	}
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(loc))
	fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(string(ev.Site)))
	if ev.Err != nil {
		fmt.Fprintf(&b, "⚠️ %s\n", escapeMarkdown(ev.Err.Error()))
	}

	if opp.Link == "" {
		return b.String(), nil
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", opp.Link)),
	)
	return b.String(), keyboard
}

// Page is only logged; one message per page would flood the chat.
func (t *Telegram) Page(ctx context.Context, runID string, tally campaign.Tally) {}

func (t *Telegram) Done(ctx context.Context, runID string, tally campaign.Tally, err error) {
	t.send(summaryMessage(runID, tally, err), nil)
}

func summaryMessage(runID string, tally campaign.Tally, err error) string {
	var b strings.Builder
	if err != nil {
		b.WriteString("🛑 *Campaign stopped*\n")
	} else {
		b.WriteString("🏁 *Campaign finished*\n")
	}
	fmt.Fprintf(&b, "🆔 `%s`\n", escapeMarkdown(runID))
	fmt.Fprintf(&b, "📄 Pages: %d\n", tally.Pages)
	fmt.Fprintf(&b, "🔎 Opportunities: %d\n", tally.Opportunities)
	fmt.Fprintf(&b, "✅ Applied: %d\n", tally.Applied)
	fmt.Fprintf(&b, "🔁 Synced: %d\n", tally.Synced)
	fmt.Fprintf(&b, "💾 Saved: %d\n", tally.Saved)
	fmt.Fprintf(&b, "🚫 Rejected: %d\n", tally.Rejected)
	fmt.Fprintf(&b, "❌ Failed: %d\n", tally.Failed)
	if err != nil {
		fmt.Fprintf(&b, "⚠️ %s\n", escapeMarkdown(err.Error()))
	}
	return b.String()
}
