// Package indeed is the in-page easy-apply campaign: result cards carry an
// "Easily apply" tag and the application is a wizard driven by apply.Engine.
package indeed

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/answer"
	"go-easyapply-automation/internal/apply"
	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/campaign"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/filter"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/textnorm"
	"go-easyapply-automation/utils"
)

type Campaign struct {
	d       browser.Driver
	cfg     *config.Config
	base    string
	lists   filter.Lists
	matcher *answer.Matcher
	engine  *apply.Engine
	confirm campaign.Confirmer
	shots   *utils.ScreenshotDebugger
	log     *zap.Logger
}

var _ campaign.Site = (*Campaign)(nil)

type Option func(*Campaign)

// WithBaseURL points the campaign at another host, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(c *Campaign) { c.base = strings.TrimRight(base, "/") }
}

// WithScreenshots captures the apply window when an attempt fails.
func WithScreenshots(s *utils.ScreenshotDebugger) Option {
	return func(c *Campaign) { c.shots = s }
}

func New(d browser.Driver, cfg *config.Config, confirm campaign.Confirmer, log *zap.Logger, opts ...Option) (*Campaign, error) {
	if confirm == nil {
		confirm = campaign.NoConfirm
	}
	c := &Campaign{
		d:       d,
		cfg:     cfg,
		base:    DefaultBaseURL,
		lists:   filter.FromConfig(cfg),
		matcher: answer.FromConfig(cfg),
		confirm: confirm,
		log:     log.With(zap.String("site", string(models.SiteIndeed))),
	}
	for _, o := range opts {
		o(c)
	}

	classifier, err := apply.NewClassifier(Headings...).WithOverrides(cfg.Headings)
	if err != nil {
		return nil, err
	}
	c.engine = apply.NewEngine(d, classifier, c.handlers(), apply.Options{
		HeadingSelector: selHeading,
		HeadingTimeout:  cfg.Engine.ElementTimeout,
		MaxSteps:        cfg.Engine.MaxSteps,
		AbortOnMissed:   cfg.Answers.AbortOnMissed,
	}, c.log)
	return c, nil
}

func (c *Campaign) Name() models.Site { return models.SiteIndeed }

func (c *Campaign) Login(ctx context.Context) error {
	if c.cfg.Browser.HasSession() {
		c.log.Info("🍪 Using existing browser session, skipping login")
		return nil
	}
	return campaign.Login(ctx, c.d, campaign.LoginForm{
		URL:              c.base + "/account/login",
		UserSelector:     selLoginEmail,
		PasswordSelector: selLoginPassword,
	}, campaign.Credentials{
		Username: c.cfg.Opportunity.Username,
		Password: c.cfg.Opportunity.Password,
	}, c.confirm, c.cfg.Engine.ElementTimeout, c.log)
}

// SearchURL is the first results page for position and location.
func SearchURL(base, position, location string) string {
	return fmt.Sprintf("%s/jobs?q=%s&l=%s", base, url.QueryEscape(position), url.QueryEscape(location))
}

func (c *Campaign) Search(ctx context.Context) error {
	u := SearchURL(c.base, c.cfg.Opportunity.Position, c.cfg.Opportunity.Location)
	c.log.Info("🔍 Searching", zap.String("url", u))
	return c.d.Navigate(ctx, u)
}

func (c *Campaign) Postings(ctx context.Context) ([]campaign.Posting, error) {
	if ok, _ := c.d.Present(selPopupClose); ok {
		if err := c.d.Click(selPopupClose); err != nil {
			c.log.Debug("could not close popup", zap.Error(err))
		}
	}

	doc, err := c.d.Document()
	if err != nil {
		return nil, err
	}

	var postings []campaign.Posting
	doc.Find(selCard).Each(func(_ int, card *goquery.Selection) {
		postings = append(postings, campaign.Posting{Link: c.link(card), Card: card})
	})
	return postings, nil
}

// link builds the canonical posting link from the card's job tokens.
func (c *Campaign) link(card *goquery.Selection) string {
	jk, _ := card.Attr("data-jk")
	tk, _ := card.Attr("data-mobtk")
	if jk == "" {
		return ""
	}
	return fmt.Sprintf("%s/viewjob?jk=%s&tk=%s", c.base, url.QueryEscape(jk), url.QueryEscape(tk))
}

// Open parses the result card. Nothing is acquired, release is a no-op.
func (c *Campaign) Open(ctx context.Context, p campaign.Posting) (*models.Opportunity, func(), error) {
	if p.Card == nil {
		return nil, nil, fmt.Errorf("posting %s has no card", p.Link)
	}
	return ParseCard(p.Card, p.Link), func() {}, nil
}

// ParseCard reads an opportunity from a search result card.
func ParseCard(card *goquery.Selection, link string) *models.Opportunity {
	opp := models.NewOpportunity(models.SiteIndeed)
	opp.Link = link
	opp.Position = text(card.Find(selCardTitle))
	opp.Company = text(card.Find(selCompany))
	opp.Location = text(card.Find(selLocation))
	opp.Salary = text(card.Find(selSalary))

	var snippet []string
	card.Find(selSnippet).Each(func(_ int, li *goquery.Selection) {
		snippet = append(snippet, textnorm.Squash(li.Text()))
	})
	opp.Description = strings.Join(snippet, "\n")

	opp.Applied = card.Find(selApplied).Length() > 0
	opp.EasyApply = card.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		return t == textEasilyApply || strings.HasPrefix(t, textEasyResume)
	}).Length() > 0
	return opp
}

func text(s *goquery.Selection) string {
	return textnorm.Squash(s.First().Text())
}

func (c *Campaign) NextPage(ctx context.Context) (bool, error) {
	ok, err := c.d.Present(selNextPage)
	if err != nil || !ok {
		return false, err
	}
	if err := browser.ScrollToBottom(c.d); err != nil {
		return false, err
	}
	if err := c.d.Click(selNextPage); err != nil {
		return false, err
	}
	return true, nil
}

// Apply opens the posting in its own window, re-checks the full description
// and runs the wizard. The window is closed on every path.
func (c *Campaign) Apply(ctx context.Context, opp *models.Opportunity) (outcome campaign.Outcome, err error) {
	home := c.d.Current()
	defer func() {
		if cerr := browser.CloseOthers(c.d, home); cerr != nil {
			c.log.Warn("⚠️ Could not restore search window", zap.Error(cerr))
		}
	}()

	if _, err := c.d.OpenWindow(ctx, opp.Link); err != nil {
		return campaign.OutcomeFailed, err
	}
	defer func() {
		if err != nil && c.shots != nil {
			_, _ = c.shots.CaptureAndLog(c.d, "indeed-"+opp.Company, "Indeed apply failed")
		}
	}()

	if err := c.d.WaitFor(ctx, selDescription, c.cfg.Engine.ElementTimeout); err == nil {
		if desc, ok, _ := c.d.Text(selDescription); ok {
			opp.Description = desc
			if d := filter.Classify(opp, c.descriptionLists()); !d.Accepted {
				opp.Status = models.StatusRejected
				c.log.Debug("rejected on full description", zap.String("reason", string(d.Reason)), zap.String("keyword", d.Keyword))
				return campaign.OutcomeRejected, nil
			}
		}
	}

	if err := browser.WaitAndClick(ctx, c.d, selApplyButton, c.cfg.Engine.ApplyTimeout); err != nil {
		return campaign.OutcomeFailed, fmt.Errorf("apply button: %w", err)
	}

	// Indeed sometimes shows "you applied" for postings we never finished
	if ok, _ := c.d.Present(selAppliedBug); ok {
		c.log.Debug("applied banner shown after clicking apply")
		return campaign.OutcomeSynced, nil
	}
	if ok, _ := c.d.Present(selApplied); ok {
		return campaign.OutcomeSynced, nil
	}

	res, err := c.engine.Run(ctx, opp)
	if err != nil {
		return campaign.OutcomeFailed, err
	}
	if res.Missed > 0 {
		c.log.Info("❓ Submitted with unanswered questions", zap.Int("missed", res.Missed), zap.Stringer("opportunity", opp))
	}
	c.log.Debug("wizard done", zap.Stringer("trace", res))
	return campaign.OutcomeApplied, nil
}

// descriptionLists checks the full description whatever list_type says, the
// result card only carried a snippet.
func (c *Campaign) descriptionLists() filter.Lists {
	l := c.lists
	l.Scope = config.ListTitleAndDescription
	return l
}
