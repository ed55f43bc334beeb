// Package monster is the multi-window campaign: every posting opens in a
// second window, and its apply button opens a third one that is either
// Monster's own contact form or an external careers site.
package monster

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/campaign"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/textnorm"
	"go-easyapply-automation/utils"
)

const DefaultBaseURL = "https://www.monster.com"

const (
	selLoginEmail    = "#email"
	selLoginPassword = "#password"

	selResults     = `div[class*="job-search-resultsstyle__CardGrid-sc"]`
	selCard        = `div > a[class*="job-cardstyle__JobCardComponent-sc"]`
	selTitle       = `h1[class*="headerstyle__JobViewHeaderTitle"]`
	selCompany     = `h2[class*="headerstyle__JobViewHeaderCompany"]`
	selLocation    = `h3[class*="headerstyle__JobViewHeaderLocation"]`
	selDescription = `div[class*="descriptionstyles__DescriptionBody"]`
	selApply       = `button[class*="apply-buttonstyle__JobApplyButton"]`
	selApplied     = `h3[class*="message-containerstyles__MessageTitle"]`
	selSubmit      = `button[role="button"][type="submit"]`
)

// contactField is an input of the internal apply form.
type contactField struct {
	selector string
	value    func(config.Monster) string
}

var contactFields = []contactField{
	{`[id="contactInfo.user.firstName"]`, func(m config.Monster) string { return m.FirstName }},
	{`[id="contactInfo.user.lastName"]`, func(m config.Monster) string { return m.LastName }},
	{`[id="contactInfo.contactInfo.pronoun"]`, func(m config.Monster) string { return m.Pronouns }},
	{`[id="contactInfo.contactInfo.primaryPhoneNumber.phoneNumber"]`, func(m config.Monster) string { return m.PhoneNumber }},
	{`[id="contactInfo.country"]`, func(m config.Monster) string { return m.Country }},
	{`[id="contactInfo.postalCode"]`, func(m config.Monster) string { return m.PostalCode }},
	{`[id="contactInfo.region"]`, func(m config.Monster) string { return m.Region }},
	{`[id="contactInfo.city"]`, func(m config.Monster) string { return m.City }},
}

const selPhoneType = `[id="contactInfo.contactInfo.primaryPhoneNumber.phoneTypeId"]`

type Campaign struct {
	d       browser.Driver
	cfg     *config.Config
	base    *url.URL
	confirm campaign.Confirmer
	shots   *utils.ScreenshotDebugger
	log     *zap.Logger

	humanize bool
	page     int
	onPage   int
}

var _ campaign.Site = (*Campaign)(nil)

type Option func(*Campaign)

func WithBaseURL(base string) Option {
	return func(c *Campaign) {
		if u, err := url.Parse(strings.TrimRight(base, "/")); err == nil {
			c.base = u
		}
	}
}

func WithScreenshots(s *utils.ScreenshotDebugger) Option {
	return func(c *Campaign) { c.shots = s }
}

// WithHumanize toggles the scrolling and random pauses between actions.
func WithHumanize(on bool) Option {
	return func(c *Campaign) { c.humanize = on }
}

func New(d browser.Driver, cfg *config.Config, confirm campaign.Confirmer, log *zap.Logger, opts ...Option) *Campaign {
	if confirm == nil {
		confirm = campaign.NoConfirm
	}
	base, _ := url.Parse(DefaultBaseURL)
	c := &Campaign{
		d:       d,
		cfg:     cfg,
		base:    base,
		confirm: confirm,
		log:     log.With(zap.String("site", string(models.SiteMonster))),

		humanize: true,
		page:     1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Campaign) Name() models.Site { return models.SiteMonster }

func (c *Campaign) Login(ctx context.Context) error {
	if c.cfg.Browser.HasSession() {
		c.log.Info("🍪 Using existing browser session, skipping login")
		return nil
	}
	return campaign.Login(ctx, c.d, campaign.LoginForm{
		URL:              c.base.String() + "/profile/detail",
		UserSelector:     selLoginEmail,
		PasswordSelector: selLoginPassword,
		SubmitOnEnter:    true,
	}, campaign.Credentials{
		Username: c.cfg.Opportunity.Username,
		Password: c.cfg.Opportunity.Password,
	}, c.confirm, c.cfg.Engine.ElementTimeout, c.log)
}

// SearchURL is results page n for position and location.
func SearchURL(base, position, location string, page int) string {
	u := fmt.Sprintf("%s/jobs/search?q=%s&where=%s", base, url.QueryEscape(position), url.QueryEscape(location))
	if page > 1 {
		u += fmt.Sprintf("&page=%d", page)
	}
	return u
}

func (c *Campaign) Search(ctx context.Context) error {
	u := SearchURL(c.base.String(), c.cfg.Opportunity.Position, c.cfg.Opportunity.Location, c.page)
	c.log.Info("🔍 Searching", zap.String("url", u))
	return c.d.Navigate(ctx, u)
}

func (c *Campaign) Postings(ctx context.Context) ([]campaign.Posting, error) {
	// the result grid renders client side
	_ = c.d.WaitFor(ctx, selResults, c.cfg.Engine.ElementTimeout)
	if c.humanize {
		if err := browser.HumanScroll(ctx, c.d); err != nil {
			return nil, err
		}
	}

	doc, err := c.d.Document()
	if err != nil {
		return nil, err
	}

	var postings []campaign.Posting
	doc.Find(selResults).First().Find(selCard).Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Attr("href")
		postings = append(postings, campaign.Posting{Link: c.resolve(href), Card: card})
	})
	c.onPage = len(postings)
	return postings, nil
}

// resolve turns protocol-relative and relative hrefs into absolute links
// without query noise so the same posting always has the same key.
func (c *Campaign) resolve(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	u := c.base.ResolveReference(ref)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// NextPage has no control to click: Monster pages by query parameter, and a
// page without cards is the last one.
func (c *Campaign) NextPage(ctx context.Context) (bool, error) {
	if c.onPage == 0 {
		return false, nil
	}
	c.page++
	u := SearchURL(c.base.String(), c.cfg.Opportunity.Position, c.cfg.Opportunity.Location, c.page)
	if err := c.d.Navigate(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// Open loads the posting in a second window and parses it. release closes
// that window and returns to the results.
func (c *Campaign) Open(ctx context.Context, p campaign.Posting) (*models.Opportunity, func(), error) {
	home := c.d.Current()
	release := func() {
		if err := browser.CloseOthers(c.d, home); err != nil {
			c.log.Warn("⚠️ Could not restore search window", zap.Error(err))
		}
	}

	if _, err := c.d.OpenWindow(ctx, p.Link); err != nil {
		release()
		return nil, nil, err
	}

	if err := c.d.WaitFor(ctx, selTitle, c.cfg.Engine.ElementTimeout); err != nil {
		release()
		return nil, nil, fmt.Errorf("posting page: %w", err)
	}
	doc, err := c.d.Document()
	if err != nil {
		release()
		return nil, nil, err
	}

	opp := ParsePosting(doc, p.Link)
	opp.EasyApply = doc.Find(selApply).Length() > 0
	return opp, release, nil
}

// ParsePosting reads the job view page.
func ParsePosting(doc *goquery.Document, link string) *models.Opportunity {
	opp := models.NewOpportunity(models.SiteMonster)
	opp.Link = link
	opp.Position = textnorm.Squash(doc.Find(selTitle).First().Text())
	opp.Company = textnorm.Squash(doc.Find(selCompany).First().Text())
	opp.Location = textnorm.Squash(doc.Find(selLocation).First().Text())

	body := doc.Find(selDescription).First()
	opp.Description = strings.TrimSpace(body.Text())
	for _, line := range strings.Split(opp.Description, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > len("salary") && strings.EqualFold(line[:len("salary")], "salary") {
			opp.Salary = strings.TrimSpace(strings.TrimLeft(line[len("salary"):], ": "))
			break
		}
	}
	return opp
}

// Apply clicks the posting's apply button, which opens a third window. The
// window is closed and focus returned to the posting on every path.
func (c *Campaign) Apply(ctx context.Context, opp *models.Opportunity) (outcome campaign.Outcome, err error) {
	back := c.d.Current()

	w, err := c.d.ClickForWindow(ctx, selApply, c.cfg.Engine.ApplyTimeout)
	if err != nil {
		return campaign.OutcomeFailed, fmt.Errorf("apply window: %w", err)
	}
	defer func() {
		if err != nil && c.shots != nil {
			_, _ = c.shots.CaptureAndLog(c.d, "monster-"+opp.Company, "Monster apply failed")
		}
		if cerr := c.d.CloseWindow(w); cerr != nil {
			c.log.Warn("⚠️ Could not close apply window", zap.Error(cerr))
		}
		if serr := c.d.SwitchTo(back); serr != nil {
			c.log.Warn("⚠️ Could not switch back to posting", zap.Error(serr))
		}
	}()

	if !c.internal(c.d.URL()) {
		return campaign.OutcomeSaved, nil
	}
	if c.humanize {
		if err := browser.RandomDelay(ctx, 500, 1500); err != nil {
			return campaign.OutcomeFailed, err
		}
	}
	if ok, err := c.d.Present(selApplied); err != nil {
		return campaign.OutcomeFailed, err
	} else if ok {
		return campaign.OutcomeSynced, nil
	}

	if err := c.fillContact(); err != nil {
		return campaign.OutcomeFailed, err
	}
	if err := browser.ScrollToBottom(c.d); err != nil {
		return campaign.OutcomeFailed, err
	}
	if err := browser.WaitAndClick(ctx, c.d, selSubmit, c.cfg.Engine.ElementTimeout); err != nil {
		return campaign.OutcomeFailed, fmt.Errorf("submit: %w", err)
	}
	opp.Applied = true
	return campaign.OutcomeApplied, nil
}

// internal reports whether the apply window stayed on Monster.
func (c *Campaign) internal(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	want := strings.TrimPrefix(strings.ToLower(c.base.Hostname()), "www.")
	return host == want || strings.HasSuffix(host, "."+want)
}

// fillContact types configured contact details into fields Monster left
// empty. Prefilled profile values are kept.
func (c *Campaign) fillContact() error {
	for _, f := range contactFields {
		v := f.value(c.cfg.Monster)
		if v == "" {
			continue
		}
		present, err := c.d.Present(f.selector)
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		if _, filled, err := c.d.Attr(f.selector, "value"); err != nil {
			return err
		} else if filled {
			continue
		}
		if err := c.d.ScrollIntoView(f.selector); err != nil {
			return err
		}
		if err := c.d.Type(f.selector, v); err != nil {
			return fmt.Errorf("fill %s: %w", f.selector, err)
		}
	}

	if pt := c.cfg.Monster.PhoneType; pt != "" {
		if ok, _ := c.d.Present(selPhoneType); ok {
			if err := c.d.Select(selPhoneType, pt); err != nil {
				c.log.Debug("could not select phone type", zap.Error(err))
			}
		}
	}
	return nil
}
