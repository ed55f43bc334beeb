// Load envs from .env
// Load YAML campaign config
// Apply env overrides and defaults
// Validate before any browser is started

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-easyapply-automation/internal/models"
)

const DefaultPath = "easyapply.yml"

type ListType string

const (
	ListTitleOnly           ListType = "title"
	ListTitleAndDescription ListType = "title_and_description"
)

type WhitelistMode string

const (
	// WhitelistRejectOnMatch keeps the historical behaviour: a whitelist hit rejects.
	WhitelistRejectOnMatch WhitelistMode = "reject_on_match"
	// WhitelistRequireMatch accepts only postings that contain a whitelist keyword.
	WhitelistRequireMatch WhitelistMode = "require_match"
)

type DatabaseType string

const (
	DatabaseSQLite   DatabaseType = "sqlite"
	DatabasePostgres DatabaseType = "postgres"
)

type Config struct {
	Site        models.Site       `yaml:"site"`
	Database    Database          `yaml:"database"`
	Opportunity Opportunity       `yaml:"opportunity"`
	Questions   []AnswerRule      `yaml:"questions"`
	Answers     Answers           `yaml:"answers"`
	Indeed      Indeed            `yaml:"indeed"`
	Monster     Monster           `yaml:"monster"`
	Browser     Browser           `yaml:"browser"`
	Engine      Engine            `yaml:"engine"`
	Campaign    Campaign          `yaml:"campaign"`
	Telegram    Telegram          `yaml:"telegram"`
	Status      Status            `yaml:"status"`
	Headings    map[string]string `yaml:"headings"`
}

type Database struct {
	Type DatabaseType `yaml:"type"`
	Path string       `yaml:"path"`
	URL  string       `yaml:"url" env:"DATABASE_URL"`
}

type Opportunity struct {
	Username         string        `yaml:"username" env:"EASYAPPLY_USERNAME"`
	Password         string        `yaml:"password" env:"EASYAPPLY_PASSWORD"`
	KeyringAccount   string        `yaml:"keyring_account"`
	Position         string        `yaml:"position"`
	Location         string        `yaml:"location"`
	Resume           string        `yaml:"resume"`
	CoverLetter      string        `yaml:"cover_letter"`
	ListType         ListType      `yaml:"list_type"`
	CaseSensitive    bool          `yaml:"case_sensitive"`
	WhitelistMode    WhitelistMode `yaml:"whitelist_mode"`
	Whitelist        []string      `yaml:"whitelist"`
	Blacklist        []string      `yaml:"blacklist"`
	CompanyBlacklist []string      `yaml:"company_blacklist"`
}

type AnswerRule struct {
	Substring string `yaml:"substring"`
	Answer    string `yaml:"answer"`
}

type Answers struct {
	Placeholder        string `yaml:"placeholder"`
	RadioFallbackIndex int    `yaml:"radio_fallback_index"`
	AbortOnMissed      bool   `yaml:"abort_on_missed"`
}

type Indeed struct {
	BypassRequirements bool `yaml:"bypass_requirements"`
}

type Monster struct {
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	Pronouns    string `yaml:"pronouns"`
	PhoneNumber string `yaml:"phone_number"`
	PhoneType   string `yaml:"phone_type"`
	Country     string `yaml:"country"`
	PostalCode  string `yaml:"postal_code"`
	Region      string `yaml:"region"`
	City        string `yaml:"city"`
}

type Browser struct {
	Type          string `yaml:"type"`
	Profile       string `yaml:"profile"`
	CookiesPath   string `yaml:"cookies_path"`
	Headless      bool   `yaml:"headless"`
	Incognito     bool   `yaml:"incognito"`
	Agent         string `yaml:"agent"`
	WindowWidth   int    `yaml:"window_width"`
	WindowHeight  int    `yaml:"window_height"`
	Proxy         *Proxy `yaml:"proxy"`
	KillStale     bool   `yaml:"kill_stale"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

type Proxy struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Engine struct {
	MaxSteps       int           `yaml:"max_steps"`
	ElementTimeout time.Duration `yaml:"element_timeout"`
	ApplyTimeout   time.Duration `yaml:"apply_timeout"`
}

type Campaign struct {
	MaxPages        int           `yaml:"max_pages"`
	PostingInterval time.Duration `yaml:"posting_interval"`
}

type Telegram struct {
	Token  string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

type Status struct {
	Listen string `yaml:"listen"`
}

// HasSession reports whether the browser starts with a persisted login,
// in which case the campaign skips the login form entirely.
func (b Browser) HasSession() bool {
	return b.Profile != "" || b.CookiesPath != ""
}

// Load reads .env, then the YAML file at path, applies env overrides and
// defaults, and validates. An empty path falls back to DefaultPath.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read campaign config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML without touching the environment or filling defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing campaign config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("EASYAPPLY_USERNAME"); v != "" {
		c.Opportunity.Username = v
	}
	if v := os.Getenv("EASYAPPLY_PASSWORD"); v != "" {
		c.Opportunity.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Site == "" {
		c.Site = models.SiteIndeed
	}
	if c.Database.Type == "" {
		c.Database.Type = DatabaseSQLite
	}
	if c.Database.Type == DatabaseSQLite && c.Database.Path == "" {
		c.Database.Path = "easyapply.db"
	}
	if c.Opportunity.ListType == "" {
		c.Opportunity.ListType = ListTitleOnly
	}
	if c.Opportunity.WhitelistMode == "" {
		c.Opportunity.WhitelistMode = WhitelistRejectOnMatch
	}
	if c.Answers.Placeholder == "" {
		c.Answers.Placeholder = "1"
	}
	if c.Browser.Type == "" {
		c.Browser.Type = "chromium"
	}
	if c.Browser.ScreenshotDir == "" {
		c.Browser.ScreenshotDir = "logs/screenshots"
	}
	if c.Engine.MaxSteps == 0 {
		c.Engine.MaxSteps = 25
	}
	if c.Engine.ElementTimeout == 0 {
		c.Engine.ElementTimeout = 5 * time.Second
	}
	if c.Engine.ApplyTimeout == 0 {
		c.Engine.ApplyTimeout = 10 * time.Second
	}
	if c.Campaign.PostingInterval == 0 {
		c.Campaign.PostingInterval = 3 * time.Second
	}
}

// Validate fails on anything that would otherwise blow up mid-run.
func (c *Config) Validate() error {
	var errs []error

	if !c.Site.Valid() {
		errs = append(errs, fmt.Errorf("site %q is not one of %v", c.Site, models.Sites))
	}
	if strings.TrimSpace(c.Opportunity.Position) == "" {
		errs = append(errs, errors.New("opportunity.position is required"))
	}

	switch c.Database.Type {
	case DatabaseSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DatabasePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url (or DATABASE_URL) is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.type %q", c.Database.Type))
	}

	switch c.Opportunity.ListType {
	case ListTitleOnly, ListTitleAndDescription:
	default:
		errs = append(errs, fmt.Errorf("unknown opportunity.list_type %q", c.Opportunity.ListType))
	}

	switch c.Opportunity.WhitelistMode {
	case WhitelistRejectOnMatch, WhitelistRequireMatch:
	default:
		errs = append(errs, fmt.Errorf("unknown opportunity.whitelist_mode %q", c.Opportunity.WhitelistMode))
	}

	for i, q := range c.Questions {
		if strings.TrimSpace(q.Substring) == "" {
			errs = append(errs, fmt.Errorf("questions[%d]: substring is empty", i))
		}
		if q.Answer == "" {
			errs = append(errs, fmt.Errorf("questions[%d] (%q): answer is empty", i, q.Substring))
		}
	}

	if c.Answers.RadioFallbackIndex < 0 {
		errs = append(errs, errors.New("answers.radio_fallback_index must be >= 0"))
	}
	if c.Engine.MaxSteps < 1 {
		errs = append(errs, errors.New("engine.max_steps must be >= 1"))
	}
	if c.Campaign.MaxPages < 0 {
		errs = append(errs, errors.New("campaign.max_pages must be >= 0"))
	}

	switch c.Browser.Type {
	case "chromium", "chrome", "firefox", "webkit":
	default:
		errs = append(errs, fmt.Errorf("unknown browser.type %q", c.Browser.Type))
	}

	if !c.Browser.HasSession() && c.Opportunity.Username == "" {
		errs = append(errs, errors.New("opportunity.username is required when no browser profile or cookies are configured"))
	}

	for _, p := range []struct{ key, path string }{
		{"opportunity.resume", c.Opportunity.Resume},
		{"opportunity.cover_letter", c.Opportunity.CoverLetter},
	} {
		if p.path == "" {
			continue
		}
		if _, err := os.Stat(p.path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.key, err))
		}
	}

	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("telegram.token and telegram.chat_id must be set together"))
	}

	return errors.Join(errs...)
}
