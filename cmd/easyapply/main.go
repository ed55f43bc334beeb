package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/campaign"
	"go-easyapply-automation/internal/campaign/indeed"
	"go-easyapply-automation/internal/campaign/monster"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/dedup"
	"go-easyapply-automation/internal/filter"
	"go-easyapply-automation/internal/logger"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/reporter"
	"go-easyapply-automation/internal/secrets"
	"go-easyapply-automation/internal/status"
	"go-easyapply-automation/utils"
)

type options struct {
	path      string
	verbose   bool
	site      string
	maxPages  int
	list      bool
	logFormat string
}

func parseFlags() options {
	var o options
	flag.StringVarP(&o.path, "path", "p", config.DefaultPath, "campaign config file")
	flag.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging and failure screenshots")
	flag.StringVar(&o.site, "site", "", "override the configured site (indeed, monster)")
	flag.IntVar(&o.maxPages, "max-pages", 0, "stop after this many results pages")
	flag.BoolVar(&o.list, "list", false, "print stored opportunities and exit")
	flag.StringVar(&o.logFormat, "log-format", "console", "console or json")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	log, err := logger.New(opts.verbose, opts.logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("👋 Interrupted")
			return
		}
		log.Error("❌ Fatal", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log *zap.Logger) error {
	cfg, err := config.Load(opts.path)
	if err != nil {
		return err
	}
	if opts.site != "" {
		cfg.Site = models.Site(opts.site)
		if !cfg.Site.Valid() {
			return fmt.Errorf("unknown site %q", opts.site)
		}
	}
	if flag.CommandLine.Changed("max-pages") {
		cfg.Campaign.MaxPages = opts.maxPages
	}
	log.Info("🔧 Config loaded",
		zap.String("site", string(cfg.Site)),
		zap.String("position", cfg.Opportunity.Position),
		zap.String("location", cfg.Opportunity.Location))

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	opps := store.ForSite(cfg.Site)

	if opts.list {
		return printOpportunities(ctx, os.Stdout, opps)
	}

	if err := secrets.Resolve(cfg); err != nil {
		return err
	}

	release, err := browser.LockSession(lockPath(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	if cfg.Browser.KillStale {
		if _, err := browser.KillStale(browser.DefaultStaleNames, log); err != nil {
			log.Warn("⚠️ Could not list processes", zap.Error(err))
		}
	}

	d, err := browser.Launch(ctx, cfg.Browser, log)
	if err != nil {
		return err
	}
	defer d.Close()
	log.Info("✅ Browser initialized successfully!")

	var shots *utils.ScreenshotDebugger
	if opts.verbose {
		if shots, err = utils.NewScreenshotDebugger(cfg.Browser.ScreenshotDir, log); err != nil {
			log.Warn("⚠️ Screenshots disabled", zap.Error(err))
		}
	}

	confirm := consoleConfirmer{in: os.Stdin, out: os.Stderr}
	site, err := newSite(d, cfg, confirm, shots, log)
	if err != nil {
		return err
	}

	reporters := campaign.Reporters{reporter.NewLog(log)}
	if cfg.Telegram.Token != "" {
		tg, err := reporter.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Warn("⚠️ Telegram disabled", zap.Error(err))
		} else {
			log.Info("🤖 Telegram Bot initialized.")
			reporters = append(reporters, tg)
		}
	}
	if cfg.Status.Listen != "" {
		srv := status.New(cfg.Site, nil, log)
		srv.Start(cfg.Status.Listen)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		reporters = append(reporters, srv)
	}

	runner := campaign.NewRunner(site, dedup.New(opps), filter.FromConfig(cfg), campaign.Options{
		MaxPages:        cfg.Campaign.MaxPages,
		PostingInterval: cfg.Campaign.PostingInterval,
		Reporter:        reporters,
	}, log)

	tally, err := runner.Run(ctx)
	fmt.Println(tally)
	return err
}

func newSite(d browser.Driver, cfg *config.Config, confirm campaign.Confirmer, shots *utils.ScreenshotDebugger, log *zap.Logger) (campaign.Site, error) {
	switch cfg.Site {
	case models.SiteIndeed:
		var opts []indeed.Option
		if shots != nil {
			opts = append(opts, indeed.WithScreenshots(shots))
		}
		c, err := indeed.New(d, cfg, confirm, log, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case models.SiteMonster:
		var opts []monster.Option
		if shots != nil {
			opts = append(opts, monster.WithScreenshots(shots))
		}
		return monster.New(d, cfg, confirm, log, opts...), nil
	default:
		return nil, fmt.Errorf("unknown site %q", cfg.Site)
	}
}

// lockPath keeps one run per browser profile, or per site without one.
func lockPath(cfg *config.Config) string {
	if cfg.Browser.Profile != "" {
		return filepath.Join(cfg.Browser.Profile, "easyapply.lock")
	}
	return filepath.Join(os.TempDir(), "easyapply-"+string(cfg.Site)+".lock")
}
