// Package apply runs multi-page application wizards: read the page heading,
// classify it, run the handler registered for that step, repeat until the
// review page has been submitted.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/models"
)

var (
	// ErrStepLimit stops a wizard that never reaches its review page.
	ErrStepLimit = errors.New("wizard step limit reached")
	// ErrRequirementsNotBypassed is returned by a handler that would have to
	// skip an employer requirement the config does not allow skipping.
	ErrRequirementsNotBypassed = errors.New("employer requirements not bypassed")
	// ErrMissedQuestions aborts an attempt with unanswered required
	// questions when answers.abort_on_missed is set.
	ErrMissedQuestions = errors.New("required questions missed")
)

const DefaultMaxSteps = 25

// Attempt is the state shared with handlers for one wizard page.
type Attempt struct {
	Opportunity *models.Opportunity
	Heading     string
	Step        Step
	// Missed is incremented by handlers for every question answered by the
	// fallback policy instead of a rule.
	Missed        int
	AbortOnMissed bool
}

// CheckMissed returns ErrMissedQuestions when the attempt must stop because
// of missed questions. Handlers call it before advancing the page.
func (a *Attempt) CheckMissed() error {
	if a.AbortOnMissed && a.Missed > 0 {
		return fmt.Errorf("%w: %d on %q", ErrMissedQuestions, a.Missed, a.Heading)
	}
	return nil
}

// Handler executes one wizard page. It is called exactly once per page.
type Handler func(ctx context.Context, a *Attempt) error

type Handlers map[Step]Handler

// Result summarises a wizard run.
type Result struct {
	Steps  int
	Trace  []Step
	Missed int
	// Submitted is true once the review handler returned without error.
	Submitted bool
}

func (r Result) String() string {
	names := make([]string, len(r.Trace))
	for i, s := range r.Trace {
		names[i] = s.String()
	}
	return strings.Join(names, " -> ")
}

type Options struct {
	// HeadingSelector locates the page heading.
	HeadingSelector string
	HeadingTimeout  time.Duration
	MaxSteps        int
	AbortOnMissed   bool
}

type Engine struct {
	driver     browser.Driver
	classifier *Classifier
	handlers   Handlers
	opts       Options
	log        *zap.Logger
}

func NewEngine(d browser.Driver, c *Classifier, h Handlers, opts Options, log *zap.Logger) *Engine {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.HeadingTimeout <= 0 {
		opts.HeadingTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{driver: d, classifier: c, handlers: h, opts: opts, log: log}
}

// Run drives the wizard for opp until the review step is handled. On success
// opp.Applied is set; nothing is persisted.
func (e *Engine) Run(ctx context.Context, opp *models.Opportunity) (Result, error) {
	var res Result

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if res.Steps >= e.opts.MaxSteps {
			return res, fmt.Errorf("%w: %d steps (%s)", ErrStepLimit, res.Steps, res)
		}

		heading, err := e.heading(ctx)
		if err != nil {
			return res, err
		}
		step := e.classifier.Classify(heading)

		a := &Attempt{
			Opportunity:   opp,
			Heading:       heading,
			Step:          step,
			AbortOnMissed: e.opts.AbortOnMissed,
		}

		e.log.Debug("wizard step",
			zap.Int("n", res.Steps+1),
			zap.Stringer("step", step),
			zap.String("heading", heading))

		err = e.handle(ctx, a)
		res.Steps++
		res.Trace = append(res.Trace, step)
		res.Missed += a.Missed
		if err != nil {
			return res, fmt.Errorf("%s step: %w", step, err)
		}
		if err := a.CheckMissed(); err != nil {
			return res, err
		}

		if step == StepReview {
			res.Submitted = true
			opp.Applied = true
			return res, nil
		}
	}
}

func (e *Engine) handle(ctx context.Context, a *Attempt) error {
	h, ok := e.handlers[a.Step]
	if !ok || h == nil {
		if a.Step == StepUnknown {
			e.log.Debug("no handler for heading, advancing", zap.String("heading", a.Heading))
		}
		return nil
	}
	return h(ctx, a)
}

func (e *Engine) heading(ctx context.Context) (string, error) {
	if err := e.driver.WaitFor(ctx, e.opts.HeadingSelector, e.opts.HeadingTimeout); err != nil {
		return "", fmt.Errorf("wizard heading: %w", err)
	}
	text, _, err := e.driver.Text(e.opts.HeadingSelector)
	if err != nil {
		return "", fmt.Errorf("wizard heading: %w", err)
	}
	return strings.TrimSpace(text), nil
}
