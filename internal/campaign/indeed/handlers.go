package indeed

import (
	"context"

	"go-easyapply-automation/internal/apply"
	"go-easyapply-automation/internal/browser"
)

func (c *Campaign) handlers() apply.Handlers {
	return apply.Handlers{
		apply.StepResumeUpload:   c.resumeStep,
		apply.StepQuestions:      c.questionsStep,
		apply.StepPastExperience: c.continueStep,
		apply.StepQualifications: c.continueStep,
		apply.StepCoverLetter:    c.coverLetterStep,
		apply.StepReview:         c.continueStep,
		apply.StepUnknown:        c.unknownStep,
	}
}

// next scrolls down and clicks the wizard's continue (or submit) button.
func (c *Campaign) next(ctx context.Context) error {
	if err := browser.ScrollToBottom(c.d); err != nil {
		return err
	}
	return browser.WaitAndClick(ctx, c.d, selContinue, c.cfg.Engine.ElementTimeout)
}

func (c *Campaign) continueStep(ctx context.Context, _ *apply.Attempt) error {
	return c.next(ctx)
}

// resumeStep picks the resume already uploaded to the Indeed profile.
func (c *Campaign) resumeStep(ctx context.Context, _ *apply.Attempt) error {
	if err := browser.WaitAndClick(ctx, c.d, selResumeCard, c.cfg.Engine.ElementTimeout); err != nil {
		return err
	}
	return c.next(ctx)
}

func (c *Campaign) questionsStep(ctx context.Context, a *apply.Attempt) error {
	doc, err := c.d.Document()
	if err != nil {
		return err
	}
	for _, f := range ParseQuestions(doc) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.answer(f, a); err != nil {
			return err
		}
	}
	if err := a.CheckMissed(); err != nil {
		return err
	}
	return c.next(ctx)
}

// coverLetterStep uploads the configured letter, or falls back to the letter
// Indeed writes from the profile.
func (c *Campaign) coverLetterStep(ctx context.Context, _ *apply.Attempt) error {
	if !c.cfg.Indeed.BypassRequirements {
		return apply.ErrRequirementsNotBypassed
	}

	uploaded := false
	if path := c.cfg.Opportunity.CoverLetter; path != "" {
		if ok, _ := c.d.Present(selCoverUpload); ok {
			if err := c.d.SetFiles(selCoverUpload, path); err != nil {
				return err
			}
			uploaded = true
		}
	}
	if !uploaded {
		if err := browser.WaitAndClick(ctx, c.d, selWriteLetter, c.cfg.Engine.ElementTimeout); err != nil {
			return err
		}
	}
	return c.next(ctx)
}

// unknownStep advances pages Indeed adds over time, when they have a
// continue button.
func (c *Campaign) unknownStep(ctx context.Context, _ *apply.Attempt) error {
	ok, err := c.d.Present(selContinue)
	if err != nil || !ok {
		return err
	}
	return c.next(ctx)
}
