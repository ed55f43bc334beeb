package apply

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/browser/browsertest"
	"go-easyapply-automation/internal/models"
)

const headingSel = "h1.heading"

var testPatterns = []Pattern{
	{StepResumeUpload, "Add a resume"},
	{StepQuestions, "Questions from"},
	{StepPastExperience, "past job"},
	{StepQualifications, "qualifications"},
	{StepCoverLetter, "supporting documents"},
	{StepReview, "Please review your application"},
}

func page(heading string) string {
	return fmt.Sprintf(`<html><body><h1 class="heading">%s</h1><button class="next">Continue</button></body></html>`, heading)
}

// wizard loads headings[0] and advances one page per click on button.next.
func wizard(headings ...string) *browsertest.Fake {
	f := browsertest.New()
	f.SetHTML(page(headings[0]))
	i := 0
	f.OnClick("button.next", func(f *browsertest.Fake) error {
		if i+1 < len(headings) {
			i++
			f.SetHTML(page(headings[i]))
		}
		return nil
	})
	return f
}

func next(d browser.Driver) Handler {
	return func(ctx context.Context, a *Attempt) error {
		return d.Click("button.next")
	}
}

func countingHandlers(d browser.Driver, calls map[Step]int) Handlers {
	h := Handlers{}
	for _, s := range []Step{StepResumeUpload, StepQuestions, StepPastExperience, StepQualifications, StepCoverLetter, StepReview} {
		s := s
		h[s] = func(ctx context.Context, a *Attempt) error {
			calls[s]++
			return d.Click("button.next")
		}
	}
	return h
}

func testEngine(d browser.Driver, h Handlers, opts Options) *Engine {
	if opts.HeadingSelector == "" {
		opts.HeadingSelector = headingSel
	}
	if opts.HeadingTimeout == 0 {
		opts.HeadingTimeout = 50 * time.Millisecond
	}
	return NewEngine(d, NewClassifier(testPatterns...), h, opts, zap.NewNop())
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(testPatterns...)

	tests := []struct {
		heading string
		want    Step
	}{
		{"Add a resume for the employer", StepResumeUpload},
		{"Questions from Acme Corp", StepQuestions},
		{"Select a past job that shows relevant experience", StepPastExperience},
		{"The employer is looking for these Qualifications", StepQualifications},
		{"Consider adding supporting documents", StepCoverLetter},
		{"Please review your application", StepReview},
		{"please REVIEW your application", StepReview},
		{"Something new", StepUnknown},
		{"", StepUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.heading))
		})
	}
}

func TestClassifier_WithOverrides(t *testing.T) {
	c, err := NewClassifier(testPatterns...).WithOverrides(map[string]string{
		"review": "Review and submit",
	})
	require.NoError(t, err)
	assert.Equal(t, StepReview, c.Classify("Review and submit"))
	assert.Equal(t, StepUnknown, c.Classify("Please review your application"))
	assert.Equal(t, StepQuestions, c.Classify("Questions from Acme"))

	_, err = NewClassifier(testPatterns...).WithOverrides(map[string]string{"bogus": "x"})
	assert.Error(t, err)
	_, err = NewClassifier(testPatterns...).WithOverrides(map[string]string{"review": ""})
	assert.Error(t, err)
}

func TestParseStep(t *testing.T) {
	for s := StepUnknown; s <= StepReview; s++ {
		got, ok := ParseStep(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseStep("nope")
	assert.False(t, ok)
}

func TestEngine_RunsEachPageOnce(t *testing.T) {
	headings := []string{
		"Add a resume for the employer",
		"Questions from Acme",
		"Select a past job",
		"Consider adding supporting documents",
		"Please review your application",
	}
	f := wizard(headings...)
	calls := map[Step]int{}
	opp := &models.Opportunity{Link: "https://example.com/1"}

	res, err := testEngine(f, countingHandlers(f, calls), Options{}).Run(context.Background(), opp)
	require.NoError(t, err)

	assert.Equal(t, len(headings), res.Steps)
	assert.Equal(t, []Step{StepResumeUpload, StepQuestions, StepPastExperience, StepCoverLetter, StepReview}, res.Trace)
	assert.Len(t, f.Clicks(), len(headings))
	for _, s := range res.Trace {
		assert.Equal(t, 1, calls[s], s.String())
	}
	assert.True(t, res.Submitted)
	assert.True(t, opp.Applied)
}

func TestEngine_ReviewOnly(t *testing.T) {
	f := wizard("Please review your application")
	calls := map[Step]int{}

	res, err := testEngine(f, countingHandlers(f, calls), Options{}).Run(context.Background(), &models.Opportunity{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, 1, calls[StepReview])
}

func TestEngine_UnknownHeadingIsNoop(t *testing.T) {
	f := wizard("Something new", "Please review your application")
	h := Handlers{StepReview: next(f)}

	// without a handler the unknown page never advances
	res, err := testEngine(f, h, Options{MaxSteps: 3}).Run(context.Background(), &models.Opportunity{})
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, []Step{StepUnknown, StepUnknown, StepUnknown}, res.Trace)
	assert.Empty(t, f.Clicks())

	f = wizard("Something new", "Please review your application")
	h = Handlers{StepReview: next(f), StepUnknown: next(f)}
	res, err = testEngine(f, h, Options{}).Run(context.Background(), &models.Opportunity{})
	require.NoError(t, err)
	assert.Equal(t, []Step{StepUnknown, StepReview}, res.Trace)
}

func TestEngine_StepLimit(t *testing.T) {
	f := wizard("Questions from Acme")
	opp := &models.Opportunity{}
	h := Handlers{StepQuestions: func(ctx context.Context, a *Attempt) error { return nil }}

	res, err := testEngine(f, h, Options{MaxSteps: 4}).Run(context.Background(), opp)
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Equal(t, 4, res.Steps)
	assert.False(t, opp.Applied)
}

func TestEngine_DefaultMaxSteps(t *testing.T) {
	f := wizard("Questions from Acme")
	res, err := testEngine(f, Handlers{}, Options{}).Run(context.Background(), &models.Opportunity{})
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Equal(t, DefaultMaxSteps, res.Steps)
}

func TestEngine_HandlerErrorAborts(t *testing.T) {
	f := wizard("Add a resume", "Please review your application")
	boom := errors.New("boom")
	reviewed := false
	h := Handlers{
		StepResumeUpload: func(ctx context.Context, a *Attempt) error { return boom },
		StepReview:       func(ctx context.Context, a *Attempt) error { reviewed = true; return nil },
	}
	opp := &models.Opportunity{}

	res, err := testEngine(f, h, Options{}).Run(context.Background(), opp)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "resume step")
	assert.Equal(t, 1, res.Steps)
	assert.False(t, reviewed)
	assert.False(t, opp.Applied)
}

func TestEngine_MissingHeading(t *testing.T) {
	f := browsertest.New()
	f.SetHTML("<html><body><p>loading</p></body></html>")

	_, err := testEngine(f, Handlers{}, Options{HeadingTimeout: time.Millisecond}).Run(context.Background(), &models.Opportunity{})
	assert.ErrorIs(t, err, browser.ErrTimeout)
}

func TestEngine_Cancelled(t *testing.T) {
	f := wizard("Add a resume", "Questions from Acme", "Please review your application")
	ctx, cancel := context.WithCancel(context.Background())
	h := Handlers{
		StepResumeUpload: func(ctx context.Context, a *Attempt) error {
			cancel()
			return f.Click("button.next")
		},
		StepQuestions: next(f),
		StepReview:    next(f),
	}

	res, err := testEngine(f, h, Options{}).Run(ctx, &models.Opportunity{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Steps)
}

func TestEngine_Missed(t *testing.T) {
	questions := func(ctx context.Context, a *Attempt) error {
		a.Missed += 2
		return nil
	}

	t.Run("counted", func(t *testing.T) {
		f := wizard("Questions from Acme", "Please review your application")
		h := Handlers{
			StepQuestions: func(ctx context.Context, a *Attempt) error {
				_ = questions(ctx, a)
				return f.Click("button.next")
			},
			StepReview: next(f),
		}
		res, err := testEngine(f, h, Options{}).Run(context.Background(), &models.Opportunity{})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Missed)
	})

	t.Run("abort", func(t *testing.T) {
		f := wizard("Questions from Acme", "Please review your application")
		h := Handlers{StepQuestions: questions, StepReview: next(f)}
		opp := &models.Opportunity{}
		res, err := testEngine(f, h, Options{AbortOnMissed: true}).Run(context.Background(), opp)
		assert.ErrorIs(t, err, ErrMissedQuestions)
		assert.Equal(t, 2, res.Missed)
		assert.False(t, opp.Applied)
	})
}

func TestResult_String(t *testing.T) {
	r := Result{Trace: []Step{StepQuestions, StepReview}}
	assert.Equal(t, "questions -> review", r.String())
}
