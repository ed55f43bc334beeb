package apply

import (
	"fmt"
	"sort"

	"go-easyapply-automation/internal/textnorm"
)

// Step is a page of an application wizard, identified by its heading.
type Step int

const (
	StepUnknown Step = iota
	StepResumeUpload
	StepQuestions
	StepPastExperience
	StepQualifications
	StepCoverLetter
	StepReview
)

var stepNames = map[Step]string{
	StepUnknown:        "unknown",
	StepResumeUpload:   "resume",
	StepQuestions:      "questions",
	StepPastExperience: "past_experience",
	StepQualifications: "qualifications",
	StepCoverLetter:    "cover_letter",
	StepReview:         "review",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep is the inverse of String, used for heading overrides in config.
func ParseStep(name string) (Step, bool) {
	for s, n := range stepNames {
		if n == name {
			return s, true
		}
	}
	return StepUnknown, false
}

// Pattern binds a step to a heading substring.
type Pattern struct {
	Step      Step
	Substring string
}

// Classifier maps a wizard heading to a Step. Patterns are tried in order and
// the first one contained in the heading (ignoring case) wins.
type Classifier struct {
	patterns []Pattern
}

func NewClassifier(patterns ...Pattern) *Classifier {
	return &Classifier{patterns: append([]Pattern(nil), patterns...)}
}

// WithOverrides returns a copy whose substrings are replaced by the entries
// of overrides, keyed by step name ("questions", "review", ...). Steps not in
// the table yet are appended.
func (c *Classifier) WithOverrides(overrides map[string]string) (*Classifier, error) {
	out := NewClassifier(c.patterns...)

	names := make([]string, 0, len(overrides))
	for n := range overrides {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		step, ok := ParseStep(name)
		if !ok || step == StepUnknown {
			return nil, fmt.Errorf("unknown wizard step %q in headings", name)
		}
		sub := overrides[name]
		if sub == "" {
			return nil, fmt.Errorf("empty heading for step %q", name)
		}
		replaced := false
		for i := range out.patterns {
			if out.patterns[i].Step == step {
				out.patterns[i].Substring = sub
				replaced = true
			}
		}
		if !replaced {
			out.patterns = append(out.patterns, Pattern{Step: step, Substring: sub})
		}
	}
	return out, nil
}

func (c *Classifier) Classify(heading string) Step {
	for _, p := range c.patterns {
		if textnorm.ContainsFold(heading, p.Substring) {
			return p.Step
		}
	}
	return StepUnknown
}
