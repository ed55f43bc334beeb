// Package answer maps screening questions to configured answers.
//
// The first rule, in configuration order, whose substring occurs in the
// question (ignoring case) wins. There is no scoring and no longest-match
// preference.
package answer

import (
	"strings"

	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/textnorm"
)

type Rule = config.AnswerRule

// Policy controls what happens to questions no rule answers.
type Policy struct {
	// Placeholder is typed into required free-text questions nobody answered,
	// so the wizard can still advance.
	Placeholder string
	// FallbackIndex is the option picked when a choice question has no
	// option matching the answer (or no answer at all).
	FallbackIndex int
}

type Matcher struct {
	rules  []Rule
	folded []string
	policy Policy
}

func NewMatcher(rules []Rule, policy Policy) *Matcher {
	folded := make([]string, len(rules))
	for i, r := range rules {
		folded[i] = textnorm.Fold(r.Substring)
	}
	return &Matcher{rules: rules, folded: folded, policy: policy}
}

// FromConfig wires the question table and answer policy from the campaign config.
func FromConfig(cfg *config.Config) *Matcher {
	return NewMatcher(cfg.Questions, Policy{
		Placeholder:   cfg.Answers.Placeholder,
		FallbackIndex: cfg.Answers.RadioFallbackIndex,
	})
}

// Match returns the answer of the first rule contained in question.
// The bool is false when the question is unanswered.
func (m *Matcher) Match(question string) (string, bool) {
	q := textnorm.Fold(question)
	for i, sub := range m.folded {
		if sub == "" {
			continue
		}
		if strings.Contains(q, sub) {
			return m.rules[i].Answer, true
		}
	}
	return "", false
}

// ChooseOption returns the index of the first option whose text contains
// answer (ignoring case). The bool is false when nothing matched.
func (m *Matcher) ChooseOption(answer string, options []string) (int, bool) {
	if answer == "" {
		return 0, false
	}
	a := textnorm.Fold(answer)
	for i, opt := range options {
		if strings.Contains(textnorm.Fold(opt), a) {
			return i, true
		}
	}
	return 0, false
}
