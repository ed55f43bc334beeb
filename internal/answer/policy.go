package answer

// Question is one screening field as rendered on a wizard page.
type Question struct {
	Text     string
	Optional bool
	// Options holds the visible labels of a radio/choice question, in order.
	// Nil for free-text inputs and selects.
	Options []string
}

type Action int

const (
	// ActionFill types Value into a free-text or select input.
	ActionFill Action = iota
	// ActionChoose selects Options[Index].
	ActionChoose
	// ActionSkip leaves an optional question alone.
	ActionSkip
)

// Resolution is what the wizard should do with a question.
type Resolution struct {
	Action Action
	Value  string
	Index  int
	// Missed is set when the value came from the policy rather than a rule,
	// so the caller can count it.
	Missed bool
}

// Resolve applies the answer table and the unanswered-question policy:
//
//   - answered free text: fill the answer
//   - answered choice: pick the option containing the answer, else the fallback (missed)
//   - unanswered optional: skip
//   - unanswered required free text: fill the placeholder (missed)
//   - unanswered required choice: pick the fallback option (missed)
func (m *Matcher) Resolve(q Question) Resolution {
	ans, ok := m.Match(q.Text)

	if !ok && q.Optional {
		return Resolution{Action: ActionSkip}
	}

	if len(q.Options) > 0 {
		if ok {
			if idx, found := m.ChooseOption(ans, q.Options); found {
				return Resolution{Action: ActionChoose, Index: idx, Value: q.Options[idx]}
			}
		}
		idx := m.fallbackIndex(len(q.Options))
		return Resolution{Action: ActionChoose, Index: idx, Value: q.Options[idx], Missed: true}
	}

	if ok {
		return Resolution{Action: ActionFill, Value: ans}
	}
	return Resolution{Action: ActionFill, Value: m.policy.Placeholder, Missed: true}
}

// fallbackIndex clamps the configured index to the options actually shown.
func (m *Matcher) fallbackIndex(n int) int {
	idx := m.policy.FallbackIndex
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
