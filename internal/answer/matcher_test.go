package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var exampleRules = []Rule{
	{Substring: "authorized to work", Answer: "Yes"},
	{Substring: "visa", Answer: "No"},
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(exampleRules, Policy{Placeholder: "1"})

	tests := []struct {
		name     string
		question string
		want     string
		wantOK   bool
	}{
		{"authorized", "Are you authorized to work in the United States?", "Yes", true},
		{"visa", "Will you require a visa sponsorship?", "No", true},
		{"unanswered", "Favorite color?", "", false},
		{"case insensitive", "ARE YOU AUTHORIZED TO WORK HERE", "Yes", true},
		{"empty question", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.question)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Substring: "experience", Answer: "3"},
		{Substring: "years of experience with Go", Answer: "5"},
	}
	m := NewMatcher(rules, Policy{})

	//the longer, more specific rule loses because it comes second
	got, ok := m.Match("How many years of experience with Go do you have?")
	assert.True(t, ok)
	assert.Equal(t, "3", got)
}

func TestMatcher_NoRules(t *testing.T) {
	m := NewMatcher(nil, Policy{})
	_, ok := m.Match("anything")
	assert.False(t, ok)
}

func TestMatcher_ChooseOption(t *testing.T) {
	m := NewMatcher(nil, Policy{})

	idx, ok := m.ChooseOption("yes", []string{"No", "Yes", "Prefer not to say"})
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = m.ChooseOption("Maybe", []string{"No", "Yes"})
	assert.False(t, ok)

	_, ok = m.ChooseOption("", []string{"No", "Yes"})
	assert.False(t, ok)
}

func TestMatcher_Resolve(t *testing.T) {
	m := NewMatcher(exampleRules, Policy{Placeholder: "6", FallbackIndex: 2})

	tests := []struct {
		name string
		q    Question
		want Resolution
	}{
		{
			name: "answered free text",
			q:    Question{Text: "Will you require a visa?"},
			want: Resolution{Action: ActionFill, Value: "No"},
		},
		{
			name: "unanswered optional is skipped",
			q:    Question{Text: "Favorite color? (optional)", Optional: true},
			want: Resolution{Action: ActionSkip},
		},
		{
			name: "unanswered required gets placeholder",
			q:    Question{Text: "Favorite color?"},
			want: Resolution{Action: ActionFill, Value: "6", Missed: true},
		},
		{
			name: "answered choice picks matching option",
			q:    Question{Text: "Are you authorized to work in the US?", Options: []string{"No", "Yes"}},
			want: Resolution{Action: ActionChoose, Index: 1, Value: "Yes"},
		},
		{
			name: "answered choice without matching option uses fallback",
			q:    Question{Text: "Need a visa?", Options: []string{"Yes", "Later", "Unsure", "Never"}},
			want: Resolution{Action: ActionChoose, Index: 2, Value: "Unsure", Missed: true},
		},
		{
			name: "fallback clamps to last option",
			q:    Question{Text: "Shift preference?", Options: []string{"Day", "Night"}},
			want: Resolution{Action: ActionChoose, Index: 1, Value: "Night", Missed: true},
		},
		{
			name: "answered but optional still fills",
			q:    Question{Text: "Sponsorship or visa needed?", Optional: true},
			want: Resolution{Action: ActionFill, Value: "No"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Resolve(tt.q))
		})
	}
}
