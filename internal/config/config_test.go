package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/models"
)

const sampleYAML = `
site: indeed
database:
  type: sqlite
  path: jobs.db
opportunity:
  username: me@example.com
  position: golang developer
  location: Remote
  list_type: title_and_description
  blacklist: [Senior, Lead]
  company_blacklist: [Staffing]
questions:
  - substring: authorized to work
    answer: "Yes"
  - substring: visa
    answer: "No"
answers:
  placeholder: "6"
  radio_fallback_index: 2
engine:
  element_timeout: 2s
campaign:
  posting_interval: 500ms
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "easyapply.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, models.SiteIndeed, cfg.Site)
	assert.Equal(t, ListTitleAndDescription, cfg.Opportunity.ListType)
	assert.Equal(t, []string{"Senior", "Lead"}, cfg.Opportunity.Blacklist)
	require.Len(t, cfg.Questions, 2)
	assert.Equal(t, AnswerRule{Substring: "authorized to work", Answer: "Yes"}, cfg.Questions[0])
	assert.Equal(t, "6", cfg.Answers.Placeholder)
	assert.Equal(t, 2, cfg.Answers.RadioFallbackIndex)
	assert.Equal(t, 2*time.Second, cfg.Engine.ElementTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Campaign.PostingInterval)

	//defaults
	assert.Equal(t, WhitelistRejectOnMatch, cfg.Opportunity.WhitelistMode)
	assert.Equal(t, 25, cfg.Engine.MaxSteps)
	assert.Equal(t, "chromium", cfg.Browser.Type)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EASYAPPLY_PASSWORD", "from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Opportunity.Password)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
}

func TestLoad_InvalidChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load(writeConfig(t, sampleYAML))
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing position",
			yaml:    "opportunity:\n  username: u\n",
			wantErr: "opportunity.position is required",
		},
		{
			name:    "unknown site",
			yaml:    "site: dice\nopportunity:\n  username: u\n  position: go\n",
			wantErr: `site "dice"`,
		},
		{
			name:    "empty question substring",
			yaml:    "opportunity:\n  username: u\n  position: go\nquestions:\n  - substring: ''\n    answer: 'Yes'\n",
			wantErr: "questions[0]: substring is empty",
		},
		{
			name:    "postgres without url",
			yaml:    "database:\n  type: postgres\nopportunity:\n  username: u\n  position: go\n",
			wantErr: "database.url",
		},
		{
			name:    "no session and no username",
			yaml:    "opportunity:\n  position: go\n",
			wantErr: "opportunity.username is required",
		},
		{
			name:    "bad whitelist mode",
			yaml:    "opportunity:\n  username: u\n  position: go\n  whitelist_mode: maybe\n",
			wantErr: "whitelist_mode",
		},
		{
			name:    "missing resume file",
			yaml:    "opportunity:\n  username: u\n  position: go\n  resume: /does/not/exist.pdf\n",
			wantErr: "opportunity.resume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ProfileSkipsUsername(t *testing.T) {
	cfg, err := Load(writeConfig(t, "opportunity:\n  position: go\nbrowser:\n  profile: /tmp/profile\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Browser.HasSession())
}
