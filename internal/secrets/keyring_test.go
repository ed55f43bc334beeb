package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"go-easyapply-automation/internal/config"
)

func TestResolve(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(Service, "jane@example.com", "hunter2"))

	tests := []struct {
		name    string
		opp     config.Opportunity
		want    string
		wantErr error
	}{
		{"from keyring", config.Opportunity{KeyringAccount: "jane@example.com"}, "hunter2", nil},
		{"explicit password wins", config.Opportunity{Password: "env", KeyringAccount: "jane@example.com"}, "env", nil},
		{"no account", config.Opportunity{}, "", nil},
		{"missing entry", config.Opportunity{KeyringAccount: "nobody"}, "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Opportunity: tt.opp}
			err := Resolve(cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Opportunity.Password)
		})
	}
}
