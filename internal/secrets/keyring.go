// Package secrets reads the site password from the OS keyring so it does not
// have to live in the YAML file or the environment.
package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"go-easyapply-automation/internal/config"
)

// Service is the keyring service name entries are stored under.
const Service = "easyapply"

var ErrNotFound = errors.New("secret not found in keyring")

func Password(account string) (string, error) {
	pw, err := keyring.Get(Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, Service, account)
	}
	if err != nil {
		return "", fmt.Errorf("keyring: %w", err)
	}
	return pw, nil
}

// Resolve fills cfg's password from the keyring when an account is
// configured and no password came from the file or environment.
func Resolve(cfg *config.Config) error {
	opp := &cfg.Opportunity
	if opp.Password != "" || opp.KeyringAccount == "" {
		return nil
	}
	pw, err := Password(opp.KeyringAccount)
	if err != nil {
		return err
	}
	opp.Password = pw
	return nil
}
