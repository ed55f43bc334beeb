package campaign

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-easyapply-automation/internal/browser"
)

// LoginForm describes a site's sign-in page.
type LoginForm struct {
	URL              string
	UserSelector     string
	PasswordSelector string
	// SubmitOnEnter presses Enter in the password field.
	SubmitOnEnter bool
}

type Credentials struct {
	Username string
	Password string
}

// Login fills the sign-in form and waits for the human to finish it. CAPTCHA
// and 2FA are never automated.
func Login(ctx context.Context, d browser.Driver, form LoginForm, creds Credentials, confirm Confirmer, timeout time.Duration, log *zap.Logger) error {
	log.Info("🔐 Logging in", zap.String("url", form.URL))

	if err := d.Navigate(ctx, form.URL); err != nil {
		return fmt.Errorf("login page: %w", err)
	}
	if err := d.WaitFor(ctx, form.UserSelector, timeout); err != nil {
		return fmt.Errorf("login form: %w", err)
	}
	if err := d.Type(form.UserSelector, creds.Username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}

	// some sites ask for the password on a second page
	if creds.Password != "" {
		if ok, err := d.Present(form.PasswordSelector); err != nil {
			return err
		} else if ok {
			if err := d.Type(form.PasswordSelector, creds.Password); err != nil {
				return fmt.Errorf("type password: %w", err)
			}
			if form.SubmitOnEnter {
				if err := d.Press(form.PasswordSelector, "Enter"); err != nil {
					return fmt.Errorf("submit login: %w", err)
				}
			}
		}
	}

	if err := confirm.Confirm(ctx, "Finish the login (and any CAPTCHA) in the browser, then press Enter"); err != nil {
		return fmt.Errorf("login not confirmed: %w", err)
	}
	log.Info("✅ Login confirmed")
	return nil
}
