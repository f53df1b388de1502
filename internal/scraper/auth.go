package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rroethle7474/timehealer-api/internal/locator"
)

// login drives the X.com login flow: username, Next, an optional identity
// confirmation interstitial, password, submit, then verification against a
// post-login-only marker. Every step polls with a bounded wait; nothing here
// assumes the page settled on its own.
func (s *Service) login(ctx context.Context) error {
	elementWait := time.Duration(s.cfg.Scraper.ElementTimeout) * time.Second

	userField, err := locator.Locate(ctx, usernameCandidates, elementWait, true)
	if err != nil {
		return &AuthError{Reason: "username field not found", Err: err}
	}
	if err := chromedp.Run(ctx,
		chromedp.SendKeys(userField.Selector, s.cfg.Twitter.Username, userField.QueryOption()),
	); err != nil {
		return &AuthError{Reason: "could not enter username", Err: err}
	}
	s.logger.Info("Username entered successfully")

	if err := s.clickNext(ctx); err != nil {
		return &AuthError{Reason: "next button not found or not clickable", Err: err}
	}

	if err := s.handleOptionalStep(ctx); err != nil {
		return &AuthError{Reason: "identity confirmation step failed", Err: err}
	}

	passwordField, err := locator.Locate(ctx, passwordCandidates, elementWait, true)
	if err != nil {
		return &AuthError{Reason: "password field not found", Err: err}
	}
	if err := chromedp.Run(ctx,
		chromedp.SendKeys(passwordField.Selector, s.cfg.Twitter.Password, passwordField.QueryOption()),
	); err != nil {
		return &AuthError{Reason: "could not enter password", Err: err}
	}
	s.logger.Info("Password entered successfully")

	if err := s.clickLogin(ctx); err != nil {
		return &AuthError{Reason: "login button not found or not clickable", Err: err}
	}

	// Confirm success: the account switcher only renders once logged in.
	loginWait := time.Duration(s.cfg.Scraper.LoginTimeout) * time.Second
	vctx, cancel := context.WithTimeout(ctx, loginWait)
	defer cancel()
	if err := chromedp.Run(vctx, chromedp.WaitReady(AccountSwitcher, chromedp.ByQuery)); err != nil {
		return &AuthError{Reason: "login verification failed", Err: err}
	}
	s.logger.Info("Login successful")
	return nil
}

// clickNext clicks the "Next" control, trying a plain click first and a
// scripted click if that does not register.
func (s *Service) clickNext(ctx context.Context) error {
	elementWait := time.Duration(s.cfg.Scraper.ElementTimeout) * time.Second
	next, err := locator.Locate(ctx, nextButtonCandidates, elementWait, true)
	if err != nil {
		return err
	}
	if err := chromedp.Run(ctx, chromedp.Click(next.Selector, next.QueryOption())); err != nil {
		if err := s.jsClick(ctx, next); err != nil {
			return fmt.Errorf("next button click failed: %w", err)
		}
	}
	s.logger.Info("Next button clicked successfully")
	return nil
}

// handleOptionalStep checks for the identity confirmation interstitial
// ("Enter your phone number or username"). Its absence within the short wait
// is the normal flow, not an error.
func (s *Service) handleOptionalStep(ctx context.Context) error {
	shortWait := time.Duration(s.cfg.Scraper.ShortTimeout) * time.Second

	if _, err := locator.Locate(ctx, optionalStepCandidates, shortWait, false); err != nil {
		s.logger.Info("Identity confirmation step not present, continuing with normal flow")
		return nil
	}
	s.logger.Info("Identity confirmation step detected")

	field, err := locator.Locate(ctx, []locator.Candidate{locator.CSS(OptionalStepInput)}, shortWait, true)
	if err != nil {
		return fmt.Errorf("confirmation input not found: %w", err)
	}
	if err := chromedp.Run(ctx,
		chromedp.SendKeys(field.Selector, s.cfg.Twitter.PhoneNumber, field.QueryOption()),
	); err != nil {
		return fmt.Errorf("could not enter confirmation value: %w", err)
	}
	return s.clickNext(ctx)
}

// clickLogin submits the login form. A disabled submit button gets a bounded
// wait to become enabled before the click.
func (s *Service) clickLogin(ctx context.Context) error {
	elementWait := time.Duration(s.cfg.Scraper.ElementTimeout) * time.Second
	button, err := locator.Locate(ctx, []locator.Candidate{locator.CSS(LoginButton)}, elementWait, false)
	if err != nil {
		return err
	}

	var disabled string
	var hasDisabled bool
	if err := chromedp.Run(ctx,
		chromedp.AttributeValue(button.Selector, "disabled", &disabled, &hasDisabled, button.QueryOption()),
	); err == nil && hasDisabled {
		s.logger.Warn("Login button is disabled, waiting for it to become enabled")
		wctx, cancel := context.WithTimeout(ctx, elementWait)
		err := chromedp.Run(wctx, chromedp.WaitEnabled(button.Selector, button.QueryOption()))
		cancel()
		if err != nil {
			return fmt.Errorf("login button never became enabled: %w", err)
		}
	}

	if err := chromedp.Run(ctx, chromedp.Click(button.Selector, button.QueryOption())); err != nil {
		if err := s.jsClick(ctx, button); err != nil {
			return fmt.Errorf("login button click failed: %w", err)
		}
	}
	s.logger.Info("Login button clicked successfully")
	return nil
}
