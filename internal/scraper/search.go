package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/rroethle7474/timehealer-api/internal/locator"
)

// runChannelQuery navigates to the query interpreted as a profile path and
// verifies the account exists.
func (s *Service) runChannelQuery(ctx context.Context, query string) error {
	target := s.cfg.Twitter.BaseURL + "/" + query
	if err := chromedp.Run(ctx, chromedp.Navigate(target)); err != nil {
		return &QueryError{Query: query, Reason: "navigation failed", Err: err}
	}

	// Either the channel timeline or the "account doesn't exist" empty
	// state will render; wait for whichever wins.
	elementWait := time.Duration(s.cfg.Scraper.ElementTimeout) * time.Second
	wctx, cancel := context.WithTimeout(ctx, elementWait)
	err := chromedp.Run(wctx, chromedp.WaitReady(ChannelMarkers, chromedp.ByQuery))
	cancel()
	if err != nil {
		return &QueryError{Query: query, Reason: "channel page did not load", Err: err}
	}

	var missing bool
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(`document.querySelector('`+ChannelEmptyState+`') !== null`, &missing),
	); err != nil {
		return &QueryError{Query: query, Reason: "could not inspect channel page", Err: err}
	}
	if missing {
		return &QueryError{Query: query, Reason: "account doesn't exist"}
	}
	s.logger.Infof("Channel search performed successfully for query: %s", query)
	return nil
}

// runSearchQuery types the query into the search box and submits it, then
// tries to switch the results to most-recent ordering.
func (s *Service) runSearchQuery(ctx context.Context, query string) error {
	elementWait := time.Duration(s.cfg.Scraper.ElementTimeout) * time.Second
	field, err := locator.Locate(ctx, searchInputCandidates, elementWait, true)
	if err != nil {
		return &QueryError{Query: query, Reason: "search input not found", Err: err}
	}

	if err := s.clearInput(ctx, field); err != nil {
		s.logger.Warnf("Failed to clear search input: %v", err)
	}

	if err := chromedp.Run(ctx,
		chromedp.SendKeys(field.Selector, query, field.QueryOption()),
		chromedp.SendKeys(field.Selector, kb.Enter, field.QueryOption()),
	); err != nil {
		return &QueryError{Query: query, Reason: "could not submit search", Err: err}
	}
	s.logger.Infof("Search performed with query: %s", query)

	// Recency ordering is best-effort: a missing "Latest" tab falls back to
	// the default ordering instead of failing the query.
	s.clickLatestTab(ctx)
	return nil
}

// clearInput empties an input field using layered fallbacks: a plain clear,
// then select-all plus backspace, then one backspace per character. Each
// attempt is verified before the next is tried.
func (s *Service) clearInput(ctx context.Context, field locator.Candidate) error {
	if err := chromedp.Run(ctx, chromedp.Clear(field.Selector, field.QueryOption())); err == nil {
		if empty, _ := s.inputEmpty(ctx, field); empty {
			return nil
		}
	}

	_ = chromedp.Run(ctx,
		chromedp.Click(field.Selector, field.QueryOption()),
		chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
		chromedp.KeyEvent(kb.Backspace),
	)
	if empty, _ := s.inputEmpty(ctx, field); empty {
		return nil
	}

	var value string
	if err := chromedp.Run(ctx, chromedp.Value(field.Selector, &value, field.QueryOption())); err != nil {
		return err
	}
	for range value {
		if err := chromedp.Run(ctx, chromedp.KeyEvent(kb.Backspace)); err != nil {
			return err
		}
	}

	empty, err := s.inputEmpty(ctx, field)
	if err != nil {
		return err
	}
	if !empty {
		return errors.New("input field still not empty after all clearing attempts")
	}
	return nil
}

func (s *Service) inputEmpty(ctx context.Context, field locator.Candidate) (bool, error) {
	var value string
	err := chromedp.Run(ctx, chromedp.Value(field.Selector, &value, field.QueryOption()))
	return value == "", err
}

// clickLatestTab switches search results to most-recent ordering. Failure is
// non-fatal: the query proceeds with the default ordering.
func (s *Service) clickLatestTab(ctx context.Context) {
	shortWait := time.Duration(s.cfg.Scraper.ShortTimeout) * time.Second

	tab, err := locator.Locate(ctx, latestTabCandidates, shortWait, false)
	if err == nil {
		_ = chromedp.Run(ctx, chromedp.ScrollIntoView(tab.Selector, tab.QueryOption()))
		if chromedp.Run(ctx, chromedp.Click(tab.Selector, tab.QueryOption())) == nil {
			s.logger.Info("Latest tab clicked successfully")
			return
		}
		if s.jsClick(ctx, tab) == nil {
			s.logger.Info("Latest tab clicked via script")
			return
		}
	}

	// Last resort: scan the tab bar for anything labeled "latest".
	scan := `(function() {
		var tabs = document.querySelectorAll('[role="tab"]');
		for (var i = 0; i < tabs.length; i++) {
			if ((tabs[i].textContent || '').trim().toLowerCase() === 'latest') {
				tabs[i].click();
				return true;
			}
		}
		return false;
	})()`
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(scan, &clicked)); err != nil || !clicked {
		s.logger.Warn("Latest tab not found, continuing with default ordering")
	}
}

// jsClick dispatches a click from page script, for controls that swallow the
// synthesized input event.
func (s *Service) jsClick(ctx context.Context, c locator.Candidate) error {
	var js string
	if c.Strategy == locator.ByXPath {
		js = fmt.Sprintf(`(function() {
			var r = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
			if (r) { r.click(); return true; }
			return false;
		})()`, c.Selector)
	} else {
		js = fmt.Sprintf(`(function() {
			var el = document.querySelector(%q);
			if (el) { el.click(); return true; }
			return false;
		})()`, c.Selector)
	}

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return locator.ErrNotFound
	}
	return nil
}
