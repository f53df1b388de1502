// Package locator implements ranked fallback element location. The target
// site ships multiple DOM variants at once, so every interaction point is
// described as an ordered candidate list instead of a single selector.
package locator

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrNotFound is returned when every candidate exhausted its wait without
// matching. Callers decide whether that is fatal for their step.
var ErrNotFound = errors.New("no matching element found")

type Strategy string

const (
	ByCSS   Strategy = "css"
	ByXPath Strategy = "xpath"
)

// Candidate is one (strategy, selector) pair in a fallback chain.
type Candidate struct {
	Strategy Strategy
	Selector string
}

func CSS(selector string) Candidate   { return Candidate{Strategy: ByCSS, Selector: selector} }
func XPath(selector string) Candidate { return Candidate{Strategy: ByXPath, Selector: selector} }

// QueryOption maps the candidate's strategy onto a chromedp query option.
func (c Candidate) QueryOption() chromedp.QueryOption {
	if c.Strategy == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Locate tries each candidate in order, polling up to perCandidate for an
// element to appear. With interactive set, the element must also be visible
// and enabled before it counts as found. The first success wins; if all
// candidates time out, ErrNotFound is returned rather than a raw timeout.
func Locate(ctx context.Context, candidates []Candidate, perCandidate time.Duration, interactive bool) (Candidate, error) {
	for _, c := range candidates {
		tctx, cancel := context.WithTimeout(ctx, perCandidate)
		var err error
		if interactive {
			err = chromedp.Run(tctx,
				chromedp.WaitVisible(c.Selector, c.QueryOption()),
				chromedp.WaitEnabled(c.Selector, c.QueryOption()),
			)
		} else {
			err = chromedp.Run(tctx, chromedp.WaitReady(c.Selector, c.QueryOption()))
		}
		cancel()
		if err == nil {
			return c, nil
		}
		// The session itself going away is not a per-candidate miss.
		if ctx.Err() != nil {
			return Candidate{}, ctx.Err()
		}
	}
	return Candidate{}, ErrNotFound
}
