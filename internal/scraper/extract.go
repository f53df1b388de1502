package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/rroethle7474/timehealer-api/pkg/types"
)

// extractPosts waits for posts to render, scrolls to trigger lazy loading
// until enough are present or the page stops producing more, then parses the
// rendered document.
func (s *Service) extractPosts(ctx context.Context, maxPosts int) ([]types.PostRecord, error) {
	elementWait := time.Duration(s.cfg.Scraper.ElementTimeout) * time.Second
	wctx, cancel := context.WithTimeout(ctx, elementWait)
	err := chromedp.Run(wctx, chromedp.WaitReady(TweetArticle, chromedp.ByQuery))
	cancel()
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	count, err := s.countPosts(ctx)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	for attempt := 0; attempt < s.cfg.Scraper.ScrollAttempts && count < maxPosts; attempt++ {
		if err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		); err != nil {
			return nil, &ExtractionError{Err: err}
		}

		// Wait a little longer on each pass; X renders new posts in bursts.
		select {
		case <-ctx.Done():
			return nil, &ExtractionError{Err: ctx.Err()}
		case <-time.After(time.Duration(500+attempt*100) * time.Millisecond):
		}

		newCount, err := s.countPosts(ctx)
		if err != nil {
			return nil, &ExtractionError{Err: err}
		}
		if newCount <= count {
			s.logger.Debugf("No new posts after scroll attempt %d, stopping at %d", attempt+1, newCount)
			break
		}
		count = newCount
	}
	s.logger.Infof("Found %d post containers on page", count)

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, &ExtractionError{Err: err}
	}

	posts, err := ParsePosts(html, s.cfg.Twitter.BaseURL, maxPosts)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Extracted %d posts", len(posts))
	return posts, nil
}

func (s *Service) countPosts(ctx context.Context) (int, error) {
	var count int
	err := chromedp.Run(ctx,
		chromedp.Evaluate(`document.querySelectorAll('`+TweetArticle+`').length`, &count),
	)
	return count, err
}

// ParsePosts extracts up to maxCount post records from a rendered page.
// Containers missing a valid permalink or a parseable author are skipped
// rather than failing the batch.
func ParsePosts(html, baseURL string, maxCount int) ([]types.PostRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	posts := make([]types.PostRecord, 0, maxCount)
	doc.Find(TweetArticle).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if post, ok := parsePost(sel, baseURL); ok {
			posts = append(posts, post)
		}
		return len(posts) < maxCount
	})
	return posts, nil
}

func parsePost(sel *goquery.Selection, baseURL string) (types.PostRecord, bool) {
	permalink, ok := extractPermalink(sel, baseURL)
	if !ok {
		return types.PostRecord{}, false
	}

	// Author block renders as "Display Name@handle·time"; the first '@'
	// separates channel from handle.
	author := strings.TrimSpace(sel.Find(TweetAuthor).First().Text())
	channel, handle, found := strings.Cut(author, "@")
	if !found {
		return types.PostRecord{}, false
	}
	if i := strings.IndexRune(handle, '·'); i >= 0 {
		handle = handle[:i]
	}

	text := strings.TrimSpace(sel.Find(TweetText).First().Text())

	publishedAt := time.Now().UTC().Format(time.RFC3339)
	if dt, exists := sel.Find("time").First().Attr("datetime"); exists && dt != "" {
		publishedAt = dt
	}

	return types.PostRecord{
		Channel:     strings.TrimSpace(channel),
		Handle:      "@" + strings.TrimSpace(handle),
		Text:        text,
		PublishedAt: publishedAt,
		Permalink:   permalink,
	}, true
}

// extractPermalink finds the post's status link, preferring the anchor
// wrapping the post text over a scan of every anchor in the container.
func extractPermalink(sel *goquery.Selection, baseURL string) (string, bool) {
	href, exists := sel.Find(TweetAnchor).First().Attr("href")
	if !exists || href == "" {
		sel.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if h, ok := a.Attr("href"); ok && strings.Contains(h, "/status/") {
				href = h
				return false
			}
			return true
		})
	}
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "/") {
		href = baseURL + href
	}
	if types.IsInvalidPermalink(href) {
		return "", false
	}
	return href, true
}
