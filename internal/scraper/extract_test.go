package scraper

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://x.com"

func postHTML(author, text, href, datetime string) string {
	timeTag := ""
	if datetime != "" {
		timeTag = fmt.Sprintf(`<time datetime="%s">2h</time>`, datetime)
	}
	anchor := ""
	if href != "" {
		anchor = fmt.Sprintf(`<a data-testid="tweetText" href="%s">link</a>`, href)
	}
	return fmt.Sprintf(`<article data-testid="tweet">
		<div data-testid="User-Name">%s</div>
		<div data-testid="tweetText">%s</div>
		%s%s
	</article>`, author, text, anchor, timeTag)
}

func page(articles ...string) string {
	body := ""
	for _, a := range articles {
		body += a
	}
	return `<html><body><div>` + body + `</div></body></html>`
}

func TestParsePostsSingle(t *testing.T) {
	html := page(postHTML(
		"Jane Doe@janedoe·2h",
		"hello world",
		"/janedoe/status/123",
		"2024-01-02T03:04:05.000Z",
	))

	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "Jane Doe", posts[0].Channel)
	assert.Equal(t, "@janedoe", posts[0].Handle)
	assert.Equal(t, "hello world", posts[0].Text)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", posts[0].PublishedAt)
	assert.Equal(t, "https://x.com/janedoe/status/123", posts[0].Permalink)
}

func TestParsePostsSkipsAnalyticsLinks(t *testing.T) {
	html := page(
		postHTML("A@a", "first", "/a/status/1/analytics", ""),
		postHTML("B@b", "second", "/b/status/2", ""),
	)

	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "second", posts[0].Text)
}

func TestParsePostsSkipsUnparseableAuthor(t *testing.T) {
	html := page(
		postHTML("No Handle Here", "skipped", "/x/status/1", ""),
		postHTML("Kept@kept", "kept", "/kept/status/2", ""),
	)

	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "@kept", posts[0].Handle)
}

func TestParsePostsSkipsMissingPermalink(t *testing.T) {
	html := page(postHTML("A@a", "no link", "", ""))

	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestParsePostsTruncatesAtMaxCount(t *testing.T) {
	html := page(
		postHTML("A@a", "one", "/a/status/1", ""),
		postHTML("B@b", "two", "/b/status/2", ""),
		postHTML("C@c", "three", "/c/status/3", ""),
	)

	posts, err := ParsePosts(html, baseURL, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "one", posts[0].Text)
	assert.Equal(t, "two", posts[1].Text)
}

func TestParsePostsTimestampFallback(t *testing.T) {
	html := page(postHTML("A@a", "no time tag", "/a/status/1", ""))

	before := time.Now().UTC().Add(-time.Second)
	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	parsed, err := time.Parse(time.RFC3339, posts[0].PublishedAt)
	require.NoError(t, err)
	assert.True(t, parsed.After(before))
}

func TestParsePostsPermalinkFallbackScan(t *testing.T) {
	html := page(`<article data-testid="tweet">
		<div data-testid="User-Name">A@a·1h</div>
		<div data-testid="tweetText">scan me</div>
		<a href="/a">profile</a>
		<a href="/a/status/42">permalink</a>
	</article>`)

	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://x.com/a/status/42", posts[0].Permalink)
}

func TestParsePostsHandleStopsAtSeparator(t *testing.T) {
	html := page(postHTML("Jane Doe@janedoe·Jan 2", "text", "/janedoe/status/9", ""))

	posts, err := ParsePosts(html, baseURL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "@janedoe", posts[0].Handle)
}

func TestParsePostsEmptyDocument(t *testing.T) {
	posts, err := ParsePosts(page(), baseURL, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}
