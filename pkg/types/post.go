package types

import "strings"

// OperationType selects the query variant an operation runs.
type OperationType string

const (
	OperationSearch  OperationType = "search"
	OperationChannel OperationType = "channel"
)

// PostRecord is one normalized post extracted from a rendered page.
type PostRecord struct {
	Channel     string `json:"channel"`
	Handle      string `json:"handle"`
	Text        string `json:"text"`
	PublishedAt string `json:"published_at"`
	Permalink   string `json:"permalink"`
}

// ResultSet maps a query string to the posts extracted for it, in DOM order.
// Queries that errored have no entry at all.
type ResultSet map[string][]PostRecord

// IsInvalidPermalink reports whether a permalink fails the validity filter:
// empty, or pointing at the analytics sub-path instead of the post itself.
func IsInvalidPermalink(permalink string) bool {
	if permalink == "" {
		return true
	}
	return strings.HasSuffix(strings.TrimSpace(permalink), "/analytics")
}
