package scraper

import "fmt"

// DriverInitError means the browser session could not be created. Fatal to
// the operation; nothing was scraped.
type DriverInitError struct {
	Err error
}

func (e *DriverInitError) Error() string {
	return fmt.Sprintf("failed to initialize browser session: %v", e.Err)
}

func (e *DriverInitError) Unwrap() error { return e.Err }

// AuthError means the login flow failed: a credential field never appeared or
// the post-login marker never showed up. Fatal to the operation.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("login failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// QueryError means a single query's navigation or search step failed. The
// operation continues with the remaining queries.
type QueryError struct {
	Query  string
	Reason string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query %q: %s: %v", e.Query, e.Reason, e.Err)
	}
	return fmt.Sprintf("query %q: %s", e.Query, e.Reason)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExtractionError means no posts could be extracted for a query after the
// bounded wait. Isolated to that query.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract posts: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
