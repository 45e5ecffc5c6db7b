// Package scraper orchestrates the bill download run.
//
// The flow is strictly sequential: authenticate once (with retries
// spaced below the portal's login rate limit), enumerate the accounts
// visible to the session, then for each account download and persist the
// latest bill PDF. A login failure after retry exhaustion aborts the
// run; a single account's failure is recorded and the remaining
// accounts are still processed.
package scraper
