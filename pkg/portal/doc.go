// Package portal implements the Comcast Business portal session: a
// browser-driven login sequence, enumeration of the accounts visible to
// the session, and bill PDF downloads through the billing API.
//
// The control flow only depends on the Session interface, so the
// chromedp-backed BrowserSession can be replaced (for tests or for a
// future API-only implementation) without touching callers.
//
// The portal exposes no documented API. Login is a fixed sequence of UI
// steps, and the billing API calls reuse headers and cookies captured
// from the browser's own navigation request after login.
package portal
