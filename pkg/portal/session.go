package portal

import "context"

// Session is the narrow seam between the control flow and the concrete
// automation technology. The scraper only ever talks to this interface,
// so the browser-driven implementation can be swapped without touching
// the login-and-download loop.
type Session interface {
	// Login establishes an authenticated session against the portal
	Login(ctx context.Context) error

	// ListAccounts enumerates the accounts visible to the authenticated
	// session, in the portal's presentation order
	ListAccounts(ctx context.Context) ([]Account, error)

	// DownloadBill switches the session context to the given account and
	// fetches its latest bill PDF
	DownloadBill(ctx context.Context, account Account) (*Bill, error)

	// Close releases the session's resources
	Close() error
}
