package portal

import "fmt"

const (
	// LoginPath is the path of the account page that triggers the login flow
	LoginPath = "/account"

	// DashboardPathFormat is the per-account dashboard path pattern
	DashboardPathFormat = "/account/dashboard/accounts/%s"

	// NavigationSuffix identifies the navigation request whose response
	// carries the customer id and account list
	NavigationSuffix = "/Navigation"

	// BootstrapEndpoint is the token bootstrap API path
	BootstrapEndpoint = "/business-bootstrap-api/v1/api/state/application/orionInitialState"

	// BillDetailsEndpoint is the billing details API path
	BillDetailsEndpoint = "/billing-api/v1/bill/getDetails"

	// BillDownloadEndpoint is the bill PDF download API path
	BillDownloadEndpoint = "/billing-api/v1/bill/download"

	// Selectors for the login UI sequence
	SelectorCookieReject  = "#onetrust-reject-all-handler"
	SelectorUsernameInput = `input[name='user']`
	SelectorPasswordInput = `input[name='passwd']`
	SelectorSignInButton  = "#sign_in"
)

// LoginURL constructs the URL of the page that starts the login sequence
func LoginURL(baseURL string) string {
	return baseURL + LoginPath
}

// DashboardURL constructs the per-account dashboard URL that switches the
// session context to the given account
func DashboardURL(baseURL, authGUID string) string {
	return baseURL + fmt.Sprintf(DashboardPathFormat, authGUID)
}
