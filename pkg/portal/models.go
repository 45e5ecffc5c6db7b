package portal

// Account is one billing account visible to the authenticated session.
// Records are scraped from the portal's navigation payload and exist only
// for the duration of one run.
type Account struct {
	AccountNumber string `json:"accountNumber"`
	AuthGUID      string `json:"authGuid"`
}

// NavigationResponse is the payload the portal returns on its /Navigation
// endpoint after login. It carries the customer id and the account list.
type NavigationResponse struct {
	CustGUID string    `json:"custGuid"`
	Accounts []Account `json:"accounts"`
}

// initialStateResponse is the bootstrap API response carrying the user
// token required for billing API calls
type initialStateResponse struct {
	InitialStateModel struct {
		UserToken string `json:"userToken"`
	} `json:"initialStateModel"`
}

// BillSummary describes the latest bill for one account
type BillSummary struct {
	BillID    string  `json:"billId"`
	BillDate  string  `json:"billDate"`
	DueDate   string  `json:"dueDate"`
	AmountDue float64 `json:"amountDue"`
}

// BillDetails is the billing API's getDetails response
type BillDetails struct {
	Summary BillSummary `json:"summary"`
}

// Bill is one downloaded bill artifact: the PDF byte stream together with
// the account and billing period it belongs to
type Bill struct {
	AccountNumber string
	BillID        string
	BillDate      string
	PDF           []byte
}
