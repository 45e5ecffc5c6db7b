package portal

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gutsytechster/comcast-bot/pkg/config"
	errs "github.com/gutsytechster/comcast-bot/pkg/errors"
	"github.com/gutsytechster/comcast-bot/pkg/logger"
)

// Client talks to the portal's billing API. It reuses the headers and
// cookies captured from the browser's navigation request, since the API
// rejects calls that don't look like they came from the logged-in page.
type Client struct {
	http       *resty.Client
	log        logger.Logger
	baseURL    string
	apiBaseURL string

	mu         sync.RWMutex
	navHeaders map[string]string
}

// NewClient creates a new billing API client
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", cfg.Portal.UserAgent)
	if cfg.Proxy.Enabled() {
		client.SetProxy(cfg.Proxy.URL())
	}

	return &Client{
		http:       client,
		log:        log,
		baseURL:    cfg.Portal.BaseURL,
		apiBaseURL: cfg.Portal.APIBaseURL,
		navHeaders: make(map[string]string),
	}
}

// SetNavigationHeaders installs the headers captured from the browser's
// navigation request. Must be called after login, before any API call.
func (c *Client) SetNavigationHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.navHeaders = make(map[string]string, len(headers))
	for k, v := range headers {
		c.navHeaders[k] = v
	}
}

// TrackingID returns the tracking id captured from the navigation request
func (c *Client) TrackingID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.navHeaders["tracking-id"]
}

// apiRequest builds a request carrying the browser-derived headers plus
// the billing API's expected CORS headers
func (c *Client) apiRequest(ctx context.Context, userToken, referer string) *resty.Request {
	req := c.http.R().SetContext(ctx)

	// The portal is not consistent about response content types, so decode
	// result payloads as JSON regardless of what the response advertises.
	req.ForceContentType("application/json")

	req.SetHeader("Content-Type", "application/json")
	req.SetHeader("Origin", c.baseURL)
	req.SetHeader("Referer", referer)
	req.SetHeader("Sec-Fetch-Dest", "empty")
	req.SetHeader("Sec-Fetch-Mode", "cors")
	req.SetHeader("Sec-Fetch-Site", "cross-site")
	req.SetHeader("Cb-Authorization", userToken)

	c.mu.RLock()
	for k, v := range c.navHeaders {
		req.SetHeader(k, v)
	}
	c.mu.RUnlock()

	return req
}

// checkResponse maps a non-200 response to a typed error
func (c *Client) checkResponse(resp *resty.Response, operation string) error {
	if resp.StatusCode() == 200 {
		return nil
	}

	c.log.WarnWithFields("billing API returned non-OK status", map[string]interface{}{
		"operation": operation,
		"status":    resp.StatusCode(),
		"url":       resp.Request.URL,
	})

	return errs.FromStatusCode(resp.StatusCode(), operation+" failed")
}

// FetchUserToken bootstraps the billing session and returns the user
// token required by the billing endpoints
func (c *Client) FetchUserToken(ctx context.Context, customerID string) (string, error) {
	var result initialStateResponse

	resp, err := c.apiRequest(ctx, "", c.baseURL+"/account/bill").
		SetBody(map[string]interface{}{
			"customerId":    customerID,
			"userContextId": c.TrackingID(),
		}).
		SetResult(&result).
		Post(c.apiBaseURL + BootstrapEndpoint)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeNetwork, "token bootstrap request failed: %v", err)
	}
	if err := c.checkResponse(resp, "token bootstrap"); err != nil {
		return "", err
	}

	token := result.InitialStateModel.UserToken
	if token == "" {
		return "", errs.New(errs.ErrorTypeParsing, "no user token in bootstrap response")
	}

	c.log.DebugWithFields("fetched user token", map[string]interface{}{
		"customer_id": customerID,
	})

	return token, nil
}

// FetchBillDetails fetches the latest bill details for one account
func (c *Client) FetchBillDetails(ctx context.Context, accountNumber, userToken string) (*BillDetails, error) {
	var result BillDetails

	resp, err := c.apiRequest(ctx, userToken, c.baseURL+"/account/bill").
		SetBody(map[string]interface{}{
			"billingArrangementId": accountNumber,
			"isEnterprise":         false,
			"isOrionCustomer":      false,
		}).
		SetResult(&result).
		Post(c.apiBaseURL + BillDetailsEndpoint)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeNetwork, "bill details request failed: %v", err)
	}
	if err := c.checkResponse(resp, "bill details"); err != nil {
		return nil, err
	}

	if result.Summary.BillID == "" {
		return nil, errs.Newf(errs.ErrorTypeParsing, "no billId in details response for account %s", accountNumber)
	}

	c.log.DebugWithFields("fetched bill details", map[string]interface{}{
		"account_number": accountNumber,
		"bill_id":        result.Summary.BillID,
	})

	return &result, nil
}

// DownloadBillPDF downloads one bill's PDF content
func (c *Client) DownloadBillPDF(ctx context.Context, accountNumber, billID, userToken string) ([]byte, error) {
	resp, err := c.apiRequest(ctx, userToken, c.baseURL+"/").
		SetBody(map[string]interface{}{
			"billingArrangementId": accountNumber,
			"billId":               billID,
			"isEnterprise":         false,
			"isOrionCustomer":      false,
		}).
		Post(c.apiBaseURL + BillDownloadEndpoint)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeNetwork, "bill download request failed: %v", err)
	}
	if err := c.checkResponse(resp, "bill download"); err != nil {
		return nil, err
	}

	pdf := resp.Body()
	if len(pdf) == 0 {
		return nil, errs.Newf(errs.ErrorTypeParsing, "empty bill payload for account %s", accountNumber)
	}

	c.log.DebugWithFields("downloaded bill PDF", map[string]interface{}{
		"account_number": accountNumber,
		"bill_id":        billID,
		"size_bytes":     len(pdf),
	})

	return pdf, nil
}
