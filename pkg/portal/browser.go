package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/gutsytechster/comcast-bot/pkg/config"
	errs "github.com/gutsytechster/comcast-bot/pkg/errors"
	"github.com/gutsytechster/comcast-bot/pkg/logger"
)

// LoginState tracks the login controller's progress through the fixed
// UI sequence
type LoginState string

const (
	StateUnauthenticated      LoginState = "unauthenticated"
	StateCredentialsSubmitted LoginState = "credentials_submitted"
	StateAuthenticated        LoginState = "authenticated"
	StateFailed               LoginState = "failed"
)

// BrowserSession implements Session by driving a headless browser through
// the portal's login UI and handing the captured session headers to the
// billing API client for the actual downloads.
type BrowserSession struct {
	cfg    *config.Config
	log    logger.Logger
	client *Client

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	browserCtx    context.Context

	mu         sync.Mutex
	state      LoginState
	navReqID   network.RequestID
	navHeaders map[string]string
	navigation *NavigationResponse

	navReady chan struct{}
	navOnce  sync.Once
}

// NewBrowserSession creates a browser-backed portal session. The browser
// process is not started until Login runs its first action.
func NewBrowserSession(cfg *config.Config, log logger.Logger, client *Client) *BrowserSession {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.UserAgent(cfg.Portal.UserAgent),
	)
	if cfg.Proxy.Enabled() {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy.Server))
	}
	if cfg.Browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Browser.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	session := &BrowserSession{
		cfg:           cfg,
		log:           log,
		client:        client,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		browserCtx:    browserCtx,
		state:         StateUnauthenticated,
		navHeaders:    make(map[string]string),
		navReady:      make(chan struct{}),
	}
	session.listenForNavigation()

	return session
}

// listenForNavigation captures the portal's navigation request headers and
// response body. The response carries the customer id and account list;
// the request headers carry the tokens the billing API expects.
func (b *BrowserSession) listenForNavigation() {
	chromedp.ListenTarget(b.browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			if !strings.HasSuffix(e.Request.URL, NavigationSuffix) {
				return
			}
			b.mu.Lock()
			b.navReqID = e.RequestID
			for k, v := range e.Request.Headers {
				if s, ok := v.(string); ok {
					b.navHeaders[strings.ToLower(k)] = s
				}
			}
			b.mu.Unlock()
			b.log.DebugWithFields("intercepted navigation request", map[string]interface{}{
				"url": e.Request.URL,
			})

		case *network.EventLoadingFinished:
			b.mu.Lock()
			match := b.navReqID != "" && e.RequestID == b.navReqID
			b.mu.Unlock()
			if !match {
				return
			}
			// Body retrieval must run outside the event handler
			go b.captureNavigationBody(e.RequestID)
		}
	})
}

// captureNavigationBody fetches and parses the navigation response body
func (b *BrowserSession) captureNavigationBody(requestID network.RequestID) {
	var body []byte
	err := chromedp.Run(b.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(requestID).Do(ctx)
		return err
	}))
	if err != nil {
		b.log.WithError(err).Error("failed to read navigation response body")
		return
	}

	var nav NavigationResponse
	if err := json.Unmarshal(body, &nav); err != nil {
		b.log.WithError(err).Error("failed to parse navigation response")
		return
	}

	b.mu.Lock()
	b.navigation = &nav
	b.mu.Unlock()
	b.navOnce.Do(func() { close(b.navReady) })

	b.log.InfoWithFields("captured navigation response", map[string]interface{}{
		"customer_id":   nav.CustGUID,
		"account_count": len(nav.Accounts),
	})
}

// State returns the current login state
func (b *BrowserSession) State() LoginState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BrowserSession) setState(state LoginState) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

// Login drives the portal's fixed login sequence: load the login page,
// submit the username, submit the password, then wait for the post-login
// navigation payload. Each step waits for the page element it needs, so
// a stalled page surfaces as a classified, retryable error.
func (b *BrowserSession) Login(ctx context.Context) error {
	b.setState(StateUnauthenticated)

	username := b.cfg.Portal.Username
	password := b.cfg.Portal.Password
	stepDelay := b.cfg.Browser.StepDelay

	runCtx, cancel := context.WithTimeout(b.browserCtx, b.cfg.Browser.NavigationTimeout)
	defer cancel()

	b.log.InfoWithFields("loading login page", map[string]interface{}{
		"url": LoginURL(b.cfg.Portal.BaseURL),
	})

	err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.Navigate(LoginURL(b.cfg.Portal.BaseURL)),
	)
	if err != nil {
		b.setState(StateFailed)
		return errs.Newf(errs.ErrorTypeNavigation, "failed to load login page: %v", err)
	}

	b.dismissCookieBanner()

	// Username step
	err = chromedp.Run(runCtx,
		chromedp.WaitVisible(SelectorUsernameInput, chromedp.ByQuery),
		chromedp.SendKeys(SelectorUsernameInput, username, chromedp.ByQuery),
		chromedp.Sleep(stepDelay),
		chromedp.Click(SelectorSignInButton, chromedp.ByQuery),
	)
	if err != nil {
		b.setState(StateFailed)
		return errs.Newf(errs.ErrorTypeNavigation, "username step failed: %v", err)
	}
	b.setState(StateCredentialsSubmitted)

	// Password step. When the portal rate-limits repeated logins the
	// password field never loads, so the timeout here is the signal the
	// retry layer backs off on.
	passCtx, passCancel := context.WithTimeout(b.browserCtx, b.cfg.Browser.NavigationTimeout)
	defer passCancel()

	err = chromedp.Run(passCtx,
		chromedp.WaitVisible(SelectorPasswordInput, chromedp.ByQuery),
		chromedp.SendKeys(SelectorPasswordInput, password, chromedp.ByQuery),
		chromedp.Sleep(stepDelay),
		chromedp.Click(SelectorSignInButton, chromedp.ByQuery),
	)
	if err != nil {
		b.setState(StateFailed)
		if passCtx.Err() != nil {
			return errs.New(errs.ErrorTypeRateLimit, "password entry never loaded, portal may be rate limiting logins")
		}
		return errs.Newf(errs.ErrorTypeNavigation, "password step failed: %v", err)
	}

	// Landing page: the navigation payload arriving is the signal that
	// login completed
	if err := b.waitForNavigation(ctx); err != nil {
		b.setState(StateFailed)
		return err
	}

	b.setState(StateAuthenticated)
	b.handOffSessionHeaders()

	b.log.Info("login successful")
	return nil
}

// dismissCookieBanner clicks the consent banner's reject button when it
// is present. Absence is not an error.
func (b *BrowserSession) dismissCookieBanner() {
	bannerCtx, cancel := context.WithTimeout(b.browserCtx, 2*time.Second)
	defer cancel()

	err := chromedp.Run(bannerCtx,
		chromedp.WaitVisible(SelectorCookieReject, chromedp.ByQuery),
		chromedp.Click(SelectorCookieReject, chromedp.ByQuery),
	)
	if err != nil {
		b.log.Debug("cookie consent banner not present")
	}
}

// waitForNavigation blocks until the navigation payload has been captured
func (b *BrowserSession) waitForNavigation(ctx context.Context) error {
	select {
	case <-b.navReady:
		return nil
	case <-time.After(b.cfg.Browser.NavigationTimeout):
		return errs.New(errs.ErrorTypeNavigation, "timed out waiting for navigation response")
	case <-ctx.Done():
		return fmt.Errorf("login cancelled: %w", ctx.Err())
	}
}

// handOffSessionHeaders gives the captured navigation headers and the
// browser's cookies to the billing API client
func (b *BrowserSession) handOffSessionHeaders() {
	headers := make(map[string]string)
	b.mu.Lock()
	for k, v := range b.navHeaders {
		headers[k] = v
	}
	b.mu.Unlock()

	var cookies []*network.Cookie
	err := chromedp.Run(b.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		b.log.WithError(err).Warn("failed to read browser cookies")
	} else if len(cookies) > 0 {
		pairs := make([]string, 0, len(cookies))
		for _, c := range cookies {
			pairs = append(pairs, c.Name+"="+c.Value)
		}
		headers["cookie"] = strings.Join(pairs, "; ")
	}

	b.client.SetNavigationHeaders(headers)
}

// ListAccounts returns the accounts from the captured navigation payload
func (b *BrowserSession) ListAccounts(ctx context.Context) ([]Account, error) {
	if err := b.waitForNavigation(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	nav := b.navigation
	b.mu.Unlock()

	if nav == nil || len(nav.Accounts) == 0 {
		return nil, errs.New(errs.ErrorTypeNotFound, "no accounts found in navigation response")
	}

	return nav.Accounts, nil
}

// customerID returns the customer guid from the navigation payload
func (b *BrowserSession) customerID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.navigation == nil {
		return ""
	}
	return b.navigation.CustGUID
}

// DownloadBill switches the browser session to the given account's
// dashboard, then runs the billing API pipeline: token bootstrap, bill
// details, PDF download.
func (b *BrowserSession) DownloadBill(ctx context.Context, account Account) (*Bill, error) {
	if account.AccountNumber == "" || account.AuthGUID == "" {
		return nil, errs.New(errs.ErrorTypeParsing, "account record missing accountNumber or authGuid")
	}

	navCtx, cancel := context.WithTimeout(b.browserCtx, b.cfg.Browser.NavigationTimeout)
	defer cancel()

	// Switching the active account is a UI action, not a new login
	err := chromedp.Run(navCtx,
		chromedp.Navigate(DashboardURL(b.cfg.Portal.BaseURL, account.AuthGUID)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.cfg.Browser.StepDelay),
	)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeNavigation, "failed to open dashboard for account %s: %v", account.AccountNumber, err)
	}

	userToken, err := b.client.FetchUserToken(ctx, b.customerID())
	if err != nil {
		return nil, err
	}

	details, err := b.client.FetchBillDetails(ctx, account.AccountNumber, userToken)
	if err != nil {
		return nil, err
	}

	pdf, err := b.client.DownloadBillPDF(ctx, account.AccountNumber, details.Summary.BillID, userToken)
	if err != nil {
		return nil, err
	}

	return &Bill{
		AccountNumber: account.AccountNumber,
		BillID:        details.Summary.BillID,
		BillDate:      details.Summary.BillDate,
		PDF:           pdf,
	}, nil
}

// Close shuts down the browser
func (b *BrowserSession) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}
