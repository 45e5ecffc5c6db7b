package scraper

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"

	"github.com/gutsytechster/comcast-bot/pkg/config"
	errs "github.com/gutsytechster/comcast-bot/pkg/errors"
	"github.com/gutsytechster/comcast-bot/pkg/logger"
	"github.com/gutsytechster/comcast-bot/pkg/portal"
	"github.com/gutsytechster/comcast-bot/pkg/ratelimit"
	"github.com/gutsytechster/comcast-bot/pkg/retry"
	"github.com/gutsytechster/comcast-bot/pkg/storage"
)

// Scraper orchestrates the login-and-download run: authenticate once,
// enumerate accounts, and fetch each account's bill sequentially.
type Scraper struct {
	session      portal.Session
	storage      *storage.Manager
	apiLimiter   ratelimit.Limiter
	loginLimiter ratelimit.Limiter
	backoffs     *retry.ErrorTypeBackoff
	cfg          *config.Config
	log          logger.Logger
}

// Report summarizes one run
type Report struct {
	Total          int
	Succeeded      int
	Failed         int
	Skipped        int
	FailedAccounts []string
}

// New creates a Scraper with a browser-backed portal session
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	store, err := storage.NewManager(cfg.Output.Directory, cfg.Output.OverwriteExisting)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	client := portal.NewClient(cfg, log)
	session := portal.NewBrowserSession(cfg, log, client)

	return NewWithSession(cfg, log, session, store), nil
}

// NewWithSession creates a Scraper with an explicit session and storage
// manager. This is the seam the browser-free tests use.
func NewWithSession(cfg *config.Config, log logger.Logger, session portal.Session, store *storage.Manager) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		session:      session,
		storage:      store,
		apiLimiter:   ratelimit.NewPacer(cfg.RateLimit.RequestsPerMinute),
		loginLimiter: ratelimit.NewLoginWindow(cfg.RateLimit.LoginAttemptsPerWindow, cfg.RateLimit.LoginWindow),
		backoffs:     retry.NewErrorTypeBackoff(),
		cfg:          cfg,
		log:          log,
	}
}

// Run executes the full flow: login, list accounts, download each bill.
// A login failure after retry exhaustion aborts the run; a per-account
// failure is recorded and the loop moves on to the next account.
func (s *Scraper) Run(ctx context.Context) (*Report, error) {
	defer s.session.Close()

	if err := s.login(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	accounts, err := s.session.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	s.log.InfoWithFields("accounts discovered", map[string]interface{}{
		"count": len(accounts),
	})

	report := &Report{Total: len(accounts)}
	for _, account := range accounts {
		s.processAccount(ctx, account, report)
	}

	s.log.InfoWithFields("run completed", map[string]interface{}{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	})

	return report, nil
}

// login authenticates with retries. Attempts are spaced by the login
// limiter so retrying does not make the portal's rate limit worse.
func (s *Scraper) login(ctx context.Context) error {
	return retry.Do(func() error {
		if err := s.loginLimiter.Wait(ctx); err != nil {
			return err
		}
		return s.session.Login(ctx)
	}, s.retryConfig(ctx))
}

// processAccount downloads and persists one account's bill. Failures are
// recorded in the report and never abort the run.
func (s *Scraper) processAccount(ctx context.Context, account portal.Account, report *Report) {
	accountLog := s.log.WithField("account_number", account.AccountNumber)

	if err := s.apiLimiter.Wait(ctx); err != nil {
		accountLog.WithError(err).Error("run cancelled before download")
		report.Failed++
		report.FailedAccounts = append(report.FailedAccounts, account.AccountNumber)
		return
	}

	bill, err := retry.DoWithResult(func() (*portal.Bill, error) {
		return s.session.DownloadBill(ctx, account)
	}, s.retryConfig(ctx))
	if err != nil {
		accountLog.WithError(err).Error("failed to download bill")
		report.Failed++
		report.FailedAccounts = append(report.FailedAccounts, account.AccountNumber)
		return
	}

	path, err := s.storage.SaveBill(bytes.NewReader(bill.PDF), bill.AccountNumber, bill.BillID)
	if goerrors.Is(err, storage.ErrAlreadyExists) {
		accountLog.WithField("path", path).Info("bill already saved, skipping")
		report.Skipped++
		return
	}
	if err != nil {
		accountLog.WithError(err).Error("failed to save bill")
		report.Failed++
		report.FailedAccounts = append(report.FailedAccounts, account.AccountNumber)
		return
	}

	accountLog.WithFields(map[string]interface{}{
		"bill_id":    bill.BillID,
		"path":       path,
		"size_bytes": len(bill.PDF),
	}).Info("bill saved")
	report.Succeeded++
}

// retryConfig builds the retry policy from configuration. Rate-limit
// errors wait on a longer dedicated curve from the first failure on, so
// repeated logins don't keep tripping the portal's limiter.
func (s *Scraper) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: s.cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    s.cfg.Retry.BaseDelay,
			MaxDelay:     s.cfg.Retry.MaxDelay,
			Multiplier:   s.cfg.Retry.Multiplier,
			JitterFactor: s.cfg.Retry.JitterFactor,
		},
		BackoffFor: func(err error) retry.BackoffStrategy {
			var portalErr *errs.Error
			if goerrors.As(err, &portalErr) && portalErr.Type == errs.ErrorTypeRateLimit {
				return s.backoffs.RateLimitBackoff
			}
			return nil
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  s.log,
	}
}
