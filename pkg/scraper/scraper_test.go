package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutsytechster/comcast-bot/pkg/config"
	errs "github.com/gutsytechster/comcast-bot/pkg/errors"
	"github.com/gutsytechster/comcast-bot/pkg/portal"
	"github.com/gutsytechster/comcast-bot/pkg/retry"
	"github.com/gutsytechster/comcast-bot/pkg/storage"
)

// fakeSession implements portal.Session without a browser.
type fakeSession struct {
	loginErr      error
	loginFailures int
	loginCalls    int

	accounts     []portal.Account
	listErr      error
	downloadErr  map[string]error
	downloadCall map[string]int
	closed       bool
}

func newFakeSession(accounts ...portal.Account) *fakeSession {
	return &fakeSession{
		accounts:     accounts,
		downloadErr:  make(map[string]error),
		downloadCall: make(map[string]int),
	}
}

func (f *fakeSession) Login(ctx context.Context) error {
	f.loginCalls++
	if f.loginFailures > 0 {
		f.loginFailures--
		return errs.New(errs.ErrorTypeNavigation, "login page stalled")
	}
	return f.loginErr
}

func (f *fakeSession) ListAccounts(ctx context.Context) ([]portal.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.accounts, nil
}

func (f *fakeSession) DownloadBill(ctx context.Context, account portal.Account) (*portal.Bill, error) {
	f.downloadCall[account.AccountNumber]++
	if err, ok := f.downloadErr[account.AccountNumber]; ok {
		return nil, err
	}
	return &portal.Bill{
		AccountNumber: account.AccountNumber,
		BillID:        "B-" + account.AccountNumber,
		PDF:           []byte("%PDF-1.4 " + account.AccountNumber),
	}, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Portal.Username = "user"
	cfg.Portal.Password = "pass"
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 2 * time.Millisecond
	cfg.RateLimit.RequestsPerMinute = 1000
	cfg.RateLimit.LoginAttemptsPerWindow = 1000
	return cfg
}

func newTestScraper(t *testing.T, session portal.Session) *Scraper {
	t.Helper()

	cfg := testConfig()
	store, err := storage.NewManager(t.TempDir(), false)
	require.NoError(t, err)

	return NewWithSession(cfg, nil, session, store)
}

func TestRunDownloadsAllAccounts(t *testing.T) {
	session := newFakeSession(
		portal.Account{AccountNumber: "111", AuthGUID: "g1"},
		portal.Account{AccountNumber: "222", AuthGUID: "g2"},
		portal.Account{AccountNumber: "333", AuthGUID: "g3"},
	)
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)
	assert.True(t, session.closed, "session must be closed after the run")
}

func TestRunContinuesAfterAccountFailure(t *testing.T) {
	session := newFakeSession(
		portal.Account{AccountNumber: "111"},
		portal.Account{AccountNumber: "222"},
		portal.Account{AccountNumber: "333"},
	)
	session.downloadErr["222"] = errs.New(errs.ErrorTypeNotFound, "no bill for account")
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"222"}, report.FailedAccounts)

	// Accounts after the failing one were still attempted.
	assert.Equal(t, 1, session.downloadCall["333"])
}

func TestRunRetriesRetryableDownloadErrors(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})
	session.downloadErr["111"] = errs.New(errs.ErrorTypeNetwork, "connection reset")
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, session.downloadCall["111"], "network errors retry up to the attempt budget")
}

func TestRunWaitsOnRateLimitBackoffFromFirstFailure(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})
	session.downloadErr["111"] = errs.New(errs.ErrorTypeRateLimit, "portal stalled")

	s := newTestScraper(t, session)
	// Shrunk from the production curve so the test stays fast; still far
	// above the 1ms default delay the config carries.
	s.backoffs.RateLimitBackoff = &retry.ConstantBackoff{Delay: 40 * time.Millisecond}

	start := time.Now()
	report, err := s.Run(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, session.downloadCall["111"])
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond,
		"every rate-limit failure must wait on the rate-limit curve, including the first")
}

func TestRunDoesNotRetryNonRetryableDownloadErrors(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})
	session.downloadErr["111"] = errs.New(errs.ErrorTypeAuth, "session expired")
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, session.downloadCall["111"])
}

func TestRunRetriesLogin(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})
	session.loginFailures = 2
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, session.loginCalls)
	assert.Equal(t, 1, report.Succeeded)
}

func TestRunAbortsWhenLoginExhausted(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})
	session.loginFailures = 10
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "login failed")
	assert.Equal(t, 3, session.loginCalls)
	assert.True(t, session.closed)
	assert.Zero(t, session.downloadCall["111"], "no downloads after a failed login")
}

func TestRunAbortsWhenLoginNotRetryable(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})
	session.loginErr = errs.New(errs.ErrorTypeAuth, "bad credentials")
	s := newTestScraper(t, session)

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, session.loginCalls, "credential rejections must not be retried")
}

func TestRunSkipsAlreadyDownloadedBills(t *testing.T) {
	session := newFakeSession(portal.Account{AccountNumber: "111"})

	cfg := testConfig()
	dir := t.TempDir()
	store, err := storage.NewManager(dir, false)
	require.NoError(t, err)

	s := NewWithSession(cfg, nil, session, store)
	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)

	// Second run against the same directory skips the existing file.
	session2 := newFakeSession(portal.Account{AccountNumber: "111"})
	store2, err := storage.NewManager(dir, false)
	require.NoError(t, err)

	s2 := NewWithSession(cfg, nil, session2, store2)
	report2, err := s2.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report2.Succeeded)
	assert.Equal(t, 1, report2.Skipped)
	assert.Zero(t, report2.Failed)
}

func TestRunFailsWhenListAccountsFails(t *testing.T) {
	session := newFakeSession()
	session.listErr = errs.New(errs.ErrorTypeParsing, "navigation payload malformed")
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "list accounts")
}

func TestRunEmptyAccountList(t *testing.T) {
	session := newFakeSession()
	s := newTestScraper(t, session)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Zero(t, report.Succeeded)
}
