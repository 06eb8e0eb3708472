package sso

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSSOGate/GoSSOGate/internal/auth"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

type fakeChecker struct {
	mu    sync.Mutex
	valid bool
	err   error
	calls int
}

func (f *fakeChecker) CheckAuthenticated(_ *fiber.Ctx) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.valid, f.err
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type fakeAutoLogin struct {
	mu          sync.Mutex
	principal   *auth.Principal
	err         error
	loginCalls  int
	logoutCalls int
}

func (f *fakeAutoLogin) AutoLogin(_ *fiber.Ctx) (*auth.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loginCalls++

	return f.principal, f.err
}

func (f *fakeAutoLogin) Logout(_ *fiber.Ctx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logoutCalls++

	return nil
}

func (f *fakeAutoLogin) counts() (logins, logouts int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.loginCalls, f.logoutCalls
}

// runGate sends one request through the gate and reports the principal the
// downstream handler observed.
func runGate(t *testing.T, g *Gate, token string) (*auth.Principal, *http.Response) {
	t.Helper()

	app := fiber.New()
	app.Use(g.Handler())

	var seen *auth.Principal

	app.Get("/", func(c *fiber.Ctx) error {
		seen = Principal(c)

		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: defaultTokenCookie, Value: token})
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return seen, resp
}

func TestGateInstallsPrincipal(t *testing.T) {
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{principal: auth.NewSSOPrincipal("jdoe", "John Doe", "jdoe@example.org", []string{"admins"})}
	gate := New(Config{Checker: checker, AutoLogin: login})

	seen, _ := runGate(t, gate, "tok-1")

	require.NotNil(t, seen)
	assert.Equal(t, "jdoe", seen.Subject)
	assert.Equal(t, []string{"admins"}, seen.Authorities)
	assert.True(t, seen.SSO)

	logins, _ := login.counts()
	assert.Equal(t, 1, logins)
}

func TestGateCachesValidationAndPrincipal(t *testing.T) {
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{principal: auth.NewSSOPrincipal("jdoe", "", "", nil)}
	gate := New(Config{Checker: checker, AutoLogin: login})

	first, _ := runGate(t, gate, "tok-1")
	second, _ := runGate(t, gate, "tok-1")

	require.NotNil(t, first)
	require.NotNil(t, second)

	assert.Equal(t, 1, checker.callCount(), "second request must hit the validation cache")

	logins, _ := login.counts()
	assert.Equal(t, 1, logins, "second request must hit the principal cache")
}

func TestGateNeverCachesFailedValidation(t *testing.T) {
	checker := &fakeChecker{valid: false}
	gate := New(Config{Checker: checker})

	seen, _ := runGate(t, gate, "tok-1")
	assert.Nil(t, seen)

	_, _ = runGate(t, gate, "tok-1")
	assert.Equal(t, 2, checker.callCount())
}

func TestGateRevalidatesAfterInterval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	checker := &fakeChecker{valid: true}
	gate := New(Config{
		Checker:            checker,
		ValidationInterval: time.Minute,
		Now:                clock.Now,
	})

	_, _ = runGate(t, gate, "tok-1")
	assert.Equal(t, 1, checker.callCount())

	clock.Advance(30 * time.Second)
	_, _ = runGate(t, gate, "tok-1")
	assert.Equal(t, 1, checker.callCount(), "within the interval the cache answers")

	clock.Advance(time.Minute)
	_, _ = runGate(t, gate, "tok-1")
	assert.Equal(t, 2, checker.callCount(), "past the interval the checker is consulted again")
}

func TestGateCachesNilAutoLoginOutcome(t *testing.T) {
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{}
	gate := New(Config{Checker: checker, AutoLogin: login})

	first, _ := runGate(t, gate, "tok-1")
	second, _ := runGate(t, gate, "tok-1")

	assert.Nil(t, first)
	assert.Nil(t, second)

	logins, _ := login.counts()
	assert.Equal(t, 1, logins, "the nil outcome is cached by default")
}

func TestGateRetryFailedAutoLogin(t *testing.T) {
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{err: errors.New("directory unavailable")}
	gate := New(Config{Checker: checker, AutoLogin: login, RetryFailedAutoLogin: true})

	_, _ = runGate(t, gate, "tok-1")
	_, _ = runGate(t, gate, "tok-1")

	logins, _ := login.counts()
	assert.Equal(t, 2, logins, "failed outcomes are retried when configured")
}

func TestGateTeardown(t *testing.T) {
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{principal: auth.NewSSOPrincipal("jdoe", "", "", nil)}
	gate := New(Config{Checker: checker, AutoLogin: login})

	first, _ := runGate(t, gate, "tok-1")
	require.NotNil(t, first)

	// The session dies remotely; the next request must log out locally.
	checker.mu.Lock()
	checker.valid = false
	checker.mu.Unlock()

	gate.validation.Invalidate("tok-1")

	second, resp := runGate(t, gate, "tok-1")
	assert.Nil(t, second)

	_, logouts := login.counts()
	assert.Equal(t, 1, logouts)

	var rememberMe *http.Cookie

	for _, ck := range resp.Cookies() {
		if ck.Name == defaultRememberMeCookie {
			rememberMe = ck
		}
	}

	require.NotNil(t, rememberMe, "teardown must reset the remember-me cookie")
	assert.Empty(t, rememberMe.Value)
	assert.Equal(t, "/", rememberMe.Path)

	// Both cache entries were purged, so a revived session goes through the
	// full checker and auto-login path again.
	checker.mu.Lock()
	checker.valid = true
	checker.mu.Unlock()

	third, _ := runGate(t, gate, "tok-1")
	require.NotNil(t, third)

	logins, _ := login.counts()
	assert.Equal(t, 2, logins)
}

func TestGateTeardownCookieDomain(t *testing.T) {
	checker := &fakeChecker{valid: false}
	gate := New(Config{Checker: checker, CookieDomain: "sso.example.com"})

	_, resp := runGate(t, gate, "tok-1")

	var rememberMe *http.Cookie

	for _, ck := range resp.Cookies() {
		if ck.Name == defaultRememberMeCookie {
			rememberMe = ck
		}
	}

	require.NotNil(t, rememberMe)
	assert.Equal(t, "sso.example.com", rememberMe.Domain)
}

func TestGateConcurrentSameToken(t *testing.T) {
	// Concurrent requests with one token may all miss the caches and each
	// consult the checker and auto-login. That redundancy is acceptable; what
	// matters is that every request observes a usable principal and the
	// caches converge to a single answer.
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{principal: auth.NewSSOPrincipal("jdoe", "", "", nil)}
	gate := New(Config{Checker: checker, AutoLogin: login})

	app := fiber.New()
	app.Use(gate.Handler())
	app.Get("/", func(c *fiber.Ctx) error {
		if p := Principal(c); p == nil || p.Subject != "jdoe" {
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	const requests = 16

	var wg sync.WaitGroup

	statuses := make([]int, requests)

	for i := 0; i < requests; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: defaultTokenCookie, Value: "tok-1"})

			resp, err := app.Test(req)
			if err != nil {
				return
			}

			statuses[i] = resp.StatusCode
		}(i)
	}

	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, "request %d saw no principal", i)
	}

	assert.LessOrEqual(t, checker.callCount(), requests)

	// After convergence the caches answer and no further remote work happens.
	checks := checker.callCount()
	logins, _ := login.counts()

	seen, _ := runGate(t, gate, "tok-1")
	require.NotNil(t, seen)
	assert.Equal(t, "jdoe", seen.Subject)

	assert.Equal(t, checks, checker.callCount())

	loginsAfter, _ := login.counts()
	assert.Equal(t, logins, loginsAfter)
}

func TestGateBlankToken(t *testing.T) {
	checker := &fakeChecker{valid: true}
	login := &fakeAutoLogin{}
	gate := New(Config{Checker: checker, AutoLogin: login})

	seen, _ := runGate(t, gate, "")

	assert.Nil(t, seen)
	assert.Equal(t, 0, checker.callCount(), "no token means no remote check")

	_, logouts := login.counts()
	assert.Equal(t, 1, logouts, "the teardown still runs")
}

func TestGateCheckerError(t *testing.T) {
	checker := &fakeChecker{err: errors.New("identity service down")}
	gate := New(Config{Checker: checker})

	seen, _ := runGate(t, gate, "tok-1")

	assert.Nil(t, seen)
	assert.Equal(t, 1, checker.callCount())

	// Errors are not cached; the next request retries.
	_, _ = runGate(t, gate, "tok-1")
	assert.Equal(t, 2, checker.callCount())
}

func TestGateRequiresChecker(t *testing.T) {
	assert.Panics(t, func() { New(Config{}) })
}
