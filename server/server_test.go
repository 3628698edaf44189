package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-web-template/devapi"
	"github.com/jrsteele09/go-web-template/internal/config"
	"github.com/jrsteele09/go-web-template/server"
	"github.com/jrsteele09/go-web-template/server/browsersession"
	"github.com/jrsteele09/go-web-template/session/identitycache"
	"github.com/jrsteele09/go-web-template/users"
	fakeaccountrepo "github.com/jrsteele09/go-web-template/users/repofake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "password123"
)

type testFixture struct {
	api        *httptest.Server
	app        *httptest.Server
	identities *identitycache.MemoryRepo
	sessions   *browsersession.InMemoryRepo
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	service, err := devapi.NewService(
		fakeaccountrepo.NewFakeAccountRepo(),
		devapi.NewAccessTokens([]byte("1234"), "com.testissuer", 15*time.Minute),
		devapi.NewRefreshTokens(devapi.NewInMemoryRefreshTokenRepo(), 32, 7*24*time.Hour),
	)
	require.NoError(t, err)
	require.NoError(t, service.SeedAccount(testUserEmail, testUserPassword, users.RoleUser))

	api := httptest.NewServer(devapi.NewHandler(service))
	t.Cleanup(api.Close)

	t.Setenv("API_URL", api.URL)
	t.Setenv("ENV", "TEST")

	f := &testFixture{
		api:        api,
		identities: identitycache.NewMemoryRepo(),
	}
	f.startApp(t)
	return f
}

// startApp starts (or restarts) the web app over the same identity cache
func (f *testFixture) startApp(t *testing.T) {
	t.Helper()
	if f.app != nil {
		f.app.Close()
	}

	f.sessions = browsersession.NewInMemoryRepo()
	srv, err := server.New(config.New(), f.sessions, f.identities)
	require.NoError(t, err)

	f.app = httptest.NewServer(srv)
	t.Cleanup(f.app.Close)
}

// browser is a cookie-keeping client that does not follow redirects
type browser struct {
	t      *testing.T
	f      *testFixture
	client *http.Client
}

func (f *testFixture) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t: t,
		f: f,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.f.app.URL+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.f.app.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(email, password, from string) *http.Response {
	b.t.Helper()
	resp, _ := b.post("/login", url.Values{"email": {email}, "password": {password}, "from": {from}})
	return resp
}

func (b *browser) session() server.SessionResponse {
	b.t.Helper()
	resp, body := b.get("/api/session")
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	var s server.SessionResponse
	require.NoError(b.t, json.Unmarshal([]byte(body), &s))
	return s
}

func TestServer_AnonymousIsRedirectedToLogin(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp, _ := b.get("/app/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?from=%2Fapp%2Fdashboard", resp.Header.Get("Location"))

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "web_session" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	resp, _ = b.get("/")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/app", resp.Header.Get("Location"))
}

func TestServer_LoginValidation(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp, body := b.post("/login", url.Values{"email": {"not-an-email"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please enter a valid email")
	assert.Contains(t, body, "Please enter your password")
	assert.Contains(t, body, `value="not-an-email"`)
}

func TestServer_LoginRejectedKeepsSessionAnonymous(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp, body := b.post("/login", url.Values{"email": {testUserEmail}, "password": {"wrong-password1"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Invalid email or password")

	s := b.session()
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.User)
}

func TestServer_LoginDashboardLogout(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp := b.login(testUserEmail, testUserPassword, "/app/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/app/dashboard", resp.Header.Get("Location"))

	resp, body := b.get("/app/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, testUserEmail)
	assert.Contains(t, body, "USER")
	assert.Regexp(t, `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`, body)

	s := b.session()
	assert.True(t, s.Authenticated)
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.User)
	assert.Equal(t, testUserEmail, s.User.Email)
	require.NotNil(t, s.ExpiresAt)

	_, raw := b.get("/api/session")
	assert.NotContains(t, raw, "accessToken")
	assert.NotContains(t, raw, "eyJ") // no JWT

	resp, _ = b.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = b.get("/app")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.False(t, b.session().Authenticated)
}

func TestServer_SwitchingUserShowsNewUsersDetails(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	b.login(testUserEmail, testUserPassword, "")
	resp, body := b.get("/app")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, testUserEmail)

	other := f.newBrowser(t)
	resp, _ = other.post("/register", url.Values{
		"email":           {"second@example.com"},
		"password":        {"password456"},
		"confirmPassword": {"password456"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Same browser, new user, no logout in between
	resp = b.login("second@example.com", "password456", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = b.get("/app")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "second@example.com")
	assert.NotContains(t, body, testUserEmail)
}

func TestServer_LoginIgnoresForeignReturnTo(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp := b.login(testUserEmail, testUserPassword, "https://evil.example.com/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/app", resp.Header.Get("Location"))
}

func TestServer_SignedInLoginPageRedirects(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)
	b.login(testUserEmail, testUserPassword, "")

	resp, _ := b.get("/login?from=%2Fapp%2Fdashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/app/dashboard", resp.Header.Get("Location"))
}

func TestServer_Register(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp, body := b.post("/register", url.Values{
		"email":           {"jane@example.com"},
		"password":        {"short"},
		"confirmPassword": {"other"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Password must be at least 8 characters")
	assert.Contains(t, body, "Passwords do not match")

	resp, body = b.post("/register", url.Values{
		"email":           {testUserEmail},
		"password":        {"password456"},
		"confirmPassword": {"password456"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Email is already registered")

	resp, _ = b.post("/register", url.Values{
		"email":           {"jane@example.com"},
		"password":        {"password456"},
		"confirmPassword": {"password456"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/app", resp.Header.Get("Location"))

	resp, body = b.get("/app")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "jane@example.com")
}

func TestServer_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)
	b.login(testUserEmail, testUserPassword, "")
	before := b.session().ExpiresAt
	require.NotNil(t, before)

	// Jump past the access token lifetime, well inside the refresh token's
	t.Cleanup(func() { devapi.NowTimeFunc = time.Now })
	devapi.NowTimeFunc = func() time.Time { return time.Now().Add(20 * time.Minute) }

	resp, body := b.get("/app/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, testUserEmail)

	after := b.session().ExpiresAt
	require.NotNil(t, after)
	assert.True(t, after.After(*before))
}

func TestServer_RestartRehydratesThenRequiresLogin(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)
	b.login(testUserEmail, testUserPassword, "")

	// Cookies are keyed by host, so the browser keeps presenting its session
	// cookie to the restarted app
	f.startApp(t)

	// The identity is rehydrated but the refresh cookie lived in the old process
	resp, _ := b.get("/app")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?from=%2Fapp", resp.Header.Get("Location"))

	s := b.session()
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.User)
}

func TestServer_SessionAPICors(t *testing.T) {
	f := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.app.URL+"/api/session", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServer_StaticCSS(t *testing.T) {
	f := setupTestFixture(t)
	b := f.newBrowser(t)

	resp, body := b.get("/css/app.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, body, ".auth-card")

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, f.app.URL+"/css/app.css", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, body = b.do(req)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Empty(t, body)

	resp, _ = b.get("/css/missing.css")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
