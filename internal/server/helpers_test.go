package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"civichub/internal/config"
	"civichub/internal/models"
	"civichub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Env:             "test",
		Port:            "0",
		DBDriver:        "sqlite",
		SessionSecret:   strings.Repeat("k", 40),
		SessionTTLHours: 24,
		RememberTTLDays: 30,
	}
}

// newTestEnv builds the full app over an in-memory database and miniredis.
// Tests using it must not run in parallel because the cache client is global.
func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	mr, client := testutil.NewRedis(t)

	s, err := NewServerWithDeps(cfg, db, client)
	require.NoError(t, err)
	app, err := s.NewApp()
	require.NoError(t, err)

	return &testEnv{server: s, app: app, db: db, redis: mr}
}

// loginCookie returns a Cookie header value carrying a valid session for user.
func (e *testEnv) loginCookie(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.server.signSession(user.ID, time.Hour)
	require.NoError(t, err)
	return sessionCookie + "=" + token
}

func (e *testEnv) get(t *testing.T, path string, cookies ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return e.do(t, req, cookies)
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values, cookies ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return e.do(t, req, cookies)
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies []string) *http.Response {
	t.Helper()
	if len(cookies) > 0 {
		req.Header.Set(fiber.HeaderCookie, strings.Join(cookies, "; "))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashesOf decodes the flash cookie set by resp.
func flashesOf(resp *http.Response) []Flash {
	c := responseCookie(resp, flashCookie)
	if c == nil || c.Value == "" {
		return nil
	}
	return decodeFlashes(c.Value)
}

func requireFlash(t *testing.T, resp *http.Response, category, message string) {
	t.Helper()
	require.Contains(t, flashesOf(resp), Flash{Category: category, Message: message})
}
