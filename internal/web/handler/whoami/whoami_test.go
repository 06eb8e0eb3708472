package whoami_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoSSOGate/GoSSOGate/internal/auth"
	"github.com/GoSSOGate/GoSSOGate/internal/config"
	"github.com/GoSSOGate/GoSSOGate/internal/db/models"
	"github.com/GoSSOGate/GoSSOGate/internal/web/handler/whoami"
	"github.com/GoSSOGate/GoSSOGate/internal/web/middleware/sso"
)

type staticChecker struct{}

func (staticChecker) CheckAuthenticated(_ *fiber.Ctx) (bool, error) { return true, nil }

type staticLogin struct {
	principal *auth.Principal
}

func (s staticLogin) AutoLogin(_ *fiber.Ctx) (*auth.Principal, error) { return s.principal, nil }

func (staticLogin) Logout(_ *fiber.Ctx) error { return nil }

func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	app := fiber.New()

	gate := sso.New(sso.Config{
		Checker:   staticChecker{},
		AutoLogin: staticLogin{principal: auth.NewSSOPrincipal("jdoe", "John Doe", "jdoe@example.org", []string{"admins"})},
	})
	app.Use(gate.Handler())

	whoami.Handler.Init(app, &config.Config{}, db)

	return app
}

func TestWhoamiAuthenticated(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	lastLogin := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.User{
		Username:    "jdoe",
		Active:      true,
		LastLoginAt: lastLogin,
	}).Error)

	app := newTestApp(t, db)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "sso.token", Value: "tok-1"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var got whoami.Response
	require.NoError(t, json.Unmarshal(body, &got))

	assert.Equal(t, "jdoe", got.Subject)
	assert.Equal(t, "John Doe", got.DisplayName)
	assert.Equal(t, []string{"admins"}, got.Authorities)
	assert.True(t, got.SSO)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(lastLogin))
}

func TestWhoamiUnauthenticated(t *testing.T) {
	app := newTestApp(t, nil)

	// no token cookie at all
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
