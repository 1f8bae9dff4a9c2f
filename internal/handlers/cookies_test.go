package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartly/api/internal/config"
	"cartly/api/internal/ratelimit"
	"cartly/api/internal/security"
	"cartly/api/internal/service"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:     "test-secret",
			JWTAccessTTL:  15 * time.Minute,
			JWTRefreshTTL: 168 * time.Hour,
			OTPDigits:     6,
			OTPTTL:        10 * time.Minute,
		},
	}
}

func testHandlerSet(cfg *config.AppConfig) HandlerSet {
	issuer := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTAccessTTL, cfg.Security.JWTRefreshTTL)
	auth := service.NewAuthService(nil, nil, nil, issuer, ratelimit.New(nil, zerolog.Nop()), cfg, zerolog.Nop())
	return HandlerSet{
		log:         zerolog.Nop(),
		cfg:         cfg,
		issuer:      issuer,
		authService: auth,
	}
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSetAuthCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := testHandlerSet(testConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.setAuthCookies(c, security.TokenPair{AccessToken: "acc", RefreshToken: "ref"})

	cookies := w.Result().Cookies()
	access := cookieByName(cookies, "access_token")
	require.NotNil(t, access)
	assert.Equal(t, "acc", access.Value)
	assert.Equal(t, "/", access.Path)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

	refresh := cookieByName(cookies, "refresh_token")
	require.NotNil(t, refresh)
	assert.Equal(t, "ref", refresh.Value)
	assert.Equal(t, "/api/v1/auth/refresh", refresh.Path, "refresh cookie only travels to the refresh endpoint")
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, int((168 * time.Hour).Seconds()), refresh.MaxAge)
}

func TestFailedRefreshClearsCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := testHandlerSet(testConfig())

	router := gin.New()
	router.GET("/api/v1/auth/refresh", h.Refresh)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/refresh", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := w.Result().Cookies()
	access := cookieByName(cookies, "access_token")
	require.NotNil(t, access)
	assert.Less(t, access.MaxAge, 0, "access cookie cleared")

	refresh := cookieByName(cookies, "refresh_token")
	require.NotNil(t, refresh)
	assert.Less(t, refresh.MaxAge, 0, "refresh cookie cleared")
}
