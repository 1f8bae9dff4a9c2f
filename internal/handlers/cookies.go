package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cartly/api/internal/apperr"
	"cartly/api/internal/security"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"

	// refreshCookiePath scopes the refresh cookie to the one endpoint
	// that needs it.
	refreshCookiePath = "/api/v1/auth/refresh"
)

// setAuthCookies mirrors the response-body tokens into HTTP-only
// SameSite=Strict cookies; the access cookie is site-wide, the refresh
// cookie path-scoped.
func (h HandlerSet) setAuthCookies(c *gin.Context, pair security.TokenPair) {
	secure := h.cfg.Production()
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, pair.AccessToken, int(h.cfg.Security.JWTAccessTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(refreshCookie, pair.RefreshToken, int(h.cfg.Security.JWTRefreshTTL.Seconds()), refreshCookiePath, "", secure, true)
}

func (h HandlerSet) clearAuthCookies(c *gin.Context) {
	secure := h.cfg.Production()
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshCookie, "", -1, refreshCookiePath, "", secure, true)
}

func refreshTokenFrom(c *gin.Context) string {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return token
}

type errorResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	resp := errorResponse{Status: status, Message: err.Error()}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		resp.Fields = appErr.Fields
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
	}

	c.JSON(status, resp)
}
