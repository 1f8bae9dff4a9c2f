package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cartly/api/internal/models"
)

// Session endpoints identify the caller's current session through the
// refresh cookie; when the cookie is out of path scope the caller may
// send the token in the X-Refresh-Token header instead.
func currentSessionToken(c *gin.Context) string {
	if token := c.GetHeader("X-Refresh-Token"); token != "" {
		return token
	}
	return refreshTokenFrom(c)
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Status: http.StatusUnauthorized, Message: "unauthorized"})
		return
	}

	sessions, err := h.sessionService.List(c.Request.Context(), user.ID, currentSessionToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h HandlerSet) RevokeOtherSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Status: http.StatusUnauthorized, Message: "unauthorized"})
		return
	}

	count, err := h.sessionService.RevokeOthers(c.Request.Context(), user.ID, currentSessionToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Successfully deleted %d sessions", count),
		"deletedCount": count,
	})
}

func (h HandlerSet) RevokeSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Status: http.StatusUnauthorized, Message: "unauthorized"})
		return
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: "session id required"})
		return
	}

	if err := h.sessionService.Revoke(c.Request.Context(), user.ID, sessionID, currentSessionToken(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}
