package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cartly/api/internal/repository"
)

func (h HandlerSet) AdminGetUser(c *gin.Context) {
	id := c.Param("id")

	user, err := h.users.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Status: http.StatusNotFound, Message: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Status: http.StatusInternalServerError, Message: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}
