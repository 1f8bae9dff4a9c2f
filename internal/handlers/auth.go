package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cartly/api/internal/apperr"
	"cartly/api/internal/models"
	"cartly/api/internal/service"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type userResponse struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Verified  bool          `json:"verified"`
	Roles     []models.Role `json:"roles"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// sanitizeUser strips the password hash and code fields from anything
// that leaves the API.
func sanitizeUser(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Verified:  user.Verified,
		Roles:     user.Roles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func deviceContext(c *gin.Context) service.DeviceContext {
	return service.DeviceContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// RegisterAccount answers 201 for a brand new account and 200 when a
// pending registration was overwritten and its code reissued.
func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	user, created, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"message": "Verification code sent to your email. Please verify your account.",
		"user":    sanitizeUser(user),
	})
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h HandlerSet) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	user, pair, err := h.authService.Verify(c.Request.Context(), req.Email, req.Code, deviceContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Account verified successfully",
		"user":         sanitizeUser(user),
		"access_token": pair.AccessToken,
	})
}

func (h HandlerSet) CheckVerificationCode(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	if err := h.authService.CheckVerificationCode(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code is valid"})
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ResendVerificationCode(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	if err := h.authService.ResendVerificationCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent to your email"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, deviceContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":         sanitizeUser(user),
		"access_token": pair.AccessToken,
	})
}

// Refresh rotates the token pair bound to the refresh cookie. Any
// failure clears both cookies so a broken client stops retrying with
// dead credentials.
func (h HandlerSet) Refresh(c *gin.Context) {
	_, pair, err := h.authService.RefreshTokens(c.Request.Context(), refreshTokenFrom(c), deviceContext(c))
	if err != nil {
		h.clearAuthCookies(c)
		respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Tokens refreshed successfully",
		"access_token": pair.AccessToken,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	// The refresh cookie is path-scoped to the refresh endpoint, so
	// accept the X-Refresh-Token header here too; without a token the
	// call still clears cookies and reports success.
	if err := h.authService.Logout(c.Request.Context(), currentSessionToken(c)); err != nil {
		respondError(c, err)
		return
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset code sent to your email"})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset successfully. Please login with your new password.",
	})
}

// SocialCallback finishes a federated login: the provider exchanges
// and verifies the authorization code, the service links or creates
// the account.
func (h HandlerSet) SocialCallback(c *gin.Context) {
	p, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Status: http.StatusNotFound, Message: err.Error()})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Message: "missing authorization code"})
		return
	}

	identity, err := p.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		h.log.Warn().Err(err).Str("provider", p.Name()).Msg("federated identity exchange failed")
		respondError(c, apperr.New(apperr.KindUnauthorized, "federated login failed"))
		return
	}

	user, pair, err := h.authService.SocialLogin(c.Request.Context(), identity, deviceContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"user":         sanitizeUser(user),
		"access_token": pair.AccessToken,
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	userVal, exists := c.Get("current_user")
	if !exists {
		c.JSON(http.StatusUnauthorized, errorResponse{Status: http.StatusUnauthorized, Message: "unauthorized"})
		return
	}

	user, ok := userVal.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Status: http.StatusUnauthorized, Message: "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}
