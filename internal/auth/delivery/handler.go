package delivery

import (
	"net/http"

	"mail-assistant/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUsecase   usecase.AuthUsecase
	defaultUserID string
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, defaultUserID string) *AuthHandler {
	return &AuthHandler{
		authUsecase:   authUsecase,
		defaultUserID: defaultUserID,
	}
}

func (h *AuthHandler) userID(c *gin.Context, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return h.defaultUserID
}

// Login returns the Google consent URL for the user.
func (h *AuthHandler) Login(c *gin.Context) {
	userID := h.userID(c, c.Query("user_id"))
	c.JSON(http.StatusOK, gin.H{
		"auth_url": h.authUsecase.LoginURL(userID),
		"user":     userID,
	})
}

// Callback receives the authorization code; state carries the user id.
func (h *AuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errParam})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	userID := h.userID(c, c.Query("state"))
	if err := h.authUsecase.CompleteLogin(c.Request.Context(), userID, code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "connected", "user": userID})
}

// ResetToken deletes the stored token; the next mail access needs a new login.
func (h *AuthHandler) ResetToken(c *gin.Context) {
	userID := h.userID(c, c.Param("user_id"))
	if err := h.authUsecase.ResetToken(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "user": userID})
}
