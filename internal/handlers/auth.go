package handlers

import (
	"log"
	"net/http"

	"github.com/RengaN02/api.ss13.org/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the two-endpoint handshake boundary: the login redirect
// and the provider callback.
type AuthHandler struct {
	handshake *services.HandshakeService
}

func NewAuthHandler(handshake *services.HandshakeService) *AuthHandler {
	return &AuthHandler{handshake: handshake}
}

// Login redirects the browser to the provider authorize URL. The access code
// is passed through as OAuth state and becomes the correlation token; it is
// not validated here.
func (h *AuthHandler) Login(c *gin.Context) {
	accessCode := c.Query("code")
	c.Redirect(http.StatusFound, h.handshake.AuthCodeURL(accessCode))
}

// Callback runs the handshake. All failures collapse to one generic 500 so
// that provider error codes and internal state never leak to the caller;
// the detailed reason only goes to the log.
func (h *AuthHandler) Callback(c *gin.Context) {
	authCode := c.Query("code")
	accessCode := c.Query("state")

	identity, err := h.handshake.Authorize(
		c.Request.Context(),
		accessCode,
		authCode,
		c.ClientIP(),
	)
	if err != nil {
		log.Printf("[Handshake] Failed for ip=%s: %v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "authentication failed",
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}
