package handlers

import (
	"net/http"

	"govhub/internal/config"
	"govhub/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

type AuthHandler struct {
	oauth         *oauth2.Config
	apiURL        string
	siteURL       string
	superAdminIDs []string
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		oauth:         newDiscordOAuthConfig(cfg),
		apiURL:        cfg.DiscordAPIURL,
		siteURL:       cfg.SiteURL,
		superAdminIDs: cfg.SuperAdminDiscordIDs,
	}
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(middleware.SessionUserKey)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
