package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"govhub/internal/config"
	"govhub/internal/logger"
	"govhub/internal/middleware"
	"govhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const (
	discordAuthURL = "https://discord.com/oauth2/authorize"
	oauthStateKey  = "oauth_state"
)

// newDiscordOAuthConfig token 地址跟随 DISCORD_API_URL，便于测试替换
func newDiscordOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		RedirectURL:  cfg.SiteURL + "/api/auth/discord/callback",
		Scopes:       []string{"identify", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   discordAuthURL,
			TokenURL:  cfg.DiscordAPIURL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// generateStateToken 生成随机 state token
func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// DiscordLogin GET /api/auth/discord
func (h *AuthHandler) DiscordLogin(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		respondError(c, fmt.Errorf("generate state token: %w", err))
		return
	}

	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	_ = session.Save()

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// DiscordCallback GET /api/auth/discord/callback
func (h *AuthHandler) DiscordCallback(c *gin.Context) {
	session := sessions.Default(c)
	savedState, _ := session.Get(oauthStateKey).(string)

	if savedState == "" || c.Query("state") != savedState {
		h.redirectWithError(c, "invalid_state")
		return
	}
	// state 只用一次，删除随本次响应的唯一一次 Save 写回
	session.Delete(oauthStateKey)

	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, "no_code")
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Log.WithError(err).Warn("discord token exchange failed")
		h.redirectWithError(c, "token_exchange_failed")
		return
	}

	profile, err := h.fetchDiscordProfile(ctx, token)
	if err != nil {
		logger.Log.WithError(err).Warn("discord profile fetch failed")
		h.redirectWithError(c, "get_userinfo_failed")
		return
	}

	user, err := services.UpsertDiscordUser(ctx, *profile, h.superAdminIDs)
	if err != nil {
		logger.Log.WithError(err).WithField("discord_id", profile.ID).Error("discord user upsert failed")
		h.redirectWithError(c, "login_failed")
		return
	}

	session.Set(middleware.SessionUserKey, user.ID)
	_ = session.Save()

	logger.Log.WithField("user_id", user.ID).Info("user signed in with discord")
	c.Redirect(http.StatusFound, h.siteURL+"/")
}

func (h *AuthHandler) fetchDiscordProfile(ctx context.Context, token *oauth2.Token) (*services.DiscordProfile, error) {
	client := h.oauth.Client(ctx, token)
	resp, err := client.Get(h.apiURL + "/users/@me")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取用户信息失败: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var profile services.DiscordProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (h *AuthHandler) redirectWithError(c *gin.Context, code string) {
	_ = sessions.Default(c).Save()
	c.Redirect(http.StatusFound, h.siteURL+"/login?error="+url.QueryEscape(code))
}
