package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"govhub/internal/logger"
	"govhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CronHandler 外部定时器调用的过期任务
type CronHandler struct {
	secret        string
	roundDuration time.Duration
}

func NewCronHandler(secret string, roundDuration time.Duration) *CronHandler {
	return &CronHandler{secret: secret, roundDuration: roundDuration}
}

func (h *CronHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return false
	}
	expected := "Bearer " + h.secret
	return subtle.ConstantTimeCompare([]byte(c.GetHeader("Authorization")), []byte(expected)) == 1
}

// Expire GET /api/cron/expire
func (h *CronHandler) Expire(c *gin.Context) {
	if !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := services.RunExpiry(c.Request.Context(), time.Now(), h.roundDuration)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()

	logger.Log.WithFields(logrus.Fields{
		"expired_proposals": result.ExpiredProposals,
		"closed_rounds":     result.ClosedRounds,
	}).Info("expiry job finished")
	c.JSON(http.StatusOK, result)
}
