package handlers

import (
	"net/http"

	"govhub/internal/db"

	"github.com/gin-gonic/gin"
)

// Health GET /health，检查数据库连接
func Health(c *gin.Context) {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
