package handlers

import (
	"net/http"

	"govhub/internal/logger"
	"govhub/internal/middleware"
	"govhub/internal/models"
	"govhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// respondError 业务错误按分类返回，其余记录日志后统一返回 500
func respondError(c *gin.Context, err error) {
	if e, ok := services.AsError(err); ok {
		c.JSON(statusForKind(e.Kind), gin.H{"error": e.Message})
		return
	}

	fields := logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
	if user := currentUser(c); user != nil {
		fields["user_id"] = user.ID
	}
	logger.Log.WithFields(fields).WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func statusForKind(k services.Kind) int {
	switch k {
	case services.KindValidation, services.KindConflict:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// bindJSON 请求体无法解析时直接返回 400
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

// viewerID 未登录时返回空字符串
func viewerID(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}
