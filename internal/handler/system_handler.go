package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moodica/internal/db"
	"github.com/moodica/internal/service"
)

// Root 存活探针，不依赖存储。
func (a *API) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Moodica backend running",
		"app":     "Moodica",
	})
}

// Diagnostics GET /test，面向运维的存储连通性报告。
func (a *API) Diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, a.diagnostics.Report(c.Request.Context()))
}

// HealthCheck 提供容器编排与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	if err := a.store.Ping(c.Request.Context()); err != nil {
		message := "database unreachable"
		if errors.Is(err, db.ErrStoreUnavailable) {
			message = "database not connected"
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// Compliance 返回静态合规声明。
func (a *API) Compliance(c *gin.Context) {
	c.JSON(http.StatusOK, service.Compliance())
}
