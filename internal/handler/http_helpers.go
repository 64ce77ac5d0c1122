package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moodica/internal/schema"
	"go.uber.org/zap"
)

const internalErrorMessage = "internal server error"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondValidation(c *gin.Context, verr *schema.ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation failed",
		"detail": verr.Violations,
	})
}

// respondFailure 将业务错误映射为 HTTP 状态：校验失败 422，其余一律 500 且不暴露内部细节。
func (a *API) respondFailure(c *gin.Context, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		respondValidation(c, verr)
		return
	}

	_ = c.Error(err)
	a.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	respondError(c, http.StatusInternalServerError, internalErrorMessage)
}

func bodyViolation(message string) *schema.ValidationError {
	return &schema.ValidationError{Violations: []schema.Violation{{
		Field:      "body",
		Constraint: schema.ConstraintType,
		Message:    message,
	}}}
}

// bindPayload 将请求体解析为原始键值对，数字保留为 json.Number 交给 schema 判断。
func bindPayload(c *gin.Context) (map[string]any, bool) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		respondValidation(c, bodyViolation("request body must be a JSON object"))
		return nil, false
	}
	// 请求体只能包含一个 JSON 对象
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		respondValidation(c, bodyViolation("request body must contain a single JSON object"))
		return nil, false
	}
	return payload, true
}

func parseLimitQuery(c *gin.Context, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		respondValidation(c, &schema.ValidationError{Violations: []schema.Violation{{
			Field:      "limit",
			Constraint: schema.ConstraintType,
			Value:      raw,
			Message:    "must be an integer",
		}}})
		return 0, false
	}
	if limit < 1 {
		respondValidation(c, &schema.ValidationError{Violations: []schema.Violation{{
			Field:      "limit",
			Constraint: schema.ConstraintMin,
			Value:      limit,
			Message:    "must be greater than or equal to 1",
		}}})
		return 0, false
	}
	return limit, true
}
