package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moodica/internal/schema"
)

// CreateRecord 返回指定记录类型的创建处理器：校验 → 写入 → 返回 {id}。
func (a *API) CreateRecord(kind schema.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := bindPayload(c)
		if !ok {
			return
		}

		doc, err := a.records.Create(c.Request.Context(), kind, payload)
		if err != nil {
			a.respondFailure(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": doc.ID})
	}
}

// ListRecords 返回指定记录类型的列表处理器，limit 缺省为 defaultLimit。
func (a *API) ListRecords(kind schema.Kind, defaultLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimitQuery(c, defaultLimit)
		if !ok {
			return
		}

		docs, err := a.records.List(c.Request.Context(), kind, limit)
		if err != nil {
			a.respondFailure(c, err)
			return
		}

		c.JSON(http.StatusOK, docs)
	}
}

// ListMoods GET /mood
func (a *API) ListMoods(c *gin.Context) {
	a.ListRecords(schema.KindMoodEntry, defaultMoodLimit)(c)
}

// ListWorries GET /worry
func (a *API) ListWorries(c *gin.Context) {
	a.ListRecords(schema.KindWorry, defaultWorryLimit)(c)
}
