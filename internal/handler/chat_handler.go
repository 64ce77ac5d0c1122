package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const conversationSessionKey = "conversation_id"

// Chat 保存用户消息并返回固定的陪伴回复。
// 未携带 conversation_id 时，仅当请求已带有会话 cookie 中的对话 ID 才沿用它；
// 首次对话的消息按原样保存，同时下发 cookie 供后续请求归组。
func (a *API) Chat(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	conversationID := ""
	if _, provided := payload["conversation_id"]; !provided {
		conversationID = a.sessionConversationID(c)
	}

	docs, err := a.records.Chat(c.Request.Context(), payload, conversationID)
	if err != nil {
		a.respondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": docs})
}

// sessionConversationID 返回会话中已有的对话 ID；没有时生成新 ID 写入会话并返回空串。
func (a *API) sessionConversationID(c *gin.Context) string {
	session := sessions.Default(c)
	if id, ok := session.Get(conversationSessionKey).(string); ok && id != "" {
		return id
	}

	session.Set(conversationSessionKey, uuid.NewString())
	if err := session.Save(); err != nil {
		a.logger.Warn("failed to save chat session", zap.Error(err))
	}
	return ""
}
