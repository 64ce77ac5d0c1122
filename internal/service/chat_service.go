package service

import (
	"context"
	"fmt"

	"github.com/moodica/internal/db"
	"github.com/moodica/internal/schema"
)

// SupportiveReply 是陪伴对话的固定回复。
// 回复内容固定，不做个性化。
const SupportiveReply = "Thank you for sharing that with me. You are not alone, and it's okay to feel this way. " +
	"Let's take a slow breath together: in for 4, hold for 4, out for 6. " +
	"If you are in danger, please contact your local emergency services."

// Chat 保存用户消息，并追加一条固定的助手回复；返回两条已写入的消息。
// conversationID 仅在请求未携带 conversation_id 时使用。
func (s *RecordService) Chat(ctx context.Context, payload map[string]any, conversationID string) ([]db.Document, error) {
	record, err := schema.Validate(schema.KindChatMessage, payload, s.now().UTC())
	if err != nil {
		return nil, err
	}

	message := record.(schema.ChatMessage)
	if message.ConversationID == nil && conversationID != "" {
		message.ConversationID = &conversationID
	}

	collection := schema.KindChatMessage.Collection()
	userDoc, err := s.store.Create(ctx, collection, message)
	if err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}

	reply := schema.ChatMessage{
		Role:           schema.RoleAssistant,
		Content:        SupportiveReply,
		ConversationID: message.ConversationID,
	}
	replyDoc, err := s.store.Create(ctx, collection, reply)
	if err != nil {
		return nil, fmt.Errorf("save chat reply: %w", err)
	}

	return []db.Document{userDoc, replyDoc}, nil
}
