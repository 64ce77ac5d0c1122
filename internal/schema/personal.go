package schema

import "time"

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// NotificationStyle 通知语气。
type NotificationStyle string

const (
	NotificationSoft         NotificationStyle = "soft"
	NotificationNeutral      NotificationStyle = "neutral"
	NotificationMotivational NotificationStyle = "motivational"
)

// UITone 界面语气。
type UITone string

const (
	UIToneQuiet UITone = "quiet"
	UIToneHappy UITone = "happy"
)

// Role 对话消息角色。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Garden 成长花园：感恩、骄傲时刻与安全之地，全部可选。
type Garden struct {
	Gratitude    []string `json:"gratitude"`
	ProudMoments []string `json:"proud_moments"`
	SafePlace    *string  `json:"safe_place"`
}

func (Garden) RecordKind() Kind { return KindGarden }

func decodeGarden(r *reader, _ time.Time) Record {
	return Garden{
		Gratitude:    r.stringListOrEmpty("gratitude"),
		ProudMoments: r.stringListOrEmpty("proud_moments"),
		SafePlace:    r.optionalString("safe_place"),
	}
}

// Reflection 写给未来自己的话，可设定 reveal_at 揭晓时间。
type Reflection struct {
	Text     string     `json:"text"`
	RevealAt *time.Time `json:"reveal_at"`
}

func (Reflection) RecordKind() Kind { return KindReflection }

func decodeReflection(r *reader, _ time.Time) Record {
	return Reflection{
		Text:     r.requiredString("text"),
		RevealAt: r.optionalTime("reveal_at"),
	}
}

// UserSettings 个性化设置，所有字段都有默认值。
type UserSettings struct {
	Theme             Theme             `json:"theme" validate:"oneof=light dark"`
	Avatar            *string           `json:"avatar"`
	NotificationStyle NotificationStyle `json:"notification_style" validate:"oneof=soft neutral motivational"`
	UITone            UITone            `json:"ui_tone" validate:"oneof=quiet happy"`
	GardenStyle       *string           `json:"garden_style"`
}

func (UserSettings) RecordKind() Kind { return KindUserSettings }

func decodeUserSettings(r *reader, _ time.Time) Record {
	return UserSettings{
		Theme:             Theme(r.stringOr("theme", string(ThemeLight))),
		Avatar:            r.optionalString("avatar"),
		NotificationStyle: NotificationStyle(r.stringOr("notification_style", string(NotificationSoft))),
		UITone:            UITone(r.stringOr("ui_tone", string(UIToneQuiet))),
		GardenStyle:       r.optionalString("garden_style"),
	}
}

// ChatMessage 陪伴对话中的一条消息。
type ChatMessage struct {
	Role           Role    `json:"role" validate:"oneof=user assistant"`
	Content        string  `json:"content"`
	ConversationID *string `json:"conversation_id"`
}

func (ChatMessage) RecordKind() Kind { return KindChatMessage }

func decodeChatMessage(r *reader, _ time.Time) Record {
	return ChatMessage{
		Role:           Role(r.requiredString("role")),
		Content:        r.requiredString("content"),
		ConversationID: r.optionalString("conversation_id"),
	}
}
