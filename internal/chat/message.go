package chat

import "time"

type Message struct {
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user_message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(content string, isUser bool) Message {
	return Message{Content: content, IsUser: isUser, Timestamp: time.Now()}
}

// Role maps the origin flag to a chat-completions role.
func (m Message) Role() string {
	if m.IsUser {
		return "user"
	}
	return "assistant"
}

// FormattedTime is the short clock shown next to a message.
func (m Message) FormattedTime() string {
	return m.Timestamp.Local().Format("15:04")
}
