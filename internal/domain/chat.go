package domain

import "time"

type Sender string

const (
	SenderUser    Sender = "user"
	SenderChatbot Sender = "chatbot"
)

type ChatMessage struct {
	ID        string           `json:"id"`
	Sender    Sender           `json:"sender"`
	Text      string           `json:"text"`
	Products  []ProductSummary `json:"products,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// ChatReply is the backend's answer to one converse call.
type ChatReply struct {
	Response string           `json:"response"`
	Products []ProductSummary `json:"products"`
}
