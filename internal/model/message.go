package model

import "time"

// Message is one chat message. ID is server assigned, Seq grows by one per conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Seq            int64     `json:"seq"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	ClientMsgID    string    `json:"client_msg_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"timestamp"`
}

// MaxMessageLength is the upper bound for message text, in runes.
const MaxMessageLength = 4000

// Involves reports whether the message belongs to the (a, b) pair.
func (m *Message) Involves(a, b int64) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
