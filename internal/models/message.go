package models

import (
	"fmt"
	"strings"
)

// Sender identifies who wrote a message in the transcript.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ParseSender accepts the wire names used by chat clients. "assistant" is an
// alias for the bot, as older clients store their greeting under that role.
func ParseSender(raw string) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return SenderUser, nil
	case "bot", "assistant":
		return SenderBot, nil
	default:
		return "", fmt.Errorf("unknown sender %q", raw)
	}
}

// Message is a single entry of a chat transcript.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"msg"`
}

// UserMessage is shorthand for a message written by the customer.
func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

// BotMessage is shorthand for a message written by the bot.
func BotMessage(text string) Message {
	return Message{Sender: SenderBot, Text: text}
}

// CloneTranscript returns a copy that callers may keep after the source changes.
func CloneTranscript(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}
