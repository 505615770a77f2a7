package bot

import (
	"context"

	"github.com/j0lvera/sanga/internal/conversation"
)

// Completer turns a persona and a channel history into the assistant's reply.
type Completer interface {
	Complete(ctx context.Context, system string, history []conversation.Record) (string, error)
}

// Replier answers in the channel the message came from.
type Replier interface {
	Typing(ctx context.Context) error
	Reply(ctx context.Context, text string) error
}

// Message is an inbound chat message, already translated from the platform event.
type Message struct {
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string

	// Mentioned reports whether the platform flagged the bot as mentioned.
	Mentioned bool

	// MentionTokens are the literal strings removed from Content before it is sent,
	// e.g. "<@123>" on Discord or "@sanga_bot" on Telegram.
	MentionTokens []string
}

// Outcome tells the adapter what the handler did with a message.
type Outcome int

const (
	Ignored Outcome = iota
	Cleared
	Replied
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Cleared:
		return "cleared"
	case Replied:
		return "replied"
	case Failed:
		return "failed"
	}
	return "unknown"
}
