package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/j0lvera/sanga/internal/conversation"
)

const (
	clearCommand = "/clear"
	clearedReply = "Conversation cleared. Starting fresh!"
)

// Handler decides what to do with an inbound message. It knows nothing about the
// platform; adapters translate events into Message and provide a Replier.
type Handler struct {
	store      conversation.Store
	locks      *conversation.Locks
	completer  Completer
	persona    string
	errorReply string
	log        *zerolog.Logger
}

// HandlerParams groups the handler's collaborators.
type HandlerParams struct {
	Store      conversation.Store
	Locks      *conversation.Locks
	Completer  Completer
	Persona    string
	ErrorReply string
	Logger     *zerolog.Logger
}

func NewHandler(p HandlerParams) *Handler {
	locks := p.Locks
	if locks == nil {
		locks = conversation.NewLocks()
	}
	log := p.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Handler{
		store:      p.Store,
		locks:      locks,
		completer:  p.Completer,
		persona:    p.Persona,
		errorReply: p.ErrorReply,
		log:        log,
	}
}

// Prompt strips the mention tokens and returns the text to send, or "" when the
// message is not addressed to the bot.
func Prompt(msg Message) string {
	if msg.AuthorBot || !msg.Mentioned {
		return ""
	}

	text := msg.Content
	for _, token := range msg.MentionTokens {
		if token != "" {
			text = strings.ReplaceAll(text, token, "")
		}
	}
	return strings.TrimSpace(text)
}

// Handle runs one message through the store and the completer and answers via r.
func (h *Handler) Handle(ctx context.Context, msg Message, r Replier) Outcome {
	prompt := Prompt(msg)
	if prompt == "" {
		return Ignored
	}

	channelID := msg.ChannelID
	unlock := h.locks.Lock(channelID)
	defer unlock()

	if prompt == clearCommand {
		return h.clear(ctx, channelID, r)
	}

	if err := r.Typing(ctx); err != nil {
		h.log.Debug().Err(err).Str("channel_id", channelID).Msg("unable to send typing indicator")
	}

	if err := h.store.Append(ctx, channelID, conversation.UserRecord(prompt)); err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to store user message")
		return h.fail(ctx, channelID, r)
	}

	history, err := h.store.History(ctx, channelID)
	if err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to get channel history")
		return h.fail(ctx, channelID, r)
	}

	h.log.Info().
		Str("channel_id", channelID).
		Str("author_id", msg.AuthorID).
		Int("history", len(history)).
		Msg("ai request sending")

	response, err := h.completer.Complete(ctx, h.persona, history)
	if err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to generate ai response")
		return h.fail(ctx, channelID, r)
	}

	h.log.Info().
		Str("channel_id", channelID).
		Int("response_length", len(response)).
		Msg("ai response received")

	if err := h.store.Append(ctx, channelID, conversation.AssistantRecord(response)); err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to store bot message")
	}

	if err := r.Reply(ctx, response); err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to send reply")
	}

	return Replied
}

func (h *Handler) clear(ctx context.Context, channelID string, r Replier) Outcome {
	if err := h.store.Clear(ctx, channelID); err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to clear history")
		return h.fail(ctx, channelID, r)
	}

	if err := r.Reply(ctx, clearedReply); err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to send reply")
	}
	h.log.Info().Str("channel_id", channelID).Msg("history cleared by user")

	return Cleared
}

func (h *Handler) fail(ctx context.Context, channelID string, r Replier) Outcome {
	if err := r.Reply(ctx, h.errorReply); err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("unable to send error reply")
	}
	return Failed
}
