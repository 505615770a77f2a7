// Package discord connects the message handler to a Discord bot account.
package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/j0lvera/sanga/internal/bot"
)

// maxMessageLength is Discord's per-message character limit.
const maxMessageLength = 2000

// Intents needed to see guild messages and their content.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// sender is the part of *discordgo.Session a reply needs.
type sender interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter owns the gateway session and feeds MessageCreate events to the handler.
type Adapter struct {
	session *discordgo.Session
	handler *bot.Handler
	log     *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the session and registers the event handlers. The gateway is not
// opened until Start.
func New(token string, handler *bot.Handler, log *zerolog.Logger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = Intents

	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		session: session,
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	session.AddHandler(a.onReady)
	session.AddHandler(a.onMessageCreate)

	return a, nil
}

// Start opens the gateway connection.
func (a *Adapter) Start() error {
	return a.session.Open()
}

// Stop cancels in-flight handlers and closes the gateway connection.
func (a *Adapter) Stop() error {
	a.cancel()
	return a.session.Close()
}

func (a *Adapter) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	a.log.Info().Str("bot", r.User.String()).Str("id", r.User.ID).Msg("logged in")
}

func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State == nil || s.State.User == nil {
		return
	}

	msg, ok := inbound(m, s.State.User.ID)
	if !ok {
		return
	}

	r := &replier{
		session:   s,
		channelID: m.ChannelID,
		guildID:   m.GuildID,
		messageID: m.ID,
	}
	outcome := a.handler.Handle(a.ctx, msg, r)

	if outcome != bot.Ignored {
		a.log.Debug().
			Str("channel_id", m.ChannelID).
			Str("message_id", m.ID).
			Stringer("outcome", outcome).
			Msg("message handled")
	}
}

// inbound translates a MessageCreate event. ok is false for events without an author.
func inbound(m *discordgo.MessageCreate, botID string) (bot.Message, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return bot.Message{}, false
	}

	mentioned := false
	for _, u := range m.Mentions {
		if u != nil && u.ID == botID {
			mentioned = true
			break
		}
	}

	return bot.Message{
		ChannelID:     m.ChannelID,
		AuthorID:      m.Author.ID,
		AuthorBot:     m.Author.Bot || m.Author.ID == botID,
		Content:       m.Content,
		Mentioned:     mentioned,
		MentionTokens: []string{"<@" + botID + ">", "<@!" + botID + ">"},
	}, true
}

type replier struct {
	session   sender
	channelID string
	guildID   string
	messageID string
}

func (r *replier) Typing(context.Context) error {
	return r.session.ChannelTyping(r.channelID)
}

// Reply answers the triggering message, splitting text over the length limit.
// Only the first chunk references the original message.
func (r *replier) Reply(ctx context.Context, text string) error {
	for i, chunk := range bot.Chunk(text, maxMessageLength) {
		send := &discordgo.MessageSend{Content: chunk}
		if i == 0 && r.messageID != "" {
			send.Reference = &discordgo.MessageReference{
				MessageID: r.messageID,
				ChannelID: r.channelID,
				GuildID:   r.guildID,
			}
		}
		if _, err := r.session.ChannelMessageSendComplex(r.channelID, send, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}
