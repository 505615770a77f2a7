package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/j0lvera/sanga/internal/bot"
)

// maxMessageLength is Telegram's per-message character limit.
const maxMessageLength = 4096

type sender interface {
	SendMessage(ctx context.Context, params *tbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tbot.SendChatActionParams) (bool, error)
}

// Adapter runs the long-polling loop and feeds text messages to the handler.
type Adapter struct {
	tg      *tbot.Bot
	handler *bot.Handler
	log     *zerolog.Logger

	me     *models.User
	cancel context.CancelFunc
	done   sync.WaitGroup
}

func New(token string, handler *bot.Handler, log *zerolog.Logger) (*Adapter, error) {
	a := &Adapter{
		handler: handler,
		log:     log,
	}

	tg, err := tbot.New(token,
		tbot.WithDefaultHandler(a.handleUpdate),
		tbot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, err
	}
	a.tg = tg

	return a, nil
}

// Start resolves the bot's own account and begins polling in the background.
func (a *Adapter) Start(ctx context.Context) error {
	me, err := a.tg.GetMe(ctx)
	if err != nil {
		return err
	}
	a.me = me
	a.log.Info().Str("bot", "@"+me.Username).Int64("id", me.ID).Msg("logged in")

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done.Add(1)
	go func() {
		defer a.done.Done()
		a.tg.Start(runCtx)
	}()

	return nil
}

// Stop ends polling and waits for the loop to return.
func (a *Adapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.done.Wait()
}

func (a *Adapter) handleUpdate(ctx context.Context, tg *tbot.Bot, update *models.Update) {
	msg, ok := inbound(update, a.me)
	if !ok {
		return
	}

	r := &replier{
		tg:        tg,
		chatID:    update.Message.Chat.ID,
		messageID: update.Message.ID,
	}
	outcome := a.handler.Handle(ctx, msg, r)

	if outcome != bot.Ignored {
		a.log.Debug().
			Int64("chat_id", update.Message.Chat.ID).
			Int("message_id", update.Message.ID).
			Stringer("outcome", outcome).
			Msg("message handled")
	}
}

// inbound translates an update. Private chats count as mentions; in groups the
// bot must be named with @username or replied to.
func inbound(update *models.Update, me *models.User) (bot.Message, bool) {
	if update == nil || update.Message == nil || me == nil {
		return bot.Message{}, false
	}
	m := update.Message
	if m.From == nil {
		return bot.Message{}, false
	}

	tokens := []string{"@" + me.Username}
	var named bool
	if me.Username != "" {
		found := mentionTokens(m, me.Username)
		named = len(found) > 0
		tokens = append(tokens, found...)
	}
	mentioned := m.Chat.Type == models.ChatTypePrivate || named ||
		(m.ReplyToMessage != nil && m.ReplyToMessage.From != nil && m.ReplyToMessage.From.ID == me.ID)

	return bot.Message{
		ChannelID:     strconv.FormatInt(m.Chat.ID, 10),
		AuthorID:      strconv.FormatInt(m.From.ID, 10),
		AuthorBot:     m.From.IsBot,
		Content:       m.Text,
		Mentioned:     mentioned,
		MentionTokens: tokens,
	}, true
}

// mentionTokens returns the text of every mention entity naming the bot.
// Usernames are case-insensitive, so the text may differ from username.
func mentionTokens(m *models.Message, username string) []string {
	text := utf16Units(m.Text)
	var tokens []string
	for _, e := range m.Entities {
		if e.Type != models.MessageEntityTypeMention {
			continue
		}
		if e.Offset < 0 || e.Length <= 1 || e.Offset+e.Length > len(text) {
			continue
		}
		mention := decodeUTF16(text[e.Offset : e.Offset+e.Length])
		if strings.EqualFold(strings.TrimPrefix(mention, "@"), username) {
			tokens = append(tokens, mention)
		}
	}
	return tokens
}

// Telegram entity offsets count UTF-16 code units.
func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func decodeUTF16(u []uint16) string {
	return string(utf16.Decode(u))
}

type replier struct {
	tg        sender
	chatID    int64
	messageID int
}

func (r *replier) Typing(ctx context.Context) error {
	_, err := r.tg.SendChatAction(ctx, &tbot.SendChatActionParams{
		ChatID: r.chatID,
		Action: models.ChatActionTyping,
	})
	return err
}

func (r *replier) Reply(ctx context.Context, text string) error {
	for i, chunk := range bot.Chunk(text, maxMessageLength) {
		params := &tbot.SendMessageParams{
			ChatID: r.chatID,
			Text:   chunk,
		}
		if i == 0 && r.messageID != 0 {
			params.ReplyParameters = &models.ReplyParameters{MessageID: r.messageID}
		}
		if _, err := r.tg.SendMessage(ctx, params); err != nil {
			return err
		}
	}
	return nil
}
