package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/salonso/geconsultas-bot/internal/session"
)

// Bot is the Telegram transport. It turns updates into events and
// hands them to the session router; all dialog logic lives behind the
// router.
type Bot struct {
	api    *tgbotapi.BotAPI
	router *session.Router
	log    *logrus.Entry
}

// New creates a new Bot instance
func New(token string, router *session.Router) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log := logrus.WithField("component", "bot")
	log.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		router: router,
		log:    log,
	}, nil
}

// Start runs the long-poll update loop. Updates may carry events for
// many users; each is dispatched on its own goroutine and the
// per-session locks serialize same-user events.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleMessage(update.Message)
		} else if update.CallbackQuery != nil {
			b.handleCallbackQuery(update.CallbackQuery)
		}
	}

	return nil
}

// Stop halts the update loop
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// handleMessage converts an incoming message to a command or text event
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	reply := &replier{api: b.api, chatID: message.Chat.ID, log: b.log}

	if message.IsCommand() {
		ev := session.Command{
			Name:  message.Command(),
			User:  message.From.ID,
			Reply: reply,
		}
		go b.router.Dispatch(ev)
		return
	}

	ev := session.TextMessage{
		Text:  message.Text,
		User:  message.From.ID,
		Reply: reply,
	}
	go b.router.Dispatch(ev)
}

// handleCallbackQuery converts a button press to a callback event
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}

	ev := session.ButtonCallback{
		Token:     query.Data,
		MessageID: query.Message.MessageID,
		User:      query.From.ID,
		Reply: &replier{
			api:        b.api,
			chatID:     query.Message.Chat.ID,
			callbackID: query.ID,
			log:        b.log,
		},
	}
	go b.router.Dispatch(ev)
}

// replier implements session.Replier over the Telegram API.
type replier struct {
	api        *tgbotapi.BotAPI
	chatID     int64
	callbackID string
	log        *logrus.Entry
}

func (r *replier) SendText(text string) error {
	msg := tgbotapi.NewMessage(r.chatID, text)
	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (r *replier) SendKeyboard(text string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ReplyMarkup = keyboard

	sent, err := r.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send keyboard: %w", err)
	}

	return sent.MessageID, nil
}

func (r *replier) EditKeyboard(messageID int, keyboard tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(r.chatID, messageID, keyboard)
	if _, err := r.api.Send(edit); err != nil {
		return fmt.Errorf("failed to edit keyboard: %w", err)
	}

	return nil
}

func (r *replier) AckCallback(text string) error {
	if r.callbackID == "" {
		return nil
	}

	callback := tgbotapi.NewCallback(r.callbackID, text)
	if _, err := r.api.Request(callback); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	return nil
}
