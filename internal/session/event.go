package session

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Replier is the reply capability the transport attaches to every
// inbound event. All rendering I/O goes through it; the session core
// performs no network calls of its own.
type Replier interface {
	SendText(text string) error
	// SendKeyboard sends a message with an inline keyboard and returns
	// the id of the outbound message.
	SendKeyboard(text string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error)
	EditKeyboard(messageID int, keyboard tgbotapi.InlineKeyboardMarkup) error
	AckCallback(text string) error
}

// Event is an inbound transport event carrying the identity of the
// user it belongs to.
type Event interface {
	userID() int64
}

// Command is a slash command such as /auth or /registrar.
type Command struct {
	Name  string
	User  int64
	Reply Replier
}

func (c Command) userID() int64 { return c.User }

// TextMessage is a free-text message.
type TextMessage struct {
	Text  string
	User  int64
	Reply Replier
}

func (m TextMessage) userID() int64 { return m.User }

// ButtonCallback is a press on an inline keyboard button. MessageID
// identifies the outbound message whose keyboard was pressed.
type ButtonCallback struct {
	Token     string
	MessageID int
	User      int64
	Reply     Replier
}

func (b ButtonCallback) userID() int64 { return b.User }
