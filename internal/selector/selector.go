package selector

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Action tokens carry a reserved leading marker so they can never
// collide with literal selectable values.
const (
	actionMarker = "$"

	ActionLeft  = "$left"
	ActionRight = "$right"
	ActionNoOp  = "$noop"
)

// Button captions for the navigation row.
const (
	leftButtonTag  = "«"
	rightButtonTag = "»"
)

// DefaultPageLength is the number of selectable rows per page.
const DefaultPageLength = 5

// State tracks the lifecycle of a selector widget.
type State int

const (
	StateIdle State = iota
	StateActive
	StateComplete
)

// Outcome classifies the effect of a button token on a selector.
type Outcome int

const (
	// OutcomeIgnored means the token was stale, out of bounds or a no-op;
	// the widget is unchanged.
	OutcomeIgnored Outcome = iota
	// OutcomeUpdated means the widget changed and its keyboard should be
	// re-rendered on the outstanding message.
	OutcomeUpdated
	// OutcomeSelected means a terminal choice was made; Value holds it.
	OutcomeSelected
)

// Result is the explicit outcome of handling one button token.
type Result struct {
	Outcome Outcome
	Value   string
}

// Selector is a reusable interactive widget bound to one outstanding
// message. Implementations are pure in-memory transitions; all I/O is
// the caller's.
type Selector interface {
	HandleToken(token string) Result
	Keyboard() tgbotapi.InlineKeyboardMarkup
	CollapsedKeyboard() tgbotapi.InlineKeyboardMarkup
	State() State
}

// IsAction reports whether a callback payload is an action token rather
// than a literal selection value.
func IsAction(token string) bool {
	return strings.HasPrefix(token, actionMarker)
}
