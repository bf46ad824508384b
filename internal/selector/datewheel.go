package selector

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Date wheel action tokens.
const (
	ActionDayUp      = "$day_up"
	ActionDayDown    = "$day_down"
	ActionMonthUp    = "$month_up"
	ActionMonthDown  = "$month_down"
	ActionHourUp     = "$hour_up"
	ActionHourDown   = "$hour_down"
	ActionMinuteUp   = "$minute_up"
	ActionMinuteDown = "$minute_down"
	ActionConfirm    = "$date_confirm"
)

const (
	upButtonTag      = "︿"
	downButtonTag    = "﹀"
	confirmButtonTag = "Confirmar"
)

const (
	maxMonths  = 12
	maxHours   = 24
	maxMinutes = 60
)

// DateWheel is four independently wrapping counters (day, month, hour,
// minute) rendered as an inline keyboard. The year is taken from the
// moment the wheel is initialized and is not adjustable.
type DateWheel struct {
	state State

	year   int
	month  int
	day    int
	hour   int
	minute int

	location *time.Location
	now      func() time.Time
}

// NewDateWheel creates an idle wheel initialized to the current moment
// in the given fixed-offset location.
func NewDateWheel(location *time.Location) *DateWheel {
	w := &DateWheel{
		location: location,
		now:      time.Now,
	}
	w.setToNow()
	return w
}

func (w *DateWheel) setToNow() {
	today := w.now().In(w.location)
	w.year = today.Year()
	w.month = int(today.Month())
	w.day = today.Day()
	w.hour = today.Hour()
	w.minute = today.Minute()
}

func (w *DateWheel) daysInMonth() int {
	// Day zero of the next month is the last day of this one.
	return time.Date(w.year, time.Month(w.month)+1, 0, 0, 0, 0, 0, w.location).Day()
}

func (w *DateWheel) monthAbbr() string {
	return time.Month(w.month).String()[:3]
}

func (w *DateWheel) dataRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%02d", w.day), ActionNoOp),
		tgbotapi.NewInlineKeyboardButtonData(w.monthAbbr(), ActionNoOp),
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%02d", w.hour), ActionNoOp),
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf(":%02d", w.minute), ActionNoOp),
	)
}

// Keyboard renders the adjuster rows around the current values and arms
// the wheel.
func (w *DateWheel) Keyboard() tgbotapi.InlineKeyboardMarkup {
	rowUp := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(upButtonTag, ActionDayUp),
		tgbotapi.NewInlineKeyboardButtonData(upButtonTag, ActionMonthUp),
		tgbotapi.NewInlineKeyboardButtonData(upButtonTag, ActionHourUp),
		tgbotapi.NewInlineKeyboardButtonData(upButtonTag, ActionMinuteUp),
	)
	rowDown := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(downButtonTag, ActionDayDown),
		tgbotapi.NewInlineKeyboardButtonData(downButtonTag, ActionMonthDown),
		tgbotapi.NewInlineKeyboardButtonData(downButtonTag, ActionHourDown),
		tgbotapi.NewInlineKeyboardButtonData(downButtonTag, ActionMinuteDown),
	)
	rowConfirm := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(confirmButtonTag, ActionConfirm),
	)

	w.state = StateActive

	return tgbotapi.NewInlineKeyboardMarkup(rowUp, w.dataRow(), rowDown, rowConfirm)
}

// CollapsedKeyboard is the frozen single-row display shown after
// confirmation.
func (w *DateWheel) CollapsedKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(w.dataRow())
}

func (w *DateWheel) updateMonth(up bool) {
	delta := -1
	if up {
		delta = 1
	}

	switch {
	case w.month+delta > maxMonths:
		w.month = 1
	case w.month+delta < 1:
		w.month = maxMonths
	default:
		w.month += delta
	}

	// The month length changed; clamp the day down if it no longer
	// fits. The day is never renormalized upward.
	if days := w.daysInMonth(); w.day > days {
		w.day = days
	}
}

func (w *DateWheel) updateDay(up bool) {
	delta := -1
	if up {
		delta = 1
	}

	days := w.daysInMonth()
	switch {
	case w.day+delta > days:
		w.day = 1
	case w.day+delta < 1:
		w.day = days
	default:
		w.day += delta
	}
}

func (w *DateWheel) updateHour(up bool) {
	delta := -1
	if up {
		delta = 1
	}
	w.hour = (w.hour + delta + maxHours) % maxHours
}

func (w *DateWheel) updateMinute(up bool) {
	delta := -1
	if up {
		delta = 1
	}
	w.minute = (w.minute + delta + maxMinutes) % maxMinutes
}

// FormattedDate returns the wheel's current value as the fixed
// "YYYY/MM/DD hh:mm:00" layout with zero-padded two-digit fields.
func (w *DateWheel) FormattedDate() string {
	return fmt.Sprintf("%d/%02d/%02d %02d:%02d:00", w.year, w.month, w.day, w.hour, w.minute)
}

// HandleToken applies one button token to the wheel.
func (w *DateWheel) HandleToken(token string) Result {
	if w.state != StateActive {
		return Result{Outcome: OutcomeIgnored}
	}

	switch token {
	case ActionConfirm:
		w.state = StateComplete
		return Result{Outcome: OutcomeSelected, Value: w.FormattedDate()}
	case ActionDayUp:
		w.updateDay(true)
	case ActionDayDown:
		w.updateDay(false)
	case ActionMonthUp:
		w.updateMonth(true)
	case ActionMonthDown:
		w.updateMonth(false)
	case ActionHourUp:
		w.updateHour(true)
	case ActionHourDown:
		w.updateHour(false)
	case ActionMinuteUp:
		w.updateMinute(true)
	case ActionMinuteDown:
		w.updateMinute(false)
	default:
		// $noop, literal captions and unknown actions
		return Result{Outcome: OutcomeIgnored}
	}

	return Result{Outcome: OutcomeUpdated}
}

// Reset re-arms the wheel. With persist the current counters are kept
// as the starting point; two successive dates in a flow are usually
// close in time. Otherwise the wheel reinitializes to now.
func (w *DateWheel) Reset(persist bool) {
	w.state = StateIdle

	if persist {
		return
	}

	w.setToNow()
}

// State returns the current lifecycle state.
func (w *DateWheel) State() State {
	return w.state
}
