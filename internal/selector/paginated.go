package selector

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/salonso/geconsultas-bot/internal/domain"
)

// Paginated pages through a dynamically-fetched list of values. It is
// constructed once per session and re-armed with Reset+Fetch for each
// field it serves.
type Paginated struct {
	state      State
	source     domain.DataSource
	pageLength int
	pageIndex  int
	data       []string
	selected   string
}

// NewPaginated creates an idle selector over the given data source.
func NewPaginated(source domain.DataSource, pageLength int) *Paginated {
	if pageLength <= 0 {
		pageLength = DefaultPageLength
	}
	return &Paginated{
		state:      StateIdle,
		source:     source,
		pageLength: pageLength,
	}
}

// Fetch replaces the cached list with freshly-fetched data, filtering
// out empty strings. It must be called before the first Keyboard call;
// until then the selector is unusable.
func (p *Paginated) Fetch() error {
	values, err := p.source.Fetch()
	if err != nil {
		return fmt.Errorf("failed to fetch selector data: %w", err)
	}

	filtered := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			filtered = append(filtered, v)
		}
	}

	p.data = filtered
	return nil
}

// Keyboard renders the current page plus the navigation row and arms
// the selector.
func (p *Paginated) Keyboard() tgbotapi.InlineKeyboardMarkup {
	start := p.pageIndex * p.pageLength
	end := start + p.pageLength
	if end > len(p.data) {
		end = len(p.data)
	}
	if start > end {
		start = end
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, value := range p.data[start:end] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(value, value),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(leftButtonTag, ActionLeft),
		tgbotapi.NewInlineKeyboardButtonData(rightButtonTag, ActionRight),
	))

	p.state = StateActive

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// CollapsedKeyboard is the frozen single-button keyboard shown once a
// choice has been made.
func (p *Paginated) CollapsedKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.selected, ActionNoOp),
		),
	)
}

// HandleToken applies one button token to the selector.
func (p *Paginated) HandleToken(token string) Result {
	if p.state != StateActive {
		return Result{Outcome: OutcomeIgnored}
	}

	if IsAction(token) {
		switch token {
		case ActionLeft:
			if p.pageIndex == 0 {
				return Result{Outcome: OutcomeIgnored}
			}
			p.pageIndex--
			return Result{Outcome: OutcomeUpdated}
		case ActionRight:
			if (p.pageIndex+1)*p.pageLength >= len(p.data) {
				return Result{Outcome: OutcomeIgnored}
			}
			p.pageIndex++
			return Result{Outcome: OutcomeUpdated}
		default:
			// $noop and unknown actions
			return Result{Outcome: OutcomeIgnored}
		}
	}

	// Any payload without the action marker is a literal selection.
	p.selected = token
	p.state = StateComplete

	return Result{Outcome: OutcomeSelected, Value: token}
}

// Reset re-arms the selector for reuse on a different field. Fetch must
// be called again before rendering.
func (p *Paginated) Reset() {
	p.state = StateIdle
	p.pageIndex = 0
	p.data = nil
	p.selected = ""
}

// State returns the current lifecycle state.
func (p *Paginated) State() State {
	return p.state
}
