package telegram

import (
	"context"
	"log/slog"

	"notesbot/internal/bot"
)

// Dispatcher bridges Bot API updates to the conversational core and sends
// the resulting reply back. Both delivery modes go through it.
type Dispatcher struct {
	Client *Client
	Bot    *bot.Bot
	Log    *slog.Logger
}

// HandleUpdate extracts {sender, text-or-payload} from one update, runs the
// core, and delivers its single reply. A failed send is logged, never
// propagated: one broken chat must not take down delivery for others.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd Update) {
	switch {
	case upd.CallbackQuery != nil:
		cb := upd.CallbackQuery
		r := d.Bot.Handle(ctx, bot.Event{Sender: cb.From.ID, Callback: cb.Data})

		if err := d.Client.AnswerCallbackQuery(ctx, cb.ID, r.Toast); err != nil {
			d.Log.Warn("answer callback failed", slog.String("error", err.Error()))
		}
		if r.Text == "" || cb.Message == nil {
			return
		}
		chatID := cb.Message.Chat.ID
		var err error
		if r.Edit {
			err = d.Client.EditMessageText(ctx, chatID, cb.Message.MessageID, r.Text, parseMode(r), markupFor(r.Keyboard))
		} else {
			err = d.Client.SendMessage(ctx, chatID, r.Text, parseMode(r), markupFor(r.Keyboard))
		}
		if err != nil {
			d.Log.Error("deliver reply failed", slog.Int64("chat", chatID), slog.String("error", err.Error()))
		}

	case upd.Message != nil && upd.Message.From != nil:
		msg := upd.Message
		r := d.Bot.Handle(ctx, bot.Event{Sender: msg.From.ID, Text: msg.Text})
		if r.Text == "" {
			return
		}
		if err := d.Client.SendMessage(ctx, msg.Chat.ID, r.Text, parseMode(r), markupFor(r.Keyboard)); err != nil {
			d.Log.Error("deliver reply failed", slog.Int64("chat", msg.Chat.ID), slog.String("error", err.Error()))
		}
	}
}

func parseMode(r bot.Reply) string {
	if r.Markdown {
		return "Markdown"
	}
	return ""
}

// markupFor renders the core's opaque keyboard descriptor as Bot API markup.
func markupFor(kb *bot.Keyboard) any {
	if kb == nil {
		return nil
	}
	if kb.Inline {
		m := InlineKeyboardMarkup{}
		for _, r := range kb.Rows {
			row := make([]InlineKeyboardButton, len(r))
			for i, btn := range r {
				row[i] = InlineKeyboardButton{Text: btn.Label, CallbackData: btn.Data}
			}
			m.InlineKeyboard = append(m.InlineKeyboard, row)
		}
		return m
	}
	m := ReplyKeyboardMarkup{ResizeKeyboard: true}
	for _, r := range kb.Rows {
		row := make([]KeyboardButton, len(r))
		for i, btn := range r {
			row[i] = KeyboardButton{Text: btn.Label}
		}
		m.Keyboard = append(m.Keyboard, row)
	}
	return m
}
