package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ticket-bot/internal/models"
	"ticket-bot/internal/wizard"
)

const (
	menuEvents      = "Eventi"
	menuMyTickets   = "I tuoi biglietti"
	menuAddEvent    = "Aggiungi Evento"
	menuRemoveEvent = "Rimuovi Evento"
	menuAddFromPost = "Aggiungi Evento Da Post"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuEvents),
			tgbotapi.NewKeyboardButton(menuMyTickets),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuAddEvent),
			tgbotapi.NewKeyboardButton(menuRemoveEvent),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuAddFromPost),
		),
	)
}

func stepsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(wizard.BackToken),
			tgbotapi.NewKeyboardButton(wizard.CancelToken),
		),
	)
}

func stepsKeyboardNoBack() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(wizard.CancelToken),
		),
	)
}

func replyKeyboardFor(kb wizard.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	switch kb {
	case wizard.KeyboardSteps:
		return stepsKeyboard()
	case wizard.KeyboardStepsNoBack:
		return stepsKeyboardNoBack()
	default:
		return mainKeyboard()
	}
}

// purchaseKeyboard builds the inline buy buttons under one event message.
// The stepper buttons carry the prices so the keyboard can be rebuilt on a
// quantity change without another event lookup.
func purchaseKeyboard(event *models.Event, quantity int) tgbotapi.InlineKeyboardMarkup {
	suffix := "o"
	if quantity > 1 {
		suffix = "i"
	}

	hasTransfer := 0
	transferPrice := int64(0)
	if event.HasTransfer() {
		hasTransfer = 1
		transferPrice = *event.TransferPrice
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🎟️ Paga %d bigliett%s (€%.2f)", quantity, suffix, float64(int64(quantity)*event.Price)/100),
				fmt.Sprintf("pay_%d", event.ID),
			),
		),
	}
	if event.HasTransfer() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🚌 Paga %d transfer (€%.2f)", quantity, float64(int64(quantity)*transferPrice)/100),
				fmt.Sprintf("transfer_%d", event.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("-",
			fmt.Sprintf("decrease_%d_%d_%d_%d", event.ID, hasTransfer, event.Price, transferPrice)),
		tgbotapi.NewInlineKeyboardButtonData("+",
			fmt.Sprintf("increase_%d_%d_%d_%d", event.ID, hasTransfer, event.Price, transferPrice)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// steppedKeyboard rebuilds the purchase keyboard from the prices embedded in
// a stepper callback, for the reply-markup edit after a quantity change.
func steppedKeyboard(step quantityStep, quantity int) tgbotapi.InlineKeyboardMarkup {
	suffix := "o"
	if quantity > 1 {
		suffix = "i"
	}

	hasTransfer := 0
	if step.HasTransfer {
		hasTransfer = 1
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🎟️ Paga %d bigliett%s (€%.2f)", quantity, suffix, float64(int64(quantity)*step.TicketPrice)/100),
				fmt.Sprintf("pay_%d", step.EventID),
			),
		),
	}
	if step.HasTransfer {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🚌 Paga %d transfer (€%.2f)", quantity, float64(int64(quantity)*step.TransferPrice)/100),
				fmt.Sprintf("transfer_%d", step.EventID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("-",
			fmt.Sprintf("decrease_%d_%d_%d_%d", step.EventID, hasTransfer, step.TicketPrice, step.TransferPrice)),
		tgbotapi.NewInlineKeyboardButtonData("+",
			fmt.Sprintf("increase_%d_%d_%d_%d", step.EventID, hasTransfer, step.TicketPrice, step.TransferPrice)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func removalKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Rimuovi", fmt.Sprintf("rm_%d", eventID)),
		),
	)
}
