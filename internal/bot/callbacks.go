package bot

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ticket-bot/internal/checkout"
	"ticket-bot/internal/session"
)

var errBadCallback = errors.New("malformed callback data")

// quantityStep is the decoded form of an increase_/decrease_ callback:
// action, event id, whether a transfer row is present, and both unit prices.
type quantityStep struct {
	Action        string
	EventID       int64
	HasTransfer   bool
	TicketPrice   int64
	TransferPrice int64
}

func parseQuantityCallback(data string) (quantityStep, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 5 {
		return quantityStep{}, errBadCallback
	}
	if parts[0] != "increase" && parts[0] != "decrease" {
		return quantityStep{}, errBadCallback
	}

	eventID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || eventID <= 0 {
		return quantityStep{}, errBadCallback
	}
	hasTransfer := parts[2] == "1"
	if parts[2] != "0" && parts[2] != "1" {
		return quantityStep{}, errBadCallback
	}
	ticketPrice, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return quantityStep{}, errBadCallback
	}
	transferPrice, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return quantityStep{}, errBadCallback
	}

	return quantityStep{
		Action:        parts[0],
		EventID:       eventID,
		HasTransfer:   hasTransfer,
		TicketPrice:   ticketPrice,
		TransferPrice: transferPrice,
	}, nil
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	userID := query.From.ID

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Warn("TELEGRAM", fmt.Sprintf("Failed to answer callback %s: %v", query.ID, err))
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	data := query.Data
	switch {
	case strings.HasPrefix(data, "pay_"), strings.HasPrefix(data, "transfer_"):
		kind := checkout.KindTicket
		raw := strings.TrimPrefix(data, "pay_")
		if strings.HasPrefix(data, "transfer_") {
			kind = checkout.KindTransfer
			raw = strings.TrimPrefix(data, "transfer_")
		}
		eventID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			b.log.Warn("TELEGRAM", fmt.Sprintf("Malformed purchase callback %q from user %d", data, userID))
			return
		}
		b.sendInvoice(chatID, userID, eventID, kind)

	case strings.HasPrefix(data, "rm_"):
		eventID, err := strconv.ParseInt(strings.TrimPrefix(data, "rm_"), 10, 64)
		if err != nil {
			b.log.Warn("TELEGRAM", fmt.Sprintf("Malformed removal callback %q from user %d", data, userID))
			return
		}
		if err := b.store.DeactivateEvent(eventID); err != nil {
			b.log.Error("TELEGRAM", fmt.Sprintf("Failed to deactivate event %d: %v", eventID, err))
			b.sendText(chatID, "Something went wrong, try again.")
			return
		}
		b.log.LogProcess("REMOVE", fmt.Sprintf("Event %d deactivated by user %d", eventID, userID))
		b.sendText(chatID, "Event removed")

	case strings.HasPrefix(data, "increase_"), strings.HasPrefix(data, "decrease_"):
		step, err := parseQuantityCallback(data)
		if err != nil {
			b.log.Warn("TELEGRAM", fmt.Sprintf("Malformed stepper callback %q from user %d", data, userID))
			return
		}
		b.stepQuantity(chatID, query.Message.MessageID, userID, step)

	default:
		b.log.Warn("TELEGRAM", fmt.Sprintf("Unknown callback %q from user %d", data, userID))
	}
}

// stepQuantity applies one +/- press. At either bound the press is a no-op
// and the keyboard is left untouched, so no edit round-trip happens.
func (b *Bot) stepQuantity(chatID int64, messageID int, userID int64, step quantityStep) {
	current := b.sessions.Quantity(userID, step.EventID)
	if (step.Action == "increase" && current == session.MaxQuantity) ||
		(step.Action == "decrease" && current == session.MinQuantity) {
		return
	}

	delta := 1
	if step.Action == "decrease" {
		delta = -1
	}
	quantity := b.sessions.Adjust(userID, step.EventID, delta)

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, steppedKeyboard(step, quantity))
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("TELEGRAM", fmt.Sprintf("Failed to edit keyboard for event %d: %v", step.EventID, err))
	}
}

func (b *Bot) sendInvoice(chatID, userID, eventID int64, kind checkout.Kind) {
	inv, err := b.checkout.BuildInvoice(userID, eventID, kind)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEventNotFound):
			b.sendText(chatID, "Event not found")
		case errors.Is(err, checkout.ErrNoTransferOffered):
			b.sendText(chatID, "Event not found")
		default:
			b.log.Error("TELEGRAM", fmt.Sprintf("Failed to build invoice for event %d: %v", eventID, err))
			b.sendText(chatID, "Something went wrong, try again.")
		}
		return
	}

	cfg := tgbotapi.NewInvoice(chatID, inv.Title, inv.Description, inv.Payload,
		b.providerToken, "event", inv.Currency,
		[]tgbotapi.LabeledPrice{{Label: inv.Title, Amount: int(inv.Amount)}})
	cfg.SuggestedTipAmounts = []int{}
	if inv.ImagePath != "" {
		if abs, err := filepath.Abs(inv.ImagePath); err == nil {
			cfg.PhotoURL = "file://" + abs
		}
	}

	if _, err := b.api.Send(cfg); err != nil {
		b.log.Error("TELEGRAM", fmt.Sprintf("Failed to send invoice for event %d: %v", eventID, err))
		return
	}
	b.log.LogTelegram("INVOICE", fmt.Sprintf("%d", chatID), fmt.Sprintf("Invoice sent for event %d (%s)", eventID, kind))
}
