// Package bot is the Telegram transport: it polls for updates, serializes
// them per user, and routes menu presses, authoring conversations, inline
// callbacks and payment confirmations to the domain services.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ticket-bot/internal/checkout"
	"ticket-bot/internal/config"
	"ticket-bot/internal/logger"
	"ticket-bot/internal/ratelimit"
	"ticket-bot/internal/session"
	"ticket-bot/internal/storage"
	"ticket-bot/internal/wizard"
)

type Bot struct {
	api           *tgbotapi.BotAPI
	providerToken string
	log           *logger.Logger
	store         storage.Store
	sessions      *session.Store
	wizard        *wizard.Wizard
	checkout      *checkout.Service
	guard         *ratelimit.Guard
}

func New(cfg *config.Config, log *logger.Logger, store storage.Store, sessions *session.Store,
	wiz *wizard.Wizard, svc *checkout.Service, guard *ratelimit.Guard) (*Bot, error) {

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	log.Info("TELEGRAM", fmt.Sprintf("Authorized as @%s", api.Self.UserName))

	return &Bot{
		api:           api,
		providerToken: cfg.Telegram.ProviderToken,
		log:           log,
		store:         store,
		sessions:      sessions,
		wizard:        wiz,
		checkout:      svc,
		guard:         guard,
	}, nil
}

// Run polls for updates until the context is cancelled. Every update is
// handled on its own goroutine; the per-user lock inside handleUpdate keeps
// one user's updates strictly ordered while different users proceed in
// parallel.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.LogProcess("STARTUP", "Update loop started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.LogProcess("SHUTDOWN", "Update loop stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("PANIC", fmt.Sprintf("Recovered while handling update %d: %v", update.UpdateID, r))
		}
	}()

	from := update.SentFrom()
	if from == nil {
		return
	}
	userID := from.ID

	lock := b.sessions.UserLock(userID)
	lock.Lock()
	defer lock.Unlock()

	switch {
	case update.PreCheckoutQuery != nil:
		b.handlePreCheckout(update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		b.handleSuccessfulPayment(update.Message)
	case update.CallbackQuery != nil:
		if !b.admit(userID, chatOf(update)) {
			return
		}
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		if !b.admit(userID, update.Message.Chat.ID) {
			return
		}
		b.handleMessage(update.Message)
	}
}

func chatOf(update tgbotapi.Update) int64 {
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// admit runs the per-user request guard. Payment confirmations bypass it:
// the money already moved, the record must be written.
func (b *Bot) admit(userID, chatID int64) bool {
	if b.guard.Admit(userID) {
		return true
	}
	b.log.LogSecurity("RATE_LIMIT", fmt.Sprintf("Rate limit exceeded for user %d", userID))
	if chatID != 0 {
		b.sendText(chatID, "Rate limit exceeded. Please try again later.")
	}
	return false
}

func (b *Bot) handlePreCheckout(query *tgbotapi.PreCheckoutQuery) {
	ok := b.checkout.ApprovePreCheckout(query.From.ID, query.InvoicePayload)
	if _, err := b.api.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 ok,
	}); err != nil {
		b.log.Error("TELEGRAM", fmt.Sprintf("Failed to answer pre-checkout %s: %v", query.ID, err))
	}
}

func (b *Bot) handleSuccessfulPayment(message *tgbotapi.Message) {
	sp := message.SuccessfulPayment
	reply, err := b.checkout.CommitPayment(message.From.ID, sp.InvoicePayload, int64(sp.TotalAmount))
	if err != nil {
		if errors.Is(err, checkout.ErrDuplicatePayment) {
			return
		}
		b.log.Error("PAYMENT", fmt.Sprintf("Failed to commit payment for user %d: %v", message.From.ID, err))
		return
	}
	b.sendText(message.Chat.ID, reply)
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if c, ok := b.sessions.Conversation(userID); ok {
		b.advanceConversation(chatID, userID, c, message)
		return
	}

	switch message.Text {
	case menuEvents:
		b.sendCatalog(chatID, userID)
	case menuMyTickets:
		b.sendTickets(chatID, userID)
	case menuAddEvent:
		b.sessions.BeginConversation(userID, wizard.StageTitle)
		b.send(chatID, wizard.EntryPrompt(wizard.StageTitle))
	case menuAddFromPost:
		b.sessions.BeginConversation(userID, wizard.StageTitleFromPost)
		b.send(chatID, wizard.EntryPrompt(wizard.StageTitleFromPost))
	case menuRemoveEvent:
		b.sendRemovalList(chatID)
	default:
		b.sendWelcome(chatID)
	}
}

func (b *Bot) advanceConversation(chatID, userID int64, c *wizard.Conversation, message *tgbotapi.Message) {
	in := wizard.Input{Text: message.Text}

	var file tgbotapi.File
	if len(message.Photo) > 0 {
		// Telegram sends multiple sizes; the last one is the largest.
		largest := message.Photo[len(message.Photo)-1]
		f, err := b.api.GetFile(tgbotapi.FileConfig{FileID: largest.FileID})
		if err != nil {
			b.log.Error("TELEGRAM", fmt.Sprintf("Failed to resolve photo for user %d: %v", userID, err))
			b.send(chatID, wizard.Result{Reply: "Ora manda la locandina dell'evento!", Keyboard: wizard.KeyboardSteps})
			return
		}
		file = f
		in.HasPhoto = true
		in.PhotoExt = path.Ext(file.FilePath)
	}

	res, err := b.wizard.Advance(c, in)
	if err != nil {
		b.log.Error("WIZARD", fmt.Sprintf("Conversation failed for user %d: %v", userID, err))
		b.sessions.EndConversation(userID)
		b.sendText(chatID, "Something went wrong, try again.")
		return
	}

	if res.PhotoSaved {
		if err := b.downloadPhoto(file, c.Draft.ImagePath); err != nil {
			b.log.Error("TELEGRAM", fmt.Sprintf("Failed to download photo for user %d: %v", userID, err))
			c.Stage = wizard.StagePhoto
			c.Draft.ImagePath = ""
			b.send(chatID, wizard.Result{Reply: "Ora manda la locandina dell'evento!", Keyboard: wizard.KeyboardSteps})
			return
		}
	}

	if res.Done || res.Cancelled {
		b.sessions.EndConversation(userID)
	}
	b.send(chatID, res)
}

func (b *Bot) downloadPhoto(file tgbotapi.File, dest string) error {
	resp, err := http.Get(file.Link(b.api.Token))
	if err != nil {
		return fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("photo fetch returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

func (b *Bot) sendWelcome(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Benvenuto! Scegli un'opzione:")
	msg.ReplyMarkup = mainKeyboard()
	b.deliver(msg)
}

func (b *Bot) sendCatalog(chatID, userID int64) {
	events, err := b.store.ListActiveEvents()
	if err != nil {
		b.log.Error("TELEGRAM", fmt.Sprintf("Failed to list events: %v", err))
		b.sendText(chatID, "Something went wrong, try again.")
		return
	}
	if len(events) == 0 {
		msg := tgbotapi.NewMessage(chatID, "Nessun evento con biglietti disponibili al momento!")
		msg.ReplyMarkup = mainKeyboard()
		b.deliver(msg)
		return
	}

	for _, event := range events {
		quantity := b.sessions.Quantity(userID, event.ID)
		markup := purchaseKeyboard(event, quantity)

		if event.ImagePath != "" {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(event.ImagePath))
			photo.Caption = eventCaption(event)
			photo.ParseMode = tgbotapi.ModeMarkdown
			photo.ReplyMarkup = markup
			b.deliver(photo)
		} else {
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("%s\n%s", event.Title, event.Description))
			msg.ParseMode = tgbotapi.ModeMarkdown
			msg.ReplyMarkup = markup
			b.deliver(msg)
		}
	}
}

func (b *Bot) sendTickets(chatID, userID int64) {
	payments, err := b.store.ListUserPayments(userID)
	if err != nil {
		b.log.Error("TELEGRAM", fmt.Sprintf("Failed to list payments for user %d: %v", userID, err))
		b.sendText(chatID, "Something went wrong, try again.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, ticketSummary(payments, time.Now()))
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.deliver(msg)
}

func (b *Bot) sendRemovalList(chatID int64) {
	events, err := b.store.ListActiveEvents()
	if err != nil {
		b.log.Error("TELEGRAM", fmt.Sprintf("Failed to list events: %v", err))
		b.sendText(chatID, "Something went wrong, try again.")
		return
	}
	if len(events) == 0 {
		msg := tgbotapi.NewMessage(chatID, "Nessun evento con biglietti disponibili al momento!")
		msg.ReplyMarkup = mainKeyboard()
		b.deliver(msg)
		return
	}

	for _, event := range events {
		markup := removalKeyboard(event.ID)
		if event.ImagePath != "" {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(event.ImagePath))
			photo.Caption = fmt.Sprintf("%s\n\n%s", event.Title, event.Description)
			photo.ReplyMarkup = markup
			b.deliver(photo)
		} else {
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("%s\n\n%s", event.Title, event.Description))
			msg.ReplyMarkup = markup
			b.deliver(msg)
		}
	}
}

// send delivers a wizard result with its keyboard and parse mode.
func (b *Bot) send(chatID int64, res wizard.Result) {
	msg := tgbotapi.NewMessage(chatID, res.Reply)
	if res.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.ReplyMarkup = replyKeyboardFor(res.Keyboard)
	b.deliver(msg)
}

func (b *Bot) sendText(chatID int64, text string) {
	b.deliver(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) deliver(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error("TELEGRAM", fmt.Sprintf("Failed to send message: %v", err))
	}
}
