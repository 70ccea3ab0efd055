// Package checkout drives a purchase attempt from selection to the durable
// payment record: invoice issuance, pre-checkout approval and the single
// post-payment commit.
package checkout

import (
	"errors"
	"fmt"
	"time"

	"ticket-bot/internal/kafka"
	"ticket-bot/internal/logger"
	"ticket-bot/internal/models"
	"ticket-bot/internal/session"
	"ticket-bot/internal/storage"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrDuplicatePayment  = errors.New("payment already recorded for this payload")
	ErrNoTransferOffered = errors.New("event has no transfer leg")
)

// Deduper marks a (payer, payload) pair as seen, returning false on replay.
type Deduper interface {
	MarkPayload(userID int64, payload string) (bool, error)
}

type Service struct {
	store    storage.Store
	sessions *session.Store
	producer *kafka.Producer
	deduper  Deduper
	log      *logger.Logger
	currency string
}

func NewService(store storage.Store, sessions *session.Store, producer *kafka.Producer, deduper Deduper, log *logger.Logger, currency string) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		producer: producer,
		deduper:  deduper,
		log:      log,
		currency: currency,
	}
}

// Invoice is the charge presented to the user by the transport.
type Invoice struct {
	Title       string
	Description string
	Payload     string
	Currency    string
	Amount      int64
	ImagePath   string
}

// BuildInvoice moves a purchase attempt from Selected to InvoiceIssued: it
// resolves the event, prices the user's current quantity and produces the
// payload that will come back with the payment confirmation. A missing or
// inactive event aborts with ErrEventNotFound and no invoice is issued.
func (s *Service) BuildInvoice(userID, eventID int64, kind Kind) (*Invoice, error) {
	event, err := s.store.GetActiveEvent(eventID)
	if err != nil {
		s.log.LogPayment("NOT_FOUND", fmt.Sprintf("%d", eventID), "Purchase refused, event missing or inactive")
		return nil, ErrEventNotFound
	}
	if kind == KindTransfer && !event.HasTransfer() {
		s.log.LogPayment("NO_TRANSFER", fmt.Sprintf("%d", eventID), "Transfer purchase refused, event has no transfer leg")
		return nil, ErrNoTransferOffered
	}

	quantity := s.sessions.Quantity(userID, eventID)

	unit := event.Price
	ref := event.Date
	if kind == KindTransfer {
		unit = *event.TransferPrice
		ref = *event.TransferTime
	}
	amount := int64(quantity) * unit

	var description string
	if kind == KindTransfer {
		description = fmt.Sprintf("%dx 🚌 transfer\n%s at %s\n",
			quantity, event.Title, ref.Format(PayloadDateLayout))
	} else {
		suffix := "o"
		if quantity > 1 {
			suffix = "i"
		}
		description = fmt.Sprintf("%dx 🎟️ bigliett%s\n%s\n", quantity, suffix, event.Title)
	}

	s.log.LogPayment("INVOICE", fmt.Sprintf("%d", eventID),
		fmt.Sprintf("Issuing %s invoice for user %d: %d x %d = %d", kind, userID, quantity, unit, amount))

	return &Invoice{
		Title:       event.Title,
		Description: description,
		Payload:     EncodePayload(kind, eventID, ref, quantity),
		Currency:    s.currency,
		Amount:      amount,
		ImagePath:   event.ImagePath,
	}, nil
}

// ApprovePreCheckout answers the transport's pre-checkout gate. No
// availability re-check is performed: capacity is unlimited per event.
func (s *Service) ApprovePreCheckout(userID int64, payload string) bool {
	s.log.LogPayment("PRECHECKOUT", payload, fmt.Sprintf("Approving pre-checkout for user %d", userID))
	return true
}

// CommitPayment is the sole writer of payment records. It decodes the
// confirmed payload, deduplicates replays per payer+payload, inserts exactly
// one row and returns the user-visible confirmation.
func (s *Service) CommitPayment(userID int64, payload string, totalAmount int64) (string, error) {
	purchase, err := DecodePayload(payload)
	if err != nil {
		s.log.Error("PAYMENT", fmt.Sprintf("Rejecting confirmation with malformed payload %q: %v", payload, err))
		return "", err
	}

	if s.deduper != nil {
		fresh, err := s.deduper.MarkPayload(userID, payload)
		if err != nil {
			s.log.Warn("PAYMENT", "Dedup guard unavailable, committing without replay protection: "+err.Error())
		} else if !fresh {
			s.log.LogSecurity("REPLAY", fmt.Sprintf("Duplicate payment confirmation for user %d payload %q", userID, payload))
			return "", ErrDuplicatePayment
		}
	}

	isTransfer := purchase.Kind == KindTransfer

	var startLocation *string
	if isTransfer {
		event, err := s.store.GetEvent(purchase.EventID)
		if err != nil {
			s.log.Error("PAYMENT", fmt.Sprintf("Failed to look up event %d at commit: %v", purchase.EventID, err))
			return "", fmt.Errorf("failed to look up event: %w", err)
		}
		startLocation = event.StartLocation
	}

	payment := &models.Payment{
		EventID:               purchase.EventID,
		UserID:                userID,
		Amount:                totalAmount,
		IsTransfer:            isTransfer,
		TransferStartLocation: startLocation,
		Time:                  purchase.Ref,
		Quantity:              purchase.Quantity,
	}

	id, err := s.store.SavePayment(payment)
	if err != nil {
		return "", fmt.Errorf("failed to save payment: %w", err)
	}
	s.log.LogPayment("COMMIT", fmt.Sprintf("%d", id),
		fmt.Sprintf("Recorded %s payment of %d for event %d by user %d", purchase.Kind, totalAmount, purchase.EventID, userID))

	s.publishPaymentEvent(payment)

	if isTransfer {
		return fmt.Sprintf("Transfer payment of €%.2f was successful!", float64(totalAmount)/100), nil
	}
	return fmt.Sprintf("Event payment of €%.2f was successful!", float64(totalAmount)/100), nil
}

func (s *Service) publishPaymentEvent(payment *models.Payment) {
	event := &models.PaymentEvent{
		Type:      "payment.recorded",
		Payment:   payment,
		Timestamp: time.Now(),
	}

	if err := s.producer.PublishPaymentEvent(event); err != nil {
		// The payment row is already durable; a broker failure only costs the
		// downstream notification.
		s.log.Error("KAFKA", fmt.Sprintf("Failed to publish payment event for payment %d: %v", payment.ID, err))
	}
}
