package checkout

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-bot/internal/kafka"
	"ticket-bot/internal/logger"
	"ticket-bot/internal/models"
	"ticket-bot/internal/session"
	"ticket-bot/internal/storage"
)

// fakeDeduper remembers every marked payload in process.
type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func (f *fakeDeduper) MarkPayload(userID int64, payload string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	key := payload
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func newTestService(t *testing.T, deduper Deduper) (*Service, *storage.InMemoryStore, *session.Store) {
	t.Helper()
	log := logger.NewLogger()
	store := storage.NewInMemoryStore()
	sessions := session.NewStore()
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)
	svc := NewService(store, sessions, producer, deduper, log, "EUR")
	return svc, store, sessions
}

func seedEvent(t *testing.T, store *storage.InMemoryStore, withTransfer bool) *models.Event {
	t.Helper()
	ev := &models.Event{
		Title:       "Concerto",
		Description: "desc",
		Price:       1500,
		EndLocation: "Piazza",
		Date:        time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC),
		Active:      true,
	}
	if withTransfer {
		start := "Stazione"
		price := int64(500)
		departure := time.Date(2025, 12, 31, 18, 30, 0, 0, time.UTC)
		ev.StartLocation = &start
		ev.TransferPrice = &price
		ev.TransferTime = &departure
	}
	id, err := store.SaveEvent(ev)
	require.NoError(t, err)
	ev.ID = id
	return ev
}

func TestPayloadRoundTrip(t *testing.T) {
	ref := time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC)

	payload := EncodePayload(KindTicket, 7, ref, 3)
	assert.Equal(t, "payment_for_event_7_31/12/2025 20:00_3", payload)

	purchase, err := DecodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, KindTicket, purchase.Kind)
	assert.Equal(t, int64(7), purchase.EventID)
	assert.Equal(t, ref, purchase.Ref)
	assert.Equal(t, 3, purchase.Quantity)
}

func TestDecodePayload_Malformed(t *testing.T) {
	cases := []string{
		"",
		"payment_for_event_7",
		"payment_for_rental_7_31/12/2025 20:00_3",
		"payment_for_event_0_31/12/2025 20:00_3",
		"payment_for_event_abc_31/12/2025 20:00_3",
		"payment_for_event_7_yesterday_3",
		"payment_for_event_7_31/12/2025 20:00_0",
		"payment_for_event_7_31/12/2025 20:00_11",
		"payment_for_event_7_31/12/2025 20:00_x",
	}
	for _, payload := range cases {
		_, err := DecodePayload(payload)
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload %q", payload)
	}
}

func TestDecodePayload_UnderscoresInsideDate(t *testing.T) {
	// Only the trailing four tokens carry structure; an event title never
	// reaches the payload, so extra leading underscores must not confuse it.
	purchase, err := DecodePayload("payment_for_transfer_12_01/02/2026 09:15_2")
	require.NoError(t, err)
	assert.Equal(t, KindTransfer, purchase.Kind)
	assert.Equal(t, int64(12), purchase.EventID)
	assert.Equal(t, 2, purchase.Quantity)
}

func TestBuildInvoice_TicketUsesQuantityTimesPrice(t *testing.T) {
	svc, store, sessions := newTestService(t, nil)
	ev := seedEvent(t, store, false)

	sessions.Adjust(42, ev.ID, 1)
	sessions.Adjust(42, ev.ID, 1)

	inv, err := svc.BuildInvoice(42, ev.ID, KindTicket)
	require.NoError(t, err)
	assert.Equal(t, "Concerto", inv.Title)
	assert.Equal(t, int64(4500), inv.Amount)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "payment_for_event_1_31/12/2025 20:00_3", inv.Payload)
	assert.Contains(t, inv.Description, "3x")
	assert.Contains(t, inv.Description, "biglietti")
}

func TestBuildInvoice_SingularTicket(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	ev := seedEvent(t, store, false)

	inv, err := svc.BuildInvoice(42, ev.ID, KindTicket)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), inv.Amount)
	assert.Contains(t, inv.Description, "1x")
	assert.Contains(t, inv.Description, "biglietto")
}

func TestBuildInvoice_TransferUsesTransferPriceAndTime(t *testing.T) {
	svc, store, sessions := newTestService(t, nil)
	ev := seedEvent(t, store, true)

	sessions.Adjust(42, ev.ID, 1)

	inv, err := svc.BuildInvoice(42, ev.ID, KindTransfer)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), inv.Amount)
	assert.Equal(t, "payment_for_transfer_1_31/12/2025 18:30_2", inv.Payload)
	assert.Contains(t, inv.Description, "transfer")
	assert.Contains(t, inv.Description, "31/12/2025 18:30")
}

func TestBuildInvoice_TransferRefusedWithoutTransferLeg(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	ev := seedEvent(t, store, false)

	_, err := svc.BuildInvoice(42, ev.ID, KindTransfer)
	assert.ErrorIs(t, err, ErrNoTransferOffered)
}

func TestBuildInvoice_MissingOrInactiveEvent(t *testing.T) {
	svc, store, _ := newTestService(t, nil)

	_, err := svc.BuildInvoice(42, 99, KindTicket)
	assert.ErrorIs(t, err, ErrEventNotFound)

	ev := seedEvent(t, store, false)
	require.NoError(t, store.DeactivateEvent(ev.ID))
	_, err = svc.BuildInvoice(42, ev.ID, KindTicket)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCommitPayment_RecordsTicketRow(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedEvent(t, store, false)

	msg, err := svc.CommitPayment(42, "payment_for_event_1_31/12/2025 20:00_3", 4500)
	require.NoError(t, err)
	assert.Equal(t, "Event payment of €45.00 was successful!", msg)

	payments, err := store.ListUserPayments(42)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	p := payments[0]
	assert.Equal(t, int64(1), p.EventID)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, int64(4500), p.Amount)
	assert.Equal(t, 3, p.Quantity)
	assert.False(t, p.IsTransfer)
	assert.Nil(t, p.TransferStartLocation)
	assert.Equal(t, time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC), p.Time)
	assert.Equal(t, "Concerto", p.EventTitle)
}

func TestCommitPayment_TransferCopiesStartLocation(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedEvent(t, store, true)

	msg, err := svc.CommitPayment(42, "payment_for_transfer_1_31/12/2025 18:30_2", 1000)
	require.NoError(t, err)
	assert.Equal(t, "Transfer payment of €10.00 was successful!", msg)

	payments, err := store.ListUserPayments(42)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].IsTransfer)
	require.NotNil(t, payments[0].TransferStartLocation)
	assert.Equal(t, "Stazione", *payments[0].TransferStartLocation)
}

func TestCommitPayment_ReplayRejected(t *testing.T) {
	svc, store, _ := newTestService(t, &fakeDeduper{})
	seedEvent(t, store, false)

	payload := "payment_for_event_1_31/12/2025 20:00_1"
	_, err := svc.CommitPayment(42, payload, 1500)
	require.NoError(t, err)

	_, err = svc.CommitPayment(42, payload, 1500)
	assert.ErrorIs(t, err, ErrDuplicatePayment)

	payments, err := store.ListUserPayments(42)
	require.NoError(t, err)
	assert.Len(t, payments, 1, "replay must not produce a second row")
}

func TestCommitPayment_DedupOutageDoesNotBlock(t *testing.T) {
	svc, store, _ := newTestService(t, &fakeDeduper{err: errors.New("redis down")})
	seedEvent(t, store, false)

	_, err := svc.CommitPayment(42, "payment_for_event_1_31/12/2025 20:00_1", 1500)
	require.NoError(t, err)

	payments, err := store.ListUserPayments(42)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestCommitPayment_MalformedPayloadRejected(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedEvent(t, store, false)

	_, err := svc.CommitPayment(42, "payment_for_event_garbage", 1500)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	payments, err := store.ListUserPayments(42)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestApprovePreCheckout_AlwaysApproves(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	assert.True(t, svc.ApprovePreCheckout(42, "payment_for_event_1_31/12/2025 20:00_1"))
}
