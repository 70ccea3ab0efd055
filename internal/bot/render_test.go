package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-bot/internal/models"
)

func sampleEvent(withTransfer bool) *models.Event {
	ev := &models.Event{
		ID:          7,
		Title:       "Concerto",
		Description: "Bella serata",
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
	return ev
}

func TestEventCaption_NoTransfer(t *testing.T) {
	caption := eventCaption(sampleEvent(false))

	assert.Contains(t, caption, "31/12/2025, ore 20:00")
	assert.Contains(t, caption, "📍Piazza")
	assert.Contains(t, caption, "*Concerto*")
	assert.Contains(t, caption, "Bella serata")
	assert.NotContains(t, caption, "navetta")
}

func TestEventCaption_WithTransferBlock(t *testing.T) {
	caption := eventCaption(sampleEvent(true))

	assert.Contains(t, caption, "🚌 Disponibile navetta su prenotazione")
	assert.Contains(t, caption, "*Quando*: 18:30, 31 Dicembre 25")
	assert.Contains(t, caption, "*Dove*: Stazione")
}

func TestTicketSummary_Empty(t *testing.T) {
	assert.Equal(t, "Non hai ancora preso biglietti.",
		ticketSummary(nil, time.Now()))
}

func TestTicketSummary_SplitsFutureAndPast(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mk := func(title string, at time.Time, transfer bool) *models.UserPayment {
		return &models.UserPayment{
			EventTitle: title,
			Payment: models.Payment{
				Amount:     1500,
				Quantity:   2,
				IsTransfer: transfer,
				Time:       at,
				Timestamp:  time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			},
		}
	}

	summary := ticketSummary([]*models.UserPayment{
		mk("Vecchio", now.Add(-72*time.Hour), false),
		mk("Ieri", now.Add(-24*time.Hour), false),
		mk("Prossimo", now.Add(48*time.Hour), true),
	}, now)

	futureIdx := strings.Index(summary, "eventi futuri")
	pastIdx := strings.Index(summary, "eventi passati")
	require.True(t, futureIdx >= 0)
	require.True(t, pastIdx > futureIdx)

	// An event less than two days past still counts as upcoming.
	assert.Less(t, strings.Index(summary, "Ieri"), pastIdx)
	assert.Greater(t, strings.Index(summary, "Vecchio"), pastIdx)

	assert.Contains(t, summary, "🚌 *2x* transfers")
	assert.Contains(t, summary, "🎟️ *2x* tickets")
	assert.Contains(t, summary, "*Data Partenza*")
	assert.Contains(t, summary, "€15.00")
	assert.Contains(t, summary, summarySeparator)
}

func TestTicketSummary_NewestFirstWithinSection(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	older := &models.UserPayment{EventTitle: "Primo", Payment: models.Payment{Time: now.Add(24 * time.Hour)}}
	newer := &models.UserPayment{EventTitle: "Secondo", Payment: models.Payment{Time: now.Add(48 * time.Hour)}}

	summary := ticketSummary([]*models.UserPayment{older, newer}, now)
	assert.Less(t, strings.Index(summary, "Secondo"), strings.Index(summary, "Primo"))
}

func TestParseQuantityCallback(t *testing.T) {
	step, err := parseQuantityCallback("increase_7_1_1500_500")
	require.NoError(t, err)
	assert.Equal(t, quantityStep{
		Action:        "increase",
		EventID:       7,
		HasTransfer:   true,
		TicketPrice:   1500,
		TransferPrice: 500,
	}, step)

	step, err = parseQuantityCallback("decrease_7_0_1500_0")
	require.NoError(t, err)
	assert.False(t, step.HasTransfer)
	assert.Equal(t, "decrease", step.Action)
}

func TestParseQuantityCallback_Malformed(t *testing.T) {
	for _, data := range []string{
		"",
		"increase_7",
		"increase_7_1_1500",
		"increase_7_1_1500_500_9",
		"reset_7_1_1500_500",
		"increase_x_1_1500_500",
		"increase_0_1_1500_500",
		"increase_7_2_1500_500",
		"increase_7_1_abc_500",
		"increase_7_1_1500_abc",
	} {
		_, err := parseQuantityCallback(data)
		assert.ErrorIs(t, err, errBadCallback, "data %q", data)
	}
}

func TestPurchaseKeyboard_Rows(t *testing.T) {
	kb := purchaseKeyboard(sampleEvent(true), 3)
	require.Len(t, kb.InlineKeyboard, 3)

	assert.Equal(t, "🎟️ Paga 3 biglietti (€45.00)", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "pay_7", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "🚌 Paga 3 transfer (€15.00)", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "transfer_7", *kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "decrease_7_1_1500_500", *kb.InlineKeyboard[2][0].CallbackData)
	assert.Equal(t, "increase_7_1_1500_500", *kb.InlineKeyboard[2][1].CallbackData)
}

func TestPurchaseKeyboard_SingularNoTransfer(t *testing.T) {
	kb := purchaseKeyboard(sampleEvent(false), 1)
	require.Len(t, kb.InlineKeyboard, 2)

	assert.Equal(t, "🎟️ Paga 1 biglietto (€15.00)", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "decrease_7_0_1500_0", *kb.InlineKeyboard[1][0].CallbackData)
}
