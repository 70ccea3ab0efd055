package bot

import (
	"fmt"
	"strings"
	"time"

	"ticket-bot/internal/models"
)

var mesiEstesi = map[time.Month]string{
	time.January: "Gennaio", time.February: "Febbraio", time.March: "Marzo",
	time.April: "Aprile", time.May: "Maggio", time.June: "Giugno",
	time.July: "Luglio", time.August: "Agosto", time.September: "Settembre",
	time.October: "Ottobre", time.November: "Novembre", time.December: "Dicembre",
}

// italianDate renders "HH:MM, DD Mese YY", the long form used in captions
// and the ticket summary.
func italianDate(t time.Time, comma bool) string {
	sep := " "
	if comma {
		sep = ", "
	}
	return fmt.Sprintf("%s%s%02d %s %02d",
		t.Format("15:04"), sep, t.Day(), mesiEstesi[t.Month()], t.Year()%100)
}

// eventCaption renders the catalog message for one event: date line,
// location pin, bold title, description, and the shuttle block when the
// event carries a transfer leg.
func eventCaption(event *models.Event) string {
	caption := fmt.Sprintf("%s, ore %s\n\n📍%s\n\n*%s*\n\n%s",
		event.Date.Format("02/01/2006"),
		event.Date.Format("15:04"),
		event.EndLocation,
		event.Title,
		event.Description,
	)
	if event.HasTransfer() {
		caption += fmt.Sprintf("\n\n🚌 Disponibile navetta su prenotazione\n*Quando*: %s\n*Dove*: %s",
			italianDate(*event.TransferTime, true),
			*event.StartLocation,
		)
	}
	return caption
}

const summarySeparator = "\n--------------------\n"

// recentWindow keeps freshly past events in the "future" half of the
// ticket summary for two days, so a ticket is still at hand right after
// the event.
const recentWindow = 48 * time.Hour

func paymentEntry(p *models.UserPayment) string {
	icon, noun, dateLabel := "🎟️", "tickets", "Evento"
	if p.IsTransfer {
		icon, noun, dateLabel = "🚌", "transfers", "Partenza"
	}
	return fmt.Sprintf("\n🎉 *%s*\n\n%s *%dx* %s\n📍 *Data %s*:\n     %s\n💳 *Pagato*: €%.2f\n📆 *Data Pagamento*:\n     %s\n",
		p.EventTitle,
		icon, p.Quantity, noun,
		dateLabel, italianDate(p.Time, false),
		float64(p.Amount)/100,
		p.Timestamp.Format("2006-01-02 15:04:05"),
	)
}

// ticketSummary renders the "I tuoi biglietti" reply: payments split into
// upcoming and past halves, each newest first.
func ticketSummary(payments []*models.UserPayment, now time.Time) string {
	if len(payments) == 0 {
		return "Non hai ancora preso biglietti."
	}

	cutoff := now.Add(-recentWindow)
	var future, past []*models.UserPayment
	for _, p := range payments {
		if p.Time.Before(cutoff) {
			past = append(past, p)
		} else {
			future = append(future, p)
		}
	}

	var b strings.Builder
	if len(future) > 0 {
		b.WriteString("*📬 I tuoi pagamenti per eventi futuri:*\n")
		b.WriteString(summarySeparator)
		for i := len(future) - 1; i >= 0; i-- {
			b.WriteString(paymentEntry(future[i]))
			b.WriteString(summarySeparator)
		}
	}
	if len(past) > 0 {
		if len(future) > 0 {
			b.WriteString("\n*📭 I tuoi pagamenti per eventi passati:*\n")
		} else {
			b.WriteString("*📭 I tuoi pagamenti per eventi passati:*\n")
		}
		b.WriteString(summarySeparator)
		for i := len(past) - 1; i >= 0; i-- {
			b.WriteString(paymentEntry(past[i]))
			b.WriteString(summarySeparator)
		}
	}
	return b.String()
}
